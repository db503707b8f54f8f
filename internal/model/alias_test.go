package model

import "testing"

func strp(s string) *string { return &s }

func TestRoutingRule_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    RoutingRule
		offer   string
		country string
		source  string
		want    bool
	}{
		{"all wildcards", RoutingRule{}, "777", "US", "fb", true},
		{"offer match", RoutingRule{Offer: strp("777")}, "777", "US", "fb", true},
		{"offer mismatch", RoutingRule{Offer: strp("888")}, "777", "US", "fb", false},
		{"country mismatch", RoutingRule{Country: strp("DE")}, "777", "US", "fb", false},
		{"source mismatch", RoutingRule{Source: strp("tiktok")}, "777", "US", "fb", false},
		{
			"all fields match",
			RoutingRule{Offer: strp("777"), Country: strp("US"), Source: strp("fb")},
			"777", "US", "fb", true,
		},
		{"set field vs empty event value", RoutingRule{Offer: strp("777")}, "", "US", "fb", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rule.Matches(tt.offer, tt.country, tt.source); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoutingRule_Weight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule RoutingRule
		want int
	}{
		{"wildcard", RoutingRule{}, 0},
		{"one field", RoutingRule{Offer: strp("777")}, 1},
		{"two fields", RoutingRule{Offer: strp("777"), Country: strp("US")}, 2},
		{"three fields", RoutingRule{Offer: strp("777"), Country: strp("US"), Source: strp("fb")}, 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rule.Weight(); got != tt.want {
				t.Errorf("Weight() = %d, want %d", got, tt.want)
			}
		})
	}
}
