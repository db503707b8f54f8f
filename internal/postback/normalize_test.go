package postback

import (
	"testing"
)

func TestIsPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"macro", "{subid}", true},
		{"macro with spaces", "  {payout}  ", true},
		{"empty braces", "{}", true},
		{"plain value", "42.50", false},
		{"empty string", "", false},
		{"open brace only", "{subid", false},
		{"close brace only", "subid}", false},
		{"single brace", "{", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsPlaceholder(tt.value); got != tt.want {
				t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalize_SynonymPriority(t *testing.T) {
	t.Parallel()

	// "profit" outranks "payout" within the payout family.
	p := Payload{
		"profit": "10.00",
		"payout": "99.99",
	}
	n := Normalize(p)

	if n.PayoutRaw != "10.00" {
		t.Errorf("PayoutRaw = %q, want 10.00", n.PayoutRaw)
	}
	if n.Payout == nil || *n.Payout != 10.0 {
		t.Errorf("Payout = %v, want 10", n.Payout)
	}
}

func TestNormalize_PlaceholderFallsThrough(t *testing.T) {
	t.Parallel()

	// An unexpanded macro in the preferred key must not shadow a usable
	// value under a lower-priority synonym.
	p := Payload{
		"profit": "{profit}",
		"payout": "15.50",
	}
	n := Normalize(p)

	if n.PayoutRaw != "15.50" {
		t.Errorf("PayoutRaw = %q, want 15.50", n.PayoutRaw)
	}
}

func TestNormalize_StatusLowercased(t *testing.T) {
	t.Parallel()

	n := Normalize(Payload{"status": "  SALE  "})
	if n.Status != "sale" {
		t.Errorf("Status = %q, want sale", n.Status)
	}
}

func TestNormalize_CountrySynonyms(t *testing.T) {
	t.Parallel()

	n := Normalize(Payload{"geo": "DE"})
	if n.Country != "DE" {
		t.Errorf("Country = %q, want DE", n.Country)
	}
}

func TestParsePayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  float64
		ok    bool
	}{
		{"plain", "42.50", 42.50, true},
		{"comma decimal", "42,50", 42.50, true},
		{"spaces", " 1 250,75 ", 1250.75, true},
		{"integer", "100", 100, true},
		{"garbage", "N/A", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParsePayout(tt.value)
			if tt.ok {
				if got == nil {
					t.Fatalf("ParsePayout(%q) = nil, want %v", tt.value, tt.want)
				}
				if *got != tt.want {
					t.Errorf("ParsePayout(%q) = %v, want %v", tt.value, *got, tt.want)
				}
			} else if got != nil {
				t.Errorf("ParsePayout(%q) = %v, want nil", tt.value, *got)
			}
		})
	}
}

func TestNormalize_UnparsablePayoutKeepsRaw(t *testing.T) {
	t.Parallel()

	n := Normalize(Payload{"payout": "approx. 40"})
	if n.Payout != nil {
		t.Errorf("Payout = %v, want nil", *n.Payout)
	}
	if n.PayoutRaw != "approx. 40" {
		t.Errorf("PayoutRaw = %q, want the raw value preserved", n.PayoutRaw)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"unix seconds", "1700000000", "2023-11-14 / 22:13"},
		{"unix milliseconds", "1700000000000", "2023-11-14 / 22:13"},
		{"rfc3339", "2023-11-14T22:13:20Z", "2023-11-14 / 22:13"},
		{"rfc3339 with offset", "2023-11-15T00:13:20+02:00", "2023-11-14 / 22:13"},
		{"iso no zone", "2023-11-14T22:13:20", "2023-11-14 / 22:13"},
		{"space separated", "2023-11-14 22:13:20", "2023-11-14 / 22:13"},
		{"space separated no seconds", "2023-11-14 22:13", "2023-11-14 / 22:13"},
		{"dotted european", "14.11.2023 22:13:20", "2023-11-14 / 22:13"},
		{"slashed", "2023/11/14 22:13:20", "2023-11-14 / 22:13"},
		{"unparsable passes through", "yesterday evening", "yesterday evening"},
		{"empty passes through", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTimestamp(tt.value); got != tt.want {
				t.Errorf("NormalizeTimestamp(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestMeaningful(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload Payload
		want    bool
	}{
		{"empty payload", Payload{}, false},
		{"status only", Payload{"status": "lead"}, true},
		{"payout only", Payload{"payout": "5.00"}, true},
		{"subid only", Payload{"subid": "abc"}, true},
		{"geo only", Payload{"geo": "US"}, true},
		{"all placeholders", Payload{"status": "{status}", "subid": "{subid}"}, false},
		{"all blank", Payload{"status": "  ", "payout": ""}, false},
		{"ping noise", Payload{"ping": "1", "ts_health": "ok"}, false},
		{"campaign alone is not enough", Payload{"campaign": "alex_us"}, false},
		{"currency alone is not enough", Payload{"currency": "USD"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Meaningful(tt.payload); got != tt.want {
				t.Errorf("Meaningful(%v) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestIsSaleStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"sale", "approved", "approve", "confirmed", "confirm", "purchase", "purchased", "paid", "success", "SALE", " Paid "} {
		if !IsSaleStatus(s) {
			t.Errorf("IsSaleStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"lead", "hold", "rejected", "trash", ""} {
		if IsSaleStatus(s) {
			t.Errorf("IsSaleStatus(%q) = true, want false", s)
		}
	}
}

func TestNormalized_Offer(t *testing.T) {
	t.Parallel()

	n := Normalized{OfferID: "123", OfferName: "Keto Drops"}
	if n.Offer() != "123" {
		t.Errorf("Offer() = %q, want the offer ID", n.Offer())
	}

	n = Normalized{OfferName: "Keto Drops"}
	if n.Offer() != "Keto Drops" {
		t.Errorf("Offer() = %q, want the offer name", n.Offer())
	}
}
