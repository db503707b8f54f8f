package postback

import (
	"testing"
	"time"

	"github.com/leadrelay/leadrelay/internal/model"
)

func TestAliasKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		campaign string
		want     string
	}{
		{"prefix before underscore", "alex_us_fb", "alex"},
		{"no underscore", "alex", "alex"},
		{"uppercase", "ALEX_US", "alex"},
		{"surrounding spaces", "  Alex_us  ", "alex"},
		{"empty", "", ""},
		{"leading underscore", "_us_fb", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AliasKey(tt.campaign); got != tt.want {
				t.Errorf("AliasKey(%q) = %q, want %q", tt.campaign, got, tt.want)
			}
		})
	}
}

func rule(id string, userID int64, offer, country, source *string, priority int, createdAt time.Time) model.RoutingRule {
	return model.RoutingRule{
		ID:        id,
		UserID:    userID,
		Offer:     offer,
		Country:   country,
		Source:    source,
		Priority:  priority,
		IsActive:  true,
		CreatedAt: createdAt,
	}
}

func sp(s string) *string { return &s }

func TestSelectRule_MostSpecificWins(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.RoutingRule{
		rule("wild", 1, nil, nil, nil, 100, base),
		rule("offer+geo", 2, sp("777"), sp("US"), nil, 0, base),
		rule("offer", 3, sp("777"), nil, nil, 50, base),
	}

	got := SelectRule(rules, "777", "US", "fb")
	if got == nil || got.UserID != 2 {
		t.Fatalf("SelectRule picked %v, want the two-field rule (user 2)", got)
	}
}

func TestSelectRule_PriorityBreaksWeightTie(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.RoutingRule{
		rule("low", 1, sp("777"), nil, nil, 1, base),
		rule("high", 2, nil, sp("US"), nil, 9, base),
	}

	got := SelectRule(rules, "777", "US", "fb")
	if got == nil || got.UserID != 2 {
		t.Fatalf("SelectRule picked %v, want the higher-priority rule (user 2)", got)
	}
}

func TestSelectRule_RecencyBreaksFullTie(t *testing.T) {
	t.Parallel()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	rules := []model.RoutingRule{
		rule("old", 1, sp("777"), nil, nil, 5, older),
		rule("new", 2, sp("777"), nil, nil, 5, newer),
	}

	got := SelectRule(rules, "777", "US", "fb")
	if got == nil || got.UserID != 2 {
		t.Fatalf("SelectRule picked %v, want the newer rule (user 2)", got)
	}

	// Order-independent: the newer rule wins from either position.
	rules[0], rules[1] = rules[1], rules[0]
	got = SelectRule(rules, "777", "US", "fb")
	if got == nil || got.UserID != 2 {
		t.Fatalf("SelectRule after swap picked %v, want user 2", got)
	}
}

func TestSelectRule_SkipsInactiveAndNonMatching(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inactive := rule("inactive", 1, sp("777"), nil, nil, 99, base)
	inactive.IsActive = false

	rules := []model.RoutingRule{
		inactive,
		rule("wrong geo", 2, nil, sp("DE"), nil, 99, base),
		rule("match", 3, nil, sp("US"), nil, 0, base),
	}

	got := SelectRule(rules, "777", "US", "fb")
	if got == nil || got.UserID != 3 {
		t.Fatalf("SelectRule picked %v, want user 3", got)
	}
}

func TestSelectRule_NoMatch(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.RoutingRule{
		rule("offer", 1, sp("777"), nil, nil, 0, base),
	}

	if got := SelectRule(rules, "888", "US", "fb"); got != nil {
		t.Fatalf("SelectRule = %v, want nil", got)
	}
}

func TestDecision_BuyerID(t *testing.T) {
	t.Parallel()

	d := Decision{PerformerID: 42, Attributed: true}
	if got := d.BuyerID(); got == nil || *got != 42 {
		t.Errorf("BuyerID() = %v, want 42", got)
	}

	d = Decision{PerformerID: 42}
	if got := d.BuyerID(); got != nil {
		t.Errorf("BuyerID() = %v, want nil for unattributed decision", *got)
	}
}
