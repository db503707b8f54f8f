package model

import "time"

// Alias maps a campaign-name prefix to a default buyer and/or lead.
// Many campaigns can share one prefix; lookup is exact-match on the key.
type Alias struct {
	ID        string    `json:"id"`  // UUID
	Key       string    `json:"key"` // lower-cased campaign prefix
	BuyerID   *int64    `json:"buyer_id,omitempty"`
	LeadID    *int64    `json:"lead_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RoutingRule attributes conversions to a user by offer/country/source.
// Nil fields act as wildcards.
type RoutingRule struct {
	ID        string    `json:"id"` // UUID
	UserID    int64     `json:"user_id"`
	Offer     *string   `json:"offer,omitempty"`
	Country   *string   `json:"country,omitempty"`
	Source    *string   `json:"source,omitempty"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Matches reports whether the rule applies to the given event fields.
// A nil rule field matches anything; a set field must equal the event value.
func (r *RoutingRule) Matches(offer, country, source string) bool {
	if r.Offer != nil && *r.Offer != offer {
		return false
	}
	if r.Country != nil && *r.Country != country {
		return false
	}
	if r.Source != nil && *r.Source != source {
		return false
	}
	return true
}

// Weight is the rule's specificity: the number of non-wildcard fields (0-3).
func (r *RoutingRule) Weight() int {
	w := 0
	if r.Offer != nil {
		w++
	}
	if r.Country != nil {
		w++
	}
	if r.Source != nil {
		w++
	}
	return w
}
