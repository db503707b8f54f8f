package postback

import (
	"strings"

	"github.com/leadrelay/leadrelay/internal/model"
)

// Decision is the outcome of attributing a conversion to a performer.
type Decision struct {
	PerformerID  int64
	Attributed   bool
	Alias        *model.Alias
	UsedFallback bool
	IsSale       bool
}

// BuyerID returns the attributed performer or nil.
func (d Decision) BuyerID() *int64 {
	if !d.Attributed {
		return nil
	}
	id := d.PerformerID
	return &id
}

// AliasKey derives the alias lookup key from a campaign name: the
// lower-cased, trimmed prefix before the first underscore.
func AliasKey(campaign string) string {
	key := strings.ToLower(strings.TrimSpace(campaign))
	if i := strings.Index(key, "_"); i >= 0 {
		key = key[:i]
	}
	return strings.TrimSpace(key)
}

// SelectRule picks the winning rule for the event fields, or nil.
//
// Among matching rules the most specific wins (highest count of non-wildcard
// fields), ties broken by highest priority, then by most recent creation.
// The input order is the final tie-break: a later rule at equal weight,
// priority and creation time replaces an earlier one.
func SelectRule(rules []model.RoutingRule, offer, country, source string) *model.RoutingRule {
	var best *model.RoutingRule
	for i := range rules {
		r := &rules[i]
		if !r.IsActive || !r.Matches(offer, country, source) {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		switch {
		case r.Weight() > best.Weight():
			best = r
		case r.Weight() < best.Weight():
		case r.Priority > best.Priority:
			best = r
		case r.Priority < best.Priority:
		case !r.CreatedAt.Before(best.CreatedAt):
			best = r
		}
	}
	return best
}
