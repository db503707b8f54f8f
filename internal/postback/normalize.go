package postback

import (
	"strconv"
	"strings"
	"time"
)

// Normalized is the typed view of a conversion payload. Every field is
// resolved by trying an ordered list of synonym keys and discarding values
// that are empty or unexpanded tracker macros.
type Normalized struct {
	Status      string
	Payout      *float64
	PayoutRaw   string
	Currency    string
	OfferID     string
	OfferName   string
	SubID       string
	SubID2      string
	Campaign    string
	Country     string
	Source      string
	ConvertedAt string
}

// Synonym key lists per logical field, in priority order. Trackers disagree
// on naming, so each field is probed against its whole family.
var (
	statusKeys    = []string{"status", "conversion_status", "goal", "event", "action"}
	payoutKeys    = []string{"profit", "payout", "revenue", "conversion_revenue", "sum", "amount"}
	currencyKeys  = []string{"currency", "currency_code", "revenue_currency"}
	offerIDKeys   = []string{"offer_id", "offer", "oid"}
	offerNameKeys = []string{"offer_name", "offername", "offer_title"}
	subIDKeys     = []string{"subid", "sub_id", "clickid", "click_id", "subid1", "sub_id_1"}
	subID2Keys    = []string{"subid2", "sub_id_2", "sub2"}
	campaignKeys  = []string{"campaign", "campaign_name", "camp"}
	countryKeys   = []string{"country", "geo", "country_code"}
	sourceKeys    = []string{"source", "traffic_source", "ts"}
	timeKeys      = []string{"conversion_time", "datetime", "created_at", "timestamp", "time"}
)

// meaningfulKeys is the allow-list for the meaningfulness gate: a payload is
// worth processing iff at least one of these carries a usable value.
// Trackers send empty health-check pings that must not pollute statistics.
var meaningfulKeys = func() []string {
	var keys []string
	for _, family := range [][]string{
		payoutKeys, offerIDKeys, offerNameKeys, subIDKeys, subID2Keys,
		statusKeys, countryKeys, sourceKeys,
	} {
		keys = append(keys, family...)
	}
	return keys
}()

// saleStatuses is the fixed vocabulary of sale-like tracker statuses.
var saleStatuses = map[string]bool{
	"sale":      true,
	"approved":  true,
	"approve":   true,
	"confirmed": true,
	"confirm":   true,
	"purchase":  true,
	"purchased": true,
	"paid":      true,
	"success":   true,
}

// IsPlaceholder reports whether a value is an unexpanded template macro:
// after trimming it starts with '{' and ends with '}'. Trackers sometimes
// fail to substitute macros and send the literal template through.
func IsPlaceholder(s string) bool {
	t := strings.TrimSpace(s)
	return len(t) >= 2 && strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")
}

// pick returns the first usable value among the synonym keys: present,
// non-empty after trimming, and not a placeholder.
func pick(p Payload, keys []string) string {
	for _, k := range keys {
		v, ok := p[k]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || IsPlaceholder(v) {
			continue
		}
		return v
	}
	return ""
}

// Meaningful reports whether the payload carries at least one usable value
// under the allow-listed keys. Non-meaningful payloads are acknowledged and
// otherwise ignored entirely.
func Meaningful(p Payload) bool {
	for _, k := range meaningfulKeys {
		v, ok := p[k]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v != "" && !IsPlaceholder(v) {
			return true
		}
	}
	return false
}

// ParsePayout parses a payout value tolerating locale comma separators.
// Returns nil when the value cannot be parsed; the raw string is kept
// alongside so nothing is lost.
func ParsePayout(s string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// conversionTimeLayouts are the explicit layouts tried after unix and
// ISO-8601 parsing.
var conversionTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04:05",
	"2006/01/02 15:04:05",
}

// displayTimeFormat is how conversion times are rendered in notifications.
const displayTimeFormat = "2006-01-02 / 15:04"

// NormalizeTimestamp parses a conversion time as unix seconds, unix
// milliseconds (magnitude > 1e12), ISO-8601 with or without zone, or one of
// the explicit layouts, and renders it in UTC. Unparsable values pass
// through unchanged.
func NormalizeTimestamp(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return s
	}

	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		if n > 1e12 { // milliseconds
			return time.UnixMilli(n).UTC().Format(displayTimeFormat)
		}
		return time.Unix(n, 0).UTC().Format(displayTimeFormat)
	}

	if ts, err := time.Parse(time.RFC3339, t); err == nil {
		return ts.UTC().Format(displayTimeFormat)
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", t); err == nil {
		return ts.UTC().Format(displayTimeFormat)
	}
	for _, layout := range conversionTimeLayouts {
		if ts, err := time.Parse(layout, t); err == nil {
			return ts.UTC().Format(displayTimeFormat)
		}
	}

	return s
}

// IsSaleStatus reports whether a status string is sale-like.
func IsSaleStatus(status string) bool {
	return saleStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// Normalize resolves every logical field of the payload.
func Normalize(p Payload) Normalized {
	n := Normalized{
		Status:    strings.ToLower(pick(p, statusKeys)),
		PayoutRaw: pick(p, payoutKeys),
		Currency:  pick(p, currencyKeys),
		OfferID:   pick(p, offerIDKeys),
		OfferName: pick(p, offerNameKeys),
		SubID:     pick(p, subIDKeys),
		SubID2:    pick(p, subID2Keys),
		Campaign:  pick(p, campaignKeys),
		Country:   pick(p, countryKeys),
		Source:    pick(p, sourceKeys),
	}
	if n.PayoutRaw != "" {
		n.Payout = ParsePayout(n.PayoutRaw)
	}
	if raw := pick(p, timeKeys); raw != "" {
		n.ConvertedAt = NormalizeTimestamp(raw)
	}
	return n
}

// IsSale reports whether the normalized status is sale-like.
func (n Normalized) IsSale() bool {
	return IsSaleStatus(n.Status)
}

// Offer returns the best offer identifier for rule matching: the offer ID
// when present, otherwise the offer name.
func (n Normalized) Offer() string {
	if n.OfferID != "" {
		return n.OfferID
	}
	return n.OfferName
}
