package model

import "time"

// Conversion is a logged postback event.
//
// PerformerID is the performer credited for statistics. It is nil when
// attribution fell back to an admin or when the routed user's role is not
// credited, even though a notification still went out.
type Conversion struct {
	ID          string   `json:"id"` // ULID (time-sortable)
	Status      string   `json:"status"`
	Payout      *float64 `json:"payout,omitempty"`
	PayoutRaw   string   `json:"payout_raw,omitempty"` // kept when unparsable
	Currency    string   `json:"currency,omitempty"`
	OfferID     string   `json:"offer_id,omitempty"`
	OfferName   string   `json:"offer_name,omitempty"`
	SubID       string   `json:"sub_id,omitempty"`
	SubID2      string   `json:"sub_id_2,omitempty"`
	Campaign    string   `json:"campaign,omitempty"`
	Country     string   `json:"country,omitempty"`
	Source      string   `json:"source,omitempty"`
	ConvertedAt string   `json:"converted_at,omitempty"` // normalized "YYYY-MM-DD / HH:MM" or raw passthrough

	PerformerID *int64 `json:"performer_id,omitempty"`
	IsSale      bool   `json:"is_sale"`

	// Raw is the opaque archived payload as received.
	Raw []byte `json:"-"`

	// NotifiedIDs are the recipients a notification was attempted for.
	NotifiedIDs []int64 `json:"notified_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// KPI holds per-performer sale goals used to enrich notifications.
type KPI struct {
	TelegramID int64     `json:"telegram_id"`
	DailyGoal  int       `json:"daily_goal"`
	WeeklyGoal int       `json:"weekly_goal"`
	UpdatedAt  time.Time `json:"updated_at"`
}
