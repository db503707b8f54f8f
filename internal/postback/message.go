package postback

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leadrelay/leadrelay/internal/model"
)

// FormatSaleMessage renders the notification for a sale-like conversion.
// Formatting never fails; missing fields are simply omitted.
func FormatSaleMessage(n Normalized, performer *model.User, performerID int64, displayed int, kpi *model.KPI) string {
	var b strings.Builder

	b.WriteString("New sale")
	if n.Status != "" && n.Status != "sale" {
		b.WriteString(" (" + n.Status + ")")
	}
	b.WriteString("\n")

	if line := payoutLine(n); line != "" {
		b.WriteString("Payout: " + line + "\n")
	}
	if offer := offerLine(n); offer != "" {
		b.WriteString("Offer: " + offer + "\n")
	}
	if n.Campaign != "" {
		b.WriteString("Campaign: " + n.Campaign + "\n")
	}
	if n.Country != "" {
		b.WriteString("Geo: " + n.Country + "\n")
	}
	if n.ConvertedAt != "" {
		b.WriteString("Time: " + n.ConvertedAt + "\n")
	}

	b.WriteString("Buyer: " + performerLine(performer, performerID))

	// displayed < 1 means no counter applies (fallback identity).
	if displayed >= 1 {
		if kpi != nil && kpi.DailyGoal > 0 {
			b.WriteString(fmt.Sprintf("\nToday: %d/%d", displayed, kpi.DailyGoal))
		} else {
			b.WriteString(fmt.Sprintf("\nToday: %d", displayed))
		}
	}

	return b.String()
}

// FormatEventMessage renders the compact line for non-sale events, which
// only admins receive.
func FormatEventMessage(n Normalized) string {
	var b strings.Builder

	b.WriteString("Postback")
	if n.Status != "" {
		b.WriteString(": " + n.Status)
	}
	b.WriteString("\n")

	if offer := offerLine(n); offer != "" {
		b.WriteString("Offer: " + offer + "\n")
	}
	if n.Campaign != "" {
		b.WriteString("Campaign: " + n.Campaign + "\n")
	}
	if line := payoutLine(n); line != "" {
		b.WriteString("Payout: " + line + "\n")
	}
	if n.SubID != "" {
		b.WriteString("SubID: " + n.SubID + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func payoutLine(n Normalized) string {
	switch {
	case n.Payout != nil && n.Currency != "":
		return trimFloat(*n.Payout) + " " + n.Currency
	case n.Payout != nil:
		return trimFloat(*n.Payout)
	case n.PayoutRaw != "":
		return n.PayoutRaw
	}
	return ""
}

func offerLine(n Normalized) string {
	switch {
	case n.OfferName != "" && n.OfferID != "":
		return n.OfferName + " (" + n.OfferID + ")"
	case n.OfferName != "":
		return n.OfferName
	}
	return n.OfferID
}

func performerLine(performer *model.User, performerID int64) string {
	if performer != nil {
		if name := performer.DisplayName(); name != "" {
			return name
		}
	}
	return strconv.FormatInt(performerID, 10)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
