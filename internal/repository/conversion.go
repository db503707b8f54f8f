package repository

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/leadrelay/leadrelay/internal/model"
)

// LogConversion archives a conversion event. The ID is a ULID so the log
// stays time-sortable.
func (r *Repository) LogConversion(ctx context.Context, ev *model.Conversion) error {
	if ev.ID == "" {
		ev.ID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversions (
			id, status, payout, payout_raw, currency, offer_id, offer_name,
			sub_id, sub_id_2, campaign, country, source, converted_at,
			performer_id, is_sale, raw, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		ev.ID,
		nullableString(ev.Status),
		ev.Payout,
		nullableString(ev.PayoutRaw),
		nullableString(ev.Currency),
		nullableString(ev.OfferID),
		nullableString(ev.OfferName),
		nullableString(ev.SubID),
		nullableString(ev.SubID2),
		nullableString(ev.Campaign),
		nullableString(ev.Country),
		nullableString(ev.Source),
		nullableString(ev.ConvertedAt),
		ev.PerformerID,
		ev.IsSale,
		ev.Raw,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log conversion: %w", err)
	}

	return nil
}

// MarkNotified records which recipients a notification was delivered to.
func (r *Repository) MarkNotified(ctx context.Context, eventID string, recipients []int64) error {
	query := `UPDATE conversions SET notified_ids = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, eventID, pq.Array(recipients))
	if err != nil {
		return fmt.Errorf("failed to mark notified: %w", err)
	}

	return nil
}

// CountTodaySales is the authoritative per-performer sale count for the
// current UTC day. Only credited conversions are counted.
func (r *Repository) CountTodaySales(ctx context.Context, performerID int64) (int, error) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT COUNT(*)
		FROM conversions
		WHERE performer_id = $1 AND is_sale AND created_at >= $2 AND created_at < $3
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, performerID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count today sales: %w", err)
	}

	return count, nil
}

// ListRecentConversions returns the newest entries of the conversion log.
func (r *Repository) ListRecentConversions(ctx context.Context, limit int) ([]model.Conversion, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, COALESCE(status, ''), payout, COALESCE(payout_raw, ''),
		       COALESCE(currency, ''), COALESCE(offer_id, ''), COALESCE(offer_name, ''),
		       COALESCE(sub_id, ''), COALESCE(sub_id_2, ''), COALESCE(campaign, ''),
		       COALESCE(country, ''), COALESCE(source, ''), COALESCE(converted_at, ''),
		       performer_id, is_sale, notified_ids, created_at
		FROM conversions
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var events []model.Conversion
	for rows.Next() {
		var ev model.Conversion
		var notified pq.Int64Array
		if err := rows.Scan(
			&ev.ID, &ev.Status, &ev.Payout, &ev.PayoutRaw,
			&ev.Currency, &ev.OfferID, &ev.OfferName,
			&ev.SubID, &ev.SubID2, &ev.Campaign,
			&ev.Country, &ev.Source, &ev.ConvertedAt,
			&ev.PerformerID, &ev.IsSale, &notified, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		ev.NotifiedIDs = notified
		events = append(events, ev)
	}

	return events, rows.Err()
}
