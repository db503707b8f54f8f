package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadrelay/leadrelay/internal/model"
)

// ErrKPINotFound indicates no KPI is set for the performer.
var ErrKPINotFound = errors.New("kpi not found")

// GetKPI retrieves the goals for a performer.
func (r *Repository) GetKPI(ctx context.Context, telegramID int64) (*model.KPI, error) {
	query := `
		SELECT telegram_id, daily_goal, weekly_goal, updated_at
		FROM kpis
		WHERE telegram_id = $1
	`

	var kpi model.KPI
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&kpi.TelegramID, &kpi.DailyGoal, &kpi.WeeklyGoal, &kpi.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKPINotFound
		}
		return nil, fmt.Errorf("failed to get kpi: %w", err)
	}

	return &kpi, nil
}

// UpsertKPI creates or replaces the goals for a performer.
func (r *Repository) UpsertKPI(ctx context.Context, kpi *model.KPI) error {
	kpi.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO kpis (telegram_id, daily_goal, weekly_goal, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			daily_goal = EXCLUDED.daily_goal,
			weekly_goal = EXCLUDED.weekly_goal,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query,
		kpi.TelegramID, kpi.DailyGoal, kpi.WeeklyGoal, kpi.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert kpi: %w", err)
	}

	return nil
}
