package repository

import (
	"context"
	"fmt"
)

// TeamLeads returns the notification targets acting as leads for a team:
// active users with the lead role in the team, plus explicit lead-override
// assignments. An override lets a user of another role (usually a mentor)
// act as lead for one team without changing their primary role.
func (r *Repository) TeamLeads(ctx context.Context, teamID int64) ([]int64, error) {
	query := `
		SELECT telegram_id FROM users
		WHERE team_id = $1 AND role = 'lead' AND is_active
		UNION
		SELECT user_id FROM team_lead_overrides WHERE team_id = $1
	`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team leads: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team lead: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// TeamMentors returns the mentors subscribed to a team.
func (r *Repository) TeamMentors(ctx context.Context, teamID int64) ([]int64, error) {
	query := `
		SELECT m.user_id
		FROM team_mentors m
		JOIN users u ON u.telegram_id = m.user_id
		WHERE m.team_id = $1 AND u.is_active
	`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team mentors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team mentor: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SubscribeMentor adds a mentor subscription to a team.
func (r *Repository) SubscribeMentor(ctx context.Context, teamID, userID int64) error {
	query := `
		INSERT INTO team_mentors (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("failed to subscribe mentor: %w", err)
	}

	return nil
}

// SetLeadOverride assigns a user as acting lead for a team.
func (r *Repository) SetLeadOverride(ctx context.Context, teamID, userID int64) error {
	query := `
		INSERT INTO team_lead_overrides (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("failed to set lead override: %w", err)
	}

	return nil
}
