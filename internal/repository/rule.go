package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadrelay/leadrelay/internal/model"
)

// ErrRuleNotFound indicates the routing rule does not exist.
var ErrRuleNotFound = errors.New("routing rule not found")

// CreateRule inserts a routing rule.
func (r *Repository) CreateRule(ctx context.Context, rule *model.RoutingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO routing_rules (id, user_id, offer, country, source, priority, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		rule.ID, rule.UserID, rule.Offer, rule.Country, rule.Source,
		rule.Priority, rule.IsActive, rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// ListActiveRules returns active rules ordered by creation time so a later
// rule wins the recency tie-break in rule selection.
func (r *Repository) ListActiveRules(ctx context.Context) ([]model.RoutingRule, error) {
	query := `
		SELECT id, user_id, offer, country, source, priority, is_active, created_at
		FROM routing_rules
		WHERE is_active
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []model.RoutingRule
	for rows.Next() {
		var rule model.RoutingRule
		if err := rows.Scan(
			&rule.ID, &rule.UserID, &rule.Offer, &rule.Country, &rule.Source,
			&rule.Priority, &rule.IsActive, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ListRules returns all rules, active or not.
func (r *Repository) ListRules(ctx context.Context) ([]model.RoutingRule, error) {
	query := `
		SELECT id, user_id, offer, country, source, priority, is_active, created_at
		FROM routing_rules
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []model.RoutingRule
	for rows.Next() {
		var rule model.RoutingRule
		if err := rows.Scan(
			&rule.ID, &rule.UserID, &rule.Offer, &rule.Country, &rule.Source,
			&rule.Priority, &rule.IsActive, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// DeleteRule removes a routing rule by ID.
func (r *Repository) DeleteRule(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM routing_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}

	return nil
}
