package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadrelay/leadrelay/internal/model"
)

// Common errors for alias repository operations.
var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrAliasExists   = errors.New("alias key already exists")
)

// CreateAlias inserts a campaign-prefix alias. The key is normalized to
// lower case so lookup stays exact-match.
func (r *Repository) CreateAlias(ctx context.Context, alias *model.Alias) error {
	if alias.ID == "" {
		alias.ID = uuid.New().String()
	}
	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = time.Now().UTC()
	}
	alias.Key = strings.ToLower(strings.TrimSpace(alias.Key))

	query := `
		INSERT INTO aliases (id, key, buyer_id, lead_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		alias.ID, alias.Key, alias.BuyerID, alias.LeadID, alias.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAliasExists
		}
		return fmt.Errorf("failed to create alias: %w", err)
	}

	return nil
}

// FindAliasByKey looks up an alias by its exact key.
func (r *Repository) FindAliasByKey(ctx context.Context, key string) (*model.Alias, error) {
	query := `
		SELECT id, key, buyer_id, lead_id, created_at
		FROM aliases
		WHERE key = $1
	`

	var alias model.Alias
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&alias.ID, &alias.Key, &alias.BuyerID, &alias.LeadID, &alias.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAliasNotFound
		}
		return nil, fmt.Errorf("failed to find alias: %w", err)
	}

	return &alias, nil
}

// ListAliases returns all aliases in creation order.
func (r *Repository) ListAliases(ctx context.Context) ([]model.Alias, error) {
	query := `
		SELECT id, key, buyer_id, lead_id, created_at
		FROM aliases
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []model.Alias
	for rows.Next() {
		var alias model.Alias
		if err := rows.Scan(
			&alias.ID, &alias.Key, &alias.BuyerID, &alias.LeadID, &alias.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, alias)
	}

	return aliases, rows.Err()
}

// DeleteAlias removes an alias by ID.
func (r *Repository) DeleteAlias(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM aliases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAliasNotFound
	}

	return nil
}
