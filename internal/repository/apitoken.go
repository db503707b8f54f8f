package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadrelay/leadrelay/internal/model"
)

// ErrTokenNotFound indicates the API token does not exist.
var ErrTokenNotFound = errors.New("api token not found")

// CreateAPIToken stores a new back-office API token (hash only).
func (r *Repository) CreateAPIToken(ctx context.Context, token *model.APIToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO api_tokens (id, name, prefix, token_hash, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID, token.Name, token.Prefix, token.TokenHash, token.Scope, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create api token: %w", err)
	}

	return nil
}

// GetAPITokensByPrefix returns non-revoked tokens matching the visible
// prefix. The caller verifies the full token against each candidate hash;
// prefix collisions are possible but rare.
func (r *Repository) GetAPITokensByPrefix(ctx context.Context, prefix string) ([]*model.APIToken, error) {
	query := `
		SELECT id, name, prefix, token_hash, scope, created_at, last_used_at, revoked_at
		FROM api_tokens
		WHERE prefix = $1 AND revoked_at IS NULL
	`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query api tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.APIToken
	for rows.Next() {
		var t model.APIToken
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Prefix, &t.TokenHash, &t.Scope,
			&t.CreatedAt, &t.LastUsedAt, &t.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api token: %w", err)
		}
		tokens = append(tokens, &t)
	}

	return tokens, rows.Err()
}

// TouchAPIToken updates the last-used timestamp. Best-effort.
func (r *Repository) TouchAPIToken(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to touch api token: %w", err)
	}
	return nil
}

// RevokeAPIToken marks a token as revoked.
func (r *Repository) RevokeAPIToken(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke api token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	return nil
}
