package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leadrelay/leadrelay/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, full_name, role, team_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, query,
		user.TelegramID,
		nullableString(user.Username),
		nullableString(user.FullName),
		string(user.Role),
		user.TeamID,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by Telegram ID.
func (r *Repository) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `
		SELECT telegram_id, COALESCE(username, ''), COALESCE(full_name, ''),
		       role, team_id, is_active, created_at
		FROM users
		WHERE telegram_id = $1
	`

	var user model.User
	var role string
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FullName,
		&role,
		&user.TeamID,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = model.Role(role)

	return &user, nil
}

// ListUsers returns all users in creation order.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT telegram_id, COALESCE(username, ''), COALESCE(full_name, ''),
		       role, team_id, is_active, created_at
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		var role string
		if err := rows.Scan(
			&user.TelegramID,
			&user.Username,
			&user.FullName,
			&role,
			&user.TeamID,
			&user.IsActive,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = model.Role(role)
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUser applies a partial update to a user.
func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $2, full_name = $3, role = $4, team_id = $5, is_active = $6
		WHERE telegram_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.TelegramID,
		nullableString(user.Username),
		nullableString(user.FullName),
		string(user.Role),
		user.TeamID,
		user.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, telegramID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
