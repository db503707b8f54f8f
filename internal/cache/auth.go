package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadrelay/leadrelay/internal/model"
)

const (
	authKeyPrefix = "auth:"

	// AuthContextTTL bounds how long a verified token skips the argon2
	// check. Revocation takes at most this long to propagate.
	AuthContextTTL = 5 * time.Minute
)

// GetAuthContext retrieves a cached auth context by token digest.
// Returns nil without error on a miss; auth caching is an optimization.
func (c *Cache) GetAuthContext(ctx context.Context, digest string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authKeyPrefix+digest).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var authCtx model.AuthContext
	if err := json.Unmarshal(data, &authCtx); err != nil {
		return nil, fmt.Errorf("failed to decode cached auth context: %w", err)
	}

	return &authCtx, nil
}

// SetAuthContext caches a verified auth context.
func (c *Cache) SetAuthContext(ctx context.Context, digest string, authCtx *model.AuthContext) error {
	data, err := json.Marshal(authCtx)
	if err != nil {
		return fmt.Errorf("failed to encode auth context: %w", err)
	}

	if err := c.client.Set(ctx, authKeyPrefix+digest, data, AuthContextTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache auth context: %w", err)
	}

	return nil
}

// DeleteAuthContext evicts a cached auth context (after revocation).
func (c *Cache) DeleteAuthContext(ctx context.Context, digest string) error {
	if err := c.client.Del(ctx, authKeyPrefix+digest).Err(); err != nil {
		return fmt.Errorf("failed to delete auth context: %w", err)
	}
	return nil
}
