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

// Cache key prefixes and TTLs for the attribution directory.
const (
	aliasKeyPrefix    = "alias:"
	negCacheKeySuffix = ":neg"
	rulesKey          = "routing_rules"

	// AliasTTL is the TTL for cached aliases. Aliases change rarely.
	AliasTTL = 10 * time.Minute

	// NegativeAliasTTL is the TTL for "no such alias" entries.
	NegativeAliasTTL = 2 * time.Minute

	// RulesTTL is the TTL for the cached active rule list. Short, because a
	// new rule should start matching quickly.
	RulesTTL = 30 * time.Second
)

// GetAlias retrieves a cached alias by key.
// Returns ErrCacheMiss if not cached.
func (c *Cache) GetAlias(ctx context.Context, key string) (*model.Alias, error) {
	data, err := c.client.Get(ctx, aliasKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var alias model.Alias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("failed to decode cached alias: %w", err)
	}

	return &alias, nil
}

// SetAlias caches an alias and clears any negative entry.
func (c *Cache) SetAlias(ctx context.Context, alias *model.Alias) error {
	data, err := json.Marshal(alias)
	if err != nil {
		return fmt.Errorf("failed to encode alias: %w", err)
	}

	key := aliasKeyPrefix + alias.Key

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, AliasTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache alias: %w", err)
	}

	return nil
}

// DeleteAlias drops an alias from cache.
func (c *Cache) DeleteAlias(ctx context.Context, key string) error {
	fullKey := aliasKeyPrefix + key

	pipe := c.client.Pipeline()
	pipe.Del(ctx, fullKey)
	pipe.Del(ctx, fullKey+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete alias from cache: %w", err)
	}

	return nil
}

// IsAliasNegativelyCached checks whether a key is known to have no alias.
func (c *Cache) IsAliasNegativelyCached(ctx context.Context, key string) (bool, error) {
	exists, err := c.client.Exists(ctx, aliasKeyPrefix+key+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetAliasNegativeCache marks a key as having no alias.
func (c *Cache) SetAliasNegativeCache(ctx context.Context, key string) error {
	err := c.client.SetEx(ctx, aliasKeyPrefix+key+negCacheKeySuffix, "", NegativeAliasTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}

// GetRules retrieves the cached active rule list.
// Returns ErrCacheMiss if not cached.
func (c *Cache) GetRules(ctx context.Context) ([]model.RoutingRule, error) {
	data, err := c.client.Get(ctx, rulesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rules []model.RoutingRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode cached rules: %w", err)
	}

	return rules, nil
}

// SetRules caches the active rule list.
func (c *Cache) SetRules(ctx context.Context, rules []model.RoutingRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	if err := c.client.Set(ctx, rulesKey, data, RulesTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache rules: %w", err)
	}

	return nil
}

// InvalidateRules drops the cached rule list after a mutation.
func (c *Cache) InvalidateRules(ctx context.Context) error {
	if err := c.client.Del(ctx, rulesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rules: %w", err)
	}
	return nil
}
