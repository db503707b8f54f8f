// Package service composes repositories and caches into the lookups the
// postback engine consumes.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leadrelay/leadrelay/internal/cache"
	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
)

// DirectoryService serves alias and routing-rule lookups with a
// read-through Redis cache in front of Postgres. Cache failures are soft:
// the lookup falls through to the database.
type DirectoryService struct {
	repo   *repository.Repository
	cache  *cache.Cache
	logger *slog.Logger
}

// NewDirectoryService creates a DirectoryService.
func NewDirectoryService(repo *repository.Repository, c *cache.Cache, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		repo:   repo,
		cache:  c,
		logger: logger.With("component", "service.directory"),
	}
}

// FindAlias looks up an alias by key. Returns (nil, nil) when no alias
// exists; that is an expected outcome, not an error.
func (s *DirectoryService) FindAlias(ctx context.Context, key string) (*model.Alias, error) {
	if s.cache != nil {
		if negative, err := s.cache.IsAliasNegativelyCached(ctx, key); err == nil && negative {
			return nil, nil
		}
		alias, err := s.cache.GetAlias(ctx, key)
		if err == nil {
			return alias, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("alias cache read failed", "key", key, "error", err)
		}
	}

	alias, err := s.repo.FindAliasByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			if s.cache != nil {
				if err := s.cache.SetAliasNegativeCache(ctx, key); err != nil {
					s.logger.Warn("alias negative cache write failed", "key", key, "error", err)
				}
			}
			return nil, nil
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAlias(ctx, alias); err != nil {
			s.logger.Warn("alias cache write failed", "key", key, "error", err)
		}
	}

	return alias, nil
}

// ActiveRules returns the active routing rules, cached briefly.
func (s *DirectoryService) ActiveRules(ctx context.Context) ([]model.RoutingRule, error) {
	if s.cache != nil {
		rules, err := s.cache.GetRules(ctx)
		if err == nil {
			return rules, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("rules cache read failed", "error", err)
		}
	}

	rules, err := s.repo.ListActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRules(ctx, rules); err != nil {
			s.logger.Warn("rules cache write failed", "error", err)
		}
	}

	return rules, nil
}

// InvalidateAlias drops an alias from cache after a mutation.
func (s *DirectoryService) InvalidateAlias(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteAlias(ctx, key); err != nil {
		s.logger.Warn("alias cache invalidation failed", "key", key, "error", err)
	}
}

// InvalidateRules drops the cached rule list after a mutation.
func (s *DirectoryService) InvalidateRules(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRules(ctx); err != nil {
		s.logger.Warn("rules cache invalidation failed", "error", err)
	}
}
