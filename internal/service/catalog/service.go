// Package catalog flattens the upstream category tree and suggests
// categories for free-text queries.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/provider"
)

const (
	cacheKey     = "categories"
	defaultLimit = 8
	maxLimit     = 50
)

type categoryFetcher interface {
	FetchCategoryList(ctx context.Context) (*provider.CategoryTree, error)
}

// Service serves the flattened category catalog. The catalog is fetched
// lazily and cached for the configured TTL.
type Service struct {
	log          *slog.Logger
	fetcher      categoryFetcher
	cache        *expirable.LRU[string, []domain.CatalogEntry]
	defaultLimit int
}

// NewService creates a catalog Service. A non-positive ttl disables caching.
func NewService(logger *slog.Logger, fetcher categoryFetcher, ttl time.Duration, limit int) *Service {
	s := &Service{
		log:          logger.With("service", "catalog"),
		fetcher:      fetcher,
		defaultLimit: limit,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = defaultLimit
	}
	if ttl > 0 {
		s.cache = expirable.NewLRU[string, []domain.CatalogEntry](1, nil, ttl)
	}
	return s
}

// Entries returns the flattened catalog.
func (s *Service) Entries(ctx context.Context) ([]domain.CatalogEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(cacheKey); ok {
			return entries, nil
		}
	}

	tree, err := s.fetcher.FetchCategoryList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch category list: %w", err)
	}

	entries := Flatten(tree)

	s.log.InfoContext(ctx, "category catalog loaded", slog.Int("entries", len(entries)))

	if s.cache != nil {
		s.cache.Add(cacheKey, entries)
	}
	return entries, nil
}

// Suggest returns categories matching the query. An empty query returns an
// empty result without touching the upstream. Limit is clamped to [1, 50];
// 0 selects the configured default.
func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]domain.ScoredEntry, error) {
	if domain.NormalizeQuery(query) == "" {
		return []domain.ScoredEntry{}, nil
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	return Suggest(entries, query, s.clampLimit(limit)), nil
}

func (s *Service) clampLimit(limit int) int {
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
