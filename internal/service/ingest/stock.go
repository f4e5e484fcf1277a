package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// StockStats counts the work done by BuildStock.
type StockStats struct {
	RequestedCategories int
	FetchedItems        int
	Deduped             int
}

// Stock is a deduplicated recipe collection gathered across categories.
type Stock struct {
	TargetCount int
	GeneratedAt time.Time
	Stats       StockStats
	Recipes     []domain.Recipe
}

// BuildStock collects up to target recipes from the rankings of categoryIDs,
// visited in random order and deduplicated by recipe id. A category whose
// ranking cannot be fetched is counted and skipped. It does not touch quota
// or storage.
func (s *Service) BuildStock(ctx context.Context, categoryIDs []string, target int) (*Stock, error) {
	if target <= 0 {
		return nil, domain.NewValidationError("target", "must be > 0")
	}

	cids := make([]string, 0, len(categoryIDs))
	for _, c := range categoryIDs {
		c = strings.TrimSpace(c)
		if !domain.IsCategoryID(c) {
			return nil, domain.NewValidationError("category_id", "invalid: "+c)
		}
		cids = append(cids, c)
	}
	s.shuffle(cids)

	stock := &Stock{TargetCount: target, Recipes: make([]domain.Recipe, 0, target)}
	seen := make(map[string]struct{}, target)

	for i, cid := range cids {
		if len(stock.Recipes) >= target {
			break
		}
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}

		items, err := s.fetcher.FetchCategoryRanking(ctx, cid)
		stock.Stats.RequestedCategories++
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WarnContext(ctx, "stock: ranking fetch failed",
				slog.String("category_id", cid), slog.String("error", err.Error()))
			continue
		}

		stock.Stats.FetchedItems += len(items)
		for _, item := range items {
			r, ok := fromRankingItem(item, cid)
			if !ok {
				continue
			}
			if _, dup := seen[r.ID]; dup {
				stock.Stats.Deduped++
				continue
			}
			seen[r.ID] = struct{}{}
			stock.Recipes = append(stock.Recipes, r)
			if len(stock.Recipes) >= target {
				break
			}
		}
	}

	stock.GeneratedAt = s.clock.Now().UTC()

	s.log.InfoContext(ctx, "stock built",
		slog.Int("target", target),
		slog.Int("actual", len(stock.Recipes)),
		slog.Int("requested_categories", stock.Stats.RequestedCategories),
		slog.Int("fetched_items", stock.Stats.FetchedItems),
		slog.Int("deduped", stock.Stats.Deduped),
	)
	return stock, nil
}

func (s *Service) pause(ctx context.Context) error {
	if s.stockPause <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.stockPause):
		return nil
	}
}
