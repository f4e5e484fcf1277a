package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// IngestFromCategory adds the ranking of categoryID to the actor's stock.
//
// Items are processed in upstream order. Already owned recipes are skipped
// without charge. When the balance reaches zero the loop stops and the
// remaining items are left untouched. The whole batch runs in one
// transaction, so a storage error leaves nothing behind.
func (s *Service) IngestFromCategory(ctx context.Context, actorID uuid.UUID, categoryID string) (*Result, error) {
	cid := strings.TrimSpace(categoryID)
	if cid == "" {
		return nil, domain.NewValidationError("category_id", "required")
	}
	if !domain.IsCategoryID(cid) {
		return nil, domain.NewValidationError("category_id", "must be dash-separated numeric segments")
	}

	ctx, log := s.startRun(ctx, domain.RunKindCategory, actorID)

	items, err := s.fetcher.FetchCategoryRanking(ctx, cid)
	if err != nil {
		log.WarnContext(ctx, "ranking fetch failed", slog.String("category_id", cid), slog.String("error", err.Error()))
		return nil, fmt.Errorf("ingest category %s: %w", cid, err)
	}

	recipes := normalizeRanking(items, cid)

	var (
		added, skipped int
		balance        int
		exhausted      bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		added, skipped, exhausted = 0, 0, false

		var err error
		balance, err = s.quota.Ensure(ctx, actorID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		for i := range recipes {
			r := &recipes[i]

			owned, err := s.recipes.IsOwned(ctx, actorID, r.ID)
			if err != nil {
				return fmt.Errorf("check ownership of %s: %w", r.ID, err)
			}
			if owned {
				skipped++
				continue
			}
			if balance-added <= 0 {
				exhausted = true
				break
			}

			if err := s.recipes.Upsert(ctx, r); err != nil {
				return fmt.Errorf("upsert recipe %s (added %d so far): %w", r.ID, added, err)
			}
			if err := s.recipes.AddOwnership(ctx, actorID, r.ID, now); err != nil {
				return fmt.Errorf("add ownership of %s (added %d so far): %w", r.ID, added, err)
			}
			added++
		}

		if added > 0 {
			balance, err = s.quota.Consume(ctx, actorID, added)
			if err != nil {
				return err
			}
		}
		return s.record(ctx, domain.RunKindCategory, actorID, cid, Result{
			Fetched:        len(recipes),
			Added:          added,
			Skipped:        skipped,
			QuotaExhausted: exhausted,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ingest category %s: %w", cid, err)
	}

	s.metrics.Ingested("category", "added", added)
	s.metrics.Ingested("category", "skipped", skipped)
	if exhausted {
		s.metrics.QuotaExhausted()
	}

	log.InfoContext(ctx, "category ingested",
		slog.String("category_id", cid),
		slog.Int("fetched", len(recipes)),
		slog.Int("added", added),
		slog.Int("skipped", skipped),
		slog.Bool("quota_exhausted", exhausted),
		slog.Int("balance", balance),
	)

	return &Result{
		CategoryID:     cid,
		Fetched:        len(recipes),
		Added:          added,
		Skipped:        skipped,
		QuotaExhausted: exhausted,
		Balance:        balance,
		NextRefill:     s.quota.NextRefill(),
	}, nil
}
