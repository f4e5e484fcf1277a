package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// IngestByID adds a single recipe, scraped from its public page, to the
// actor's stock for one token.
//
// An already owned recipe is a successful no-op. With an empty balance
// domain.ErrQuotaExhausted is returned before any upstream request.
func (s *Service) IngestByID(ctx context.Context, actorID uuid.UUID, recipeID string) (*Result, error) {
	rid := strings.TrimSpace(recipeID)
	if !domain.IsDigits(rid) {
		return nil, domain.NewValidationError("recipe_id", "must be digits only")
	}

	ctx, log := s.startRun(ctx, domain.RunKindRecipe, actorID)

	res, done, err := s.precheck(ctx, actorID, rid)
	if err != nil || done {
		return res, err
	}

	page, err := s.fetcher.FetchRecipePage(ctx, rid)
	if err != nil {
		log.WarnContext(ctx, "recipe page fetch failed", slog.String("recipe_id", rid), slog.String("error", err.Error()))
		return nil, fmt.Errorf("ingest recipe %s: %w", rid, err)
	}
	if page == nil {
		return nil, fmt.Errorf("ingest recipe %s: %w", rid, ErrRecipeNotFound)
	}

	rec := fromPage(page, rid)

	var balance int
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Ownership and quota may have changed while the page was fetched.
		owned, err := s.recipes.IsOwned(ctx, actorID, rid)
		if err != nil {
			return fmt.Errorf("check ownership: %w", err)
		}
		balance, err = s.quota.Ensure(ctx, actorID)
		if err != nil {
			return err
		}
		if owned {
			return errAlreadyOwned
		}
		if balance <= 0 {
			return domain.ErrQuotaExhausted
		}

		if err := s.recipes.Upsert(ctx, &rec); err != nil {
			return err
		}
		if err := s.recipes.AddOwnership(ctx, actorID, rid, s.clock.Now().UTC()); err != nil {
			return err
		}
		balance, err = s.quota.Consume(ctx, actorID, 1)
		if err != nil {
			return err
		}
		return s.record(ctx, domain.RunKindRecipe, actorID, rid, Result{Fetched: 1, Added: 1})
	})

	switch {
	case errors.Is(err, errAlreadyOwned):
		return s.alreadyOwned(rid, balance), nil
	case errors.Is(err, domain.ErrQuotaExhausted):
		s.metrics.QuotaExhausted()
		return nil, fmt.Errorf("ingest recipe %s: %w", rid, domain.ErrQuotaExhausted)
	case err != nil:
		return nil, fmt.Errorf("ingest recipe %s: %w", rid, err)
	}

	s.metrics.Ingested("recipe", "added", 1)
	log.InfoContext(ctx, "recipe ingested", slog.String("recipe_id", rid), slog.Int("balance", balance))

	return &Result{
		RecipeID:   rid,
		Fetched:    1,
		Added:      1,
		Balance:    balance,
		NextRefill: s.quota.NextRefill(),
	}, nil
}

// precheck resolves the cheap outcomes before any upstream request. done is
// true when res (or err) is final. An owned recipe only reads the balance.
func (s *Service) precheck(ctx context.Context, actorID uuid.UUID, rid string) (res *Result, done bool, err error) {
	owned, err := s.recipes.IsOwned(ctx, actorID, rid)
	if err != nil {
		return nil, true, fmt.Errorf("ingest recipe %s: check ownership: %w", rid, err)
	}

	if owned {
		balance, err := s.quota.Peek(ctx, actorID)
		if err != nil {
			return nil, true, fmt.Errorf("ingest recipe %s: %w", rid, err)
		}
		return s.alreadyOwned(rid, balance), true, nil
	}

	balance, err := s.quota.Ensure(ctx, actorID)
	if err != nil {
		return nil, true, fmt.Errorf("ingest recipe %s: %w", rid, err)
	}
	if balance <= 0 {
		s.metrics.QuotaExhausted()
		return nil, true, fmt.Errorf("ingest recipe %s: %w", rid, domain.ErrQuotaExhausted)
	}
	return nil, false, nil
}

func (s *Service) alreadyOwned(rid string, balance int) *Result {
	s.metrics.Ingested("recipe", "skipped", 1)
	return &Result{
		RecipeID:     rid,
		Skipped:      1,
		AlreadyOwned: true,
		Balance:      balance,
		NextRefill:   s.quota.NextRefill(),
	}
}
