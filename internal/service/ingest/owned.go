package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// ListOwned returns the actor's recipes, newest first, optionally filtered
// by a case-insensitive substring of title and materials.
func (s *Service) ListOwned(ctx context.Context, actorID uuid.UUID, query string) ([]domain.OwnedRecipe, error) {
	recipes, err := s.recipes.ListOwned(ctx, actorID, domain.RecipeFilter{Query: strings.TrimSpace(query)})
	if err != nil {
		return nil, fmt.Errorf("list owned recipes: %w", err)
	}
	return recipes, nil
}

// OpenURL returns the stored page URL of an owned recipe.
func (s *Service) OpenURL(ctx context.Context, actorID uuid.UUID, recipeID string) (string, error) {
	rid := strings.TrimSpace(recipeID)
	if rid == "" {
		return "", domain.NewValidationError("recipe_id", "required")
	}

	rec, err := s.recipes.GetOwned(ctx, actorID, rid)
	if err != nil {
		return "", fmt.Errorf("open recipe %s: %w", rid, err)
	}

	if !IsSafeExternalURL(rec.URL) {
		return "", domain.NewValidationError("url", "must be an absolute http(s) URL")
	}
	return rec.URL, nil
}

// IsSafeExternalURL reports whether raw is an absolute http or https URL
// with a host.
func IsSafeExternalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
