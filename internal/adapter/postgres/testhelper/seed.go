package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedActor inserts an actor with a unique subject.
func SeedActor(t *testing.T, pool *pgxpool.Pool) domain.Actor {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	actor := domain.Actor{
		ID:        uuid.New(),
		Subject:   "sub-" + suffix,
		Email:     "actor-" + suffix + "@example.com",
		Name:      "Test Actor " + suffix,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO actors (id, subject, email, name, picture, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		actor.ID, actor.Subject, actor.Email, actor.Name, actor.Picture, actor.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedActor insert actor: %v", err)
	}

	return actor
}

// SeedRecipe inserts a recipe with the given id and a unique title.
func SeedRecipe(t *testing.T, pool *pgxpool.Pool, id string) domain.Recipe {
	t.Helper()
	ctx := context.Background()

	r := domain.Recipe{
		ID:               id,
		Title:            "Recipe " + uniqueSuffix(),
		Description:      "seeded",
		Materials:        []string{"にんじん", "たまねぎ"},
		Time:             domain.Unspecified,
		Cost:             domain.Unspecified,
		Rank:             "1",
		URL:              "https://recipe.rakuten.co.jp/recipe/" + id + "/",
		PublishDay:       domain.UnknownValue,
		Nickname:         domain.UnknownValue,
		SourceCategoryID: "30",
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO recipes (id, title, description, materials, cooking_time, cost, rank, pickup,
		                      image, url, publish_day, nickname, shop, source_category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.Title, r.Description, r.Materials, r.Time, r.Cost, r.Rank, r.Pickup,
		r.Image, r.URL, r.PublishDay, r.Nickname, r.Shop, r.SourceCategoryID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecipe insert recipe: %v", err)
	}

	return r
}
