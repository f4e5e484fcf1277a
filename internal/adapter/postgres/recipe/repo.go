// Package recipe implements the recipe and ownership repository using PostgreSQL.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const (
	sqlIsOwned = `SELECT EXISTS(
    SELECT 1 FROM actor_recipes WHERE actor_id = $1 AND recipe_id = $2
)`

	sqlUpsert = `INSERT INTO recipes (
    id, title, description, materials, cooking_time, cost, rank, pickup,
    image, url, publish_day, nickname, shop, source_category_id, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
ON CONFLICT (id) DO UPDATE SET
    title              = EXCLUDED.title,
    description        = EXCLUDED.description,
    materials          = EXCLUDED.materials,
    cooking_time       = EXCLUDED.cooking_time,
    cost               = EXCLUDED.cost,
    rank               = EXCLUDED.rank,
    pickup             = EXCLUDED.pickup,
    image              = EXCLUDED.image,
    url                = EXCLUDED.url,
    publish_day        = EXCLUDED.publish_day,
    nickname           = EXCLUDED.nickname,
    shop               = EXCLUDED.shop,
    source_category_id = EXCLUDED.source_category_id,
    updated_at         = now()`

	sqlAddOwnership = `INSERT INTO actor_recipes (actor_id, recipe_id, added_at)
VALUES ($1, $2, $3)
ON CONFLICT (actor_id, recipe_id) DO NOTHING`
)

// ownedColumns is the select list shared by ListOwned and GetOwned.
var ownedColumns = []string{
	"r.id", "r.title", "r.description", "r.materials", "r.cooking_time", "r.cost",
	"r.rank", "r.pickup", "r.image", "r.url", "r.publish_day", "r.nickname",
	"r.shop", "r.source_category_id", "ar.added_at",
}

// searchBlob mirrors "title + ' ' + materials joined by spaces", lower-cased.
const searchBlob = `lower(r.title || ' ' || coalesce(
    (SELECT string_agg(m, ' ') FROM jsonb_array_elements_text(r.materials) AS m), ''))`

// builder returns a squirrel statement builder configured for PostgreSQL.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Repo provides recipe and ownership persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new recipe repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// IsOwned reports whether actorID already owns recipeID.
func (r *Repo) IsOwned(ctx context.Context, actorID uuid.UUID, recipeID string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var owned bool
	if err := q.QueryRow(ctx, sqlIsOwned, actorID, recipeID).Scan(&owned); err != nil {
		return false, postgres.MapError(err, "ownership", recipeID)
	}
	return owned, nil
}

// Upsert inserts rec or overwrites the stored row with the same id.
func (r *Repo) Upsert(ctx context.Context, rec *domain.Recipe) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return domain.NewValidationError("id", "required")
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	materials := rec.Materials
	if materials == nil {
		materials = []string{}
	}

	_, err := q.Exec(ctx, sqlUpsert,
		rec.ID, rec.Title, rec.Description, materials, rec.Time, rec.Cost,
		rec.Rank, rec.Pickup, rec.Image, rec.URL, rec.PublishDay, rec.Nickname,
		rec.Shop, rec.SourceCategoryID,
	)
	if err != nil {
		return postgres.MapError(err, "recipe", rec.ID)
	}
	return nil
}

// AddOwnership links actorID to recipeID. Adding an existing pair is a no-op.
func (r *Repo) AddOwnership(ctx context.Context, actorID uuid.UUID, recipeID string, addedAt time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := q.Exec(ctx, sqlAddOwnership, actorID, recipeID, addedAt); err != nil {
		return postgres.MapError(err, "ownership", recipeID)
	}
	return nil
}

// ListOwned returns the actor's recipes, newest first.
func (r *Repo) ListOwned(ctx context.Context, actorID uuid.UUID, filter domain.RecipeFilter) ([]domain.OwnedRecipe, error) {
	filter = normalizeFilter(filter)

	query := builder().
		Select(ownedColumns...).
		From("actor_recipes ar").
		Join("recipes r ON r.id = ar.recipe_id").
		Where(sq.Eq{"ar.actor_id": actorID}).
		OrderBy("ar.added_at DESC", "r.id")

	if filter.Query != "" {
		query = query.Where("strpos("+searchBlob+", ?) > 0", filter.Query)
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list owned query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "actor recipes", actorID)
	}
	defer rows.Close()

	out := make([]domain.OwnedRecipe, 0)
	for rows.Next() {
		rec, err := scanOwned(rows)
		if err != nil {
			return nil, postgres.MapError(err, "actor recipes", actorID)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "actor recipes", actorID)
	}
	return out, nil
}

// GetOwned returns recipeID as owned by actorID, or domain.ErrNotFound when
// the actor does not own it.
func (r *Repo) GetOwned(ctx context.Context, actorID uuid.UUID, recipeID string) (*domain.OwnedRecipe, error) {
	sql, args, err := builder().
		Select(ownedColumns...).
		From("actor_recipes ar").
		Join("recipes r ON r.id = ar.recipe_id").
		Where(sq.Eq{"ar.actor_id": actorID, "ar.recipe_id": recipeID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get owned query: %w", err)
	}

	rec, err := scanOwned(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("recipe %s: %w", recipeID, domain.ErrNotFound)
		}
		return nil, postgres.MapError(err, "recipe", recipeID)
	}
	return &rec, nil
}

func scanOwned(row pgx.Row) (domain.OwnedRecipe, error) {
	var rec domain.OwnedRecipe
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Description, &rec.Materials, &rec.Time, &rec.Cost,
		&rec.Rank, &rec.Pickup, &rec.Image, &rec.URL, &rec.PublishDay, &rec.Nickname,
		&rec.Shop, &rec.SourceCategoryID, &rec.AddedAt,
	)
	if rec.Materials == nil {
		rec.Materials = []string{}
	}
	return rec, err
}
