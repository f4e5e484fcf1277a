// Package audit implements the ingestion run journal using PostgreSQL.
// It provides append-only operations for run records.
package audit

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const sqlInsertRun = `INSERT INTO ingest_runs (
    id, actor_id, kind, target, fetched, added, skipped, quota_exhausted, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

var runColumns = []string{
	"id", "actor_id", "kind", "target", "fetched", "added", "skipped", "quota_exhausted", "created_at",
}

// maxListLimit caps ListByActor.
const maxListLimit = 200

// Repo provides run journal persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new audit repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Log appends run. Inside RunInTx it joins the caller's transaction.
func (r *Repo) Log(ctx context.Context, run domain.IngestRun) error {
	if run.ID == "" {
		return domain.NewValidationError("id", "required")
	}
	if !run.Kind.IsValid() {
		return domain.NewValidationError("kind", "invalid: "+run.Kind.String())
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	_, err := q.Exec(ctx, sqlInsertRun,
		run.ID, run.ActorID, string(run.Kind), run.Target,
		run.Fetched, run.Added, run.Skipped, run.QuotaExhausted, run.CreatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "ingest_run", run.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByActor returns the actor's most recent runs, newest first. A limit
// outside [1, 200] is clamped.
func (r *Repo) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.IngestRun, error) {
	limit = min(max(limit, 1), maxListLimit)

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(runColumns...).
		From("ingest_runs").
		Where(sq.Eq{"actor_id": actorID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ingest_runs query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "ingest_runs of actor", actorID)
	}

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, postgres.MapError(err, "ingest_runs of actor", actorID)
	}
	return runs, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanRun(row pgx.CollectableRow) (domain.IngestRun, error) {
	var (
		run  domain.IngestRun
		kind string
	)
	err := row.Scan(
		&run.ID, &run.ActorID, &kind, &run.Target,
		&run.Fetched, &run.Added, &run.Skipped, &run.QuotaExhausted, &run.CreatedAt,
	)
	run.Kind = domain.RunKind(kind)
	return run, err
}
