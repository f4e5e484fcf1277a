// Package quota implements the actor quota repository using PostgreSQL.
package quota

import (
	"context"
	"time"

	"github.com/google/uuid"

	postgres "github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const (
	sqlGet = `SELECT actor_id, balance, last_refill_at
FROM actor_quotas
WHERE actor_id = $1
FOR UPDATE`

	sqlCreate = `INSERT INTO actor_quotas (actor_id, balance, last_refill_at)
VALUES ($1, $2, $3)
ON CONFLICT (actor_id) DO NOTHING`

	sqlPut = `INSERT INTO actor_quotas (actor_id, balance, last_refill_at)
VALUES ($1, $2, $3)
ON CONFLICT (actor_id) DO UPDATE
SET balance = EXCLUDED.balance, last_refill_at = EXCLUDED.last_refill_at`
)

// Repo provides quota persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new quota repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// Get returns the quota of actorID and locks the row until the surrounding
// transaction ends. Returns domain.ErrNotFound if the actor has no quota yet.
//
// last_refill_at is stored as RFC 3339 text. A value that does not parse is
// returned as the zero time.
func (r *Repo) Get(ctx context.Context, actorID uuid.UUID) (*domain.Quota, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var (
		out  domain.Quota
		last string
	)
	err := q.QueryRow(ctx, sqlGet, actorID).Scan(&out.ActorID, &out.Balance, &last)
	if err != nil {
		return nil, postgres.MapError(err, "quota", actorID)
	}

	out.LastRefill = parseRefill(last)
	return &out, nil
}

// Create inserts q unless a row for the actor already exists. It reports
// whether the insert happened.
func (r *Repo) Create(ctx context.Context, q domain.Quota) (bool, error) {
	db := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := db.Exec(ctx, sqlCreate, q.ActorID, q.Balance, formatRefill(q.LastRefill))
	if err != nil {
		return false, postgres.MapError(err, "quota", q.ActorID)
	}
	return tag.RowsAffected() == 1, nil
}

// Put writes q, overwriting any existing row.
func (r *Repo) Put(ctx context.Context, q domain.Quota) error {
	if q.Balance < 0 {
		return domain.NewValidationError("balance", "must be >= 0")
	}
	if q.LastRefill.IsZero() {
		return domain.NewValidationError("last_refill", "required")
	}

	db := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := db.Exec(ctx, sqlPut, q.ActorID, q.Balance, formatRefill(q.LastRefill)); err != nil {
		return postgres.MapError(err, "quota", q.ActorID)
	}
	return nil
}

func formatRefill(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseRefill(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

