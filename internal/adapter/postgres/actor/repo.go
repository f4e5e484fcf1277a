// Package actor implements the actor repository using PostgreSQL.
package actor

import (
	"context"

	postgres "github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const (
	sqlGetBySubject = `SELECT id, subject, email, name, picture, created_at
FROM actors
WHERE subject = $1`

	sqlCreate = `INSERT INTO actors (id, subject, email, name, picture, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, subject, email, name, picture, created_at`
)

// Repo provides actor persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new actor repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// GetBySubject returns the actor with the given external subject id.
func (r *Repo) GetBySubject(ctx context.Context, subject string) (*domain.Actor, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var a domain.Actor
	err := q.QueryRow(ctx, sqlGetBySubject, subject).
		Scan(&a.ID, &a.Subject, &a.Email, &a.Name, &a.Picture, &a.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "actor", subject)
	}
	return &a, nil
}

// Create inserts a and returns the stored row. A duplicate subject yields
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, a domain.Actor) (*domain.Actor, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var out domain.Actor
	err := q.QueryRow(ctx, sqlCreate, a.ID, a.Subject, a.Email, a.Name, a.Picture, a.CreatedAt).
		Scan(&out.ID, &out.Subject, &out.Email, &out.Name, &out.Picture, &out.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "actor", a.Subject)
	}
	return &out, nil
}
