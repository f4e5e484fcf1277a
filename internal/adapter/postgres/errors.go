package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// pgCodeErrors maps PostgreSQL error codes to domain sentinels.
var pgCodeErrors = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation
	"23503": domain.ErrNotFound,      // foreign_key_violation
	"23514": domain.ErrValidation,    // check_violation
}

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// entity and its id ("recipe 123: not found"). Context errors and unknown
// failures keep their original cause.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %v: %w", entity, id, classify(err))
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodeErrors[pgErr.Code]; ok {
			return mapped
		}
	}
	return err
}
