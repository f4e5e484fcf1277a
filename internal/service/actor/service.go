// Package actor resolves external identities to actors.
package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

type actorRepo interface {
	GetBySubject(ctx context.Context, subject string) (*domain.Actor, error)
	Create(ctx context.Context, a domain.Actor) (*domain.Actor, error)
}

type quotaEnsurer interface {
	Ensure(ctx context.Context, actorID uuid.UUID) (int, error)
}

// Identity is what the identity exchange reports about a principal.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture *string
}

// Validate checks the identity fields.
func (i Identity) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(i.Subject) == "" {
		errs = append(errs, domain.FieldError{Field: "subject", Message: "required"})
	}
	if len(i.Subject) > 255 {
		errs = append(errs, domain.FieldError{Field: "subject", Message: "too long"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Service maps identities to actors.
type Service struct {
	log    *slog.Logger
	actors actorRepo
	quota  quotaEnsurer
	clock  clockwork.Clock
}

// NewService creates an actor Service.
func NewService(logger *slog.Logger, actors actorRepo, quota quotaEnsurer, clock clockwork.Clock) *Service {
	return &Service{
		log:    logger.With("service", "actor"),
		actors: actors,
		quota:  quota,
		clock:  clock,
	}
}

// Resolve returns the actor for id.Subject, creating it on first sight.
// The actor's quota row is ensured in both cases.
func (s *Service) Resolve(ctx context.Context, id Identity) (*domain.Actor, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	id.Subject = strings.TrimSpace(id.Subject)

	a, err := s.actors.GetBySubject(ctx, id.Subject)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a, err = s.create(ctx, id)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("actor.Resolve get by subject: %w", err)
	}

	if _, err := s.quota.Ensure(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("actor.Resolve ensure quota: %w", err)
	}
	return a, nil
}

func (s *Service) create(ctx context.Context, id Identity) (*domain.Actor, error) {
	a, err := s.actors.Create(ctx, domain.Actor{
		ID:        uuid.New(),
		Subject:   id.Subject,
		Email:     strings.ToLower(strings.TrimSpace(id.Email)),
		Name:      strings.TrimSpace(id.Name),
		Picture:   id.Picture,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err == nil {
		s.log.InfoContext(ctx, "actor created",
			slog.String("actor_id", a.ID.String()),
			slog.String("subject", a.Subject))
		return a, nil
	}

	if !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, fmt.Errorf("actor.Resolve create: %w", err)
	}

	// Race condition: another request created the actor first.
	a, err = s.actors.GetBySubject(ctx, id.Subject)
	if err != nil {
		return nil, fmt.Errorf("actor.Resolve get after conflict: %w", err)
	}
	return a, nil
}
