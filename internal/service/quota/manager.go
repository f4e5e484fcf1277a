// Package quota meters how many new recipes an actor may add per day.
//
// Every actor holds a token balance that is refilled once per day at a fixed
// wall-clock hour in a fixed timezone. Missed days are caught up on the next
// access, capped at the maximum balance.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/metrics"
)

type quotaRepo interface {
	// Get returns the quota row locked for the rest of the transaction.
	Get(ctx context.Context, actorID uuid.UUID) (*domain.Quota, error)
	Create(ctx context.Context, q domain.Quota) (bool, error)
	Put(ctx context.Context, q domain.Quota) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds the refill parameters.
type Config struct {
	MaxBalance  int
	DailyRefill int
	RefillHour  int
	Location    *time.Location
}

// Manager owns the read-modify-write cycle of actor quotas. All mutations
// run in a transaction holding the actor's quota row lock.
type Manager struct {
	log     *slog.Logger
	repo    quotaRepo
	tx      txManager
	clock   clockwork.Clock
	cfg     Config
	metrics *metrics.Metrics
}

// NewManager creates a Manager. m may be nil.
func NewManager(logger *slog.Logger, repo quotaRepo, tx txManager, clock clockwork.Clock, cfg Config, m *metrics.Metrics) *Manager {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Manager{
		log:     logger.With("service", "quota"),
		repo:    repo,
		tx:      tx,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
	}
}

// Ensure loads the actor's quota, creating it at MaxBalance on first access,
// applies any pending refill and returns the resulting balance.
func (m *Manager) Ensure(ctx context.Context, actorID uuid.UUID) (int, error) {
	var balance int
	err := m.tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := m.refreshed(ctx, actorID)
		if err != nil {
			return err
		}
		balance = q.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ensure quota %s: %w", actorID, err)
	}
	return balance, nil
}

// Peek returns the balance Ensure would report, without a transaction and
// without writing. A missing quota reads as MaxBalance.
func (m *Manager) Peek(ctx context.Context, actorID uuid.UUID) (int, error) {
	q, err := m.repo.Get(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return m.cfg.MaxBalance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("peek quota %s: %w", actorID, err)
	}

	refilled, _ := m.Refill(*q, m.clock.Now())
	return refilled.Balance, nil
}

// Consume subtracts n tokens, never going below zero, and returns the new
// balance. A non-positive n only refreshes the quota.
func (m *Manager) Consume(ctx context.Context, actorID uuid.UUID, n int) (int, error) {
	var balance int
	err := m.tx.RunInTx(ctx, func(ctx context.Context) error {
		q, err := m.refreshed(ctx, actorID)
		if err != nil {
			return err
		}
		if n <= 0 {
			balance = q.Balance
			return nil
		}

		q.Balance = max(q.Balance-n, 0)
		if err := m.repo.Put(ctx, *q); err != nil {
			return fmt.Errorf("put quota: %w", err)
		}
		balance = q.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("consume quota %s: %w", actorID, err)
	}

	m.log.DebugContext(ctx, "quota consumed",
		slog.String("actor_id", actorID.String()),
		slog.Int("consumed", n),
		slog.Int("balance", balance),
	)
	return balance, nil
}

// CurrentBoundary returns the most recent refill boundary at or before now.
func (m *Manager) CurrentBoundary(now time.Time) time.Time {
	return CurrentBoundary(now, m.cfg.Location, m.cfg.RefillHour)
}

// NextBoundary returns the next refill boundary after now.
func (m *Manager) NextBoundary(now time.Time) time.Time {
	return NextBoundary(now, m.cfg.Location, m.cfg.RefillHour)
}

// NextRefill returns the next refill boundary after the current time.
func (m *Manager) NextRefill() time.Time {
	return m.NextBoundary(m.clock.Now())
}

// Refill applies the boundary-anchored catch-up to q as of now and reports
// whether anything changed. It does not touch storage.
//
// A zero LastRefill (unparseable stored value) and a LastRefill later than
// the current boundary are re-anchored to the current boundary without
// adding tokens, so the next window refills normally.
func (m *Manager) Refill(q domain.Quota, now time.Time) (domain.Quota, bool) {
	current := m.CurrentBoundary(now)

	if q.LastRefill.IsZero() || q.LastRefill.After(current) {
		q.LastRefill = current
		return q, true
	}

	days := DaysBetween(q.LastRefill, current, m.cfg.Location)
	if days <= 0 {
		return q, false
	}

	q.Balance = min(m.cfg.MaxBalance, q.Balance+days*m.cfg.DailyRefill)
	q.LastRefill = current
	return q, true
}

// refreshed returns the locked, refilled quota row, creating it if missing.
// Must run inside a transaction.
func (m *Manager) refreshed(ctx context.Context, actorID uuid.UUID) (*domain.Quota, error) {
	now := m.clock.Now()

	q, err := m.repo.Get(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		q, err = m.create(ctx, actorID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("get quota: %w", err)
	}

	refilled, changed := m.Refill(*q, now)
	if !changed {
		return q, nil
	}

	if err := m.repo.Put(ctx, refilled); err != nil {
		return nil, fmt.Errorf("put quota: %w", err)
	}

	if refilled.Balance == q.Balance {
		m.log.WarnContext(ctx, "quota refill anchor reset",
			slog.String("actor_id", actorID.String()),
			slog.Time("stored", q.LastRefill),
			slog.Time("boundary", refilled.LastRefill),
		)
		return &refilled, nil
	}

	m.metrics.QuotaRefilled()
	m.log.InfoContext(ctx, "quota refilled",
		slog.String("actor_id", actorID.String()),
		slog.Int("before", q.Balance),
		slog.Int("after", refilled.Balance),
		slog.Time("boundary", refilled.LastRefill),
	)
	return &refilled, nil
}

// create inserts a full quota anchored at the current boundary. A concurrent
// insert by another transaction is resolved by re-reading the row.
func (m *Manager) create(ctx context.Context, actorID uuid.UUID, now time.Time) (*domain.Quota, error) {
	q := domain.Quota{
		ActorID:    actorID,
		Balance:    m.cfg.MaxBalance,
		LastRefill: m.CurrentBoundary(now),
	}

	inserted, err := m.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quota: %w", err)
	}
	if inserted {
		m.log.InfoContext(ctx, "quota created",
			slog.String("actor_id", actorID.String()),
			slog.Int("balance", q.Balance),
		)
		return &q, nil
	}

	return m.repo.Get(ctx, actorID)
}
