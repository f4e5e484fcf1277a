// Package ingest pulls recipes from the upstream ranking service into an
// actor's stock, charging one quota token per newly owned recipe.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/ids"
	"github.com/heartmarshall/recipe-stock/internal/metrics"
	"github.com/heartmarshall/recipe-stock/internal/provider"
	"github.com/heartmarshall/recipe-stock/pkg/ctxutil"
)

// ErrRecipeNotFound is returned when a recipe page carries no recipe data.
var ErrRecipeNotFound = fmt.Errorf("recipe not found: %w", domain.ErrNotFound)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type recipeFetcher interface {
	FetchCategoryRanking(ctx context.Context, categoryID string) ([]provider.RankingItem, error)
	FetchRecipePage(ctx context.Context, recipeID string) (*provider.RecipePage, error)
}

type recipeRepo interface {
	IsOwned(ctx context.Context, actorID uuid.UUID, recipeID string) (bool, error)
	Upsert(ctx context.Context, r *domain.Recipe) error
	AddOwnership(ctx context.Context, actorID uuid.UUID, recipeID string, addedAt time.Time) error
	ListOwned(ctx context.Context, actorID uuid.UUID, filter domain.RecipeFilter) ([]domain.OwnedRecipe, error)
	GetOwned(ctx context.Context, actorID uuid.UUID, recipeID string) (*domain.OwnedRecipe, error)
}

type quotaManager interface {
	Ensure(ctx context.Context, actorID uuid.UUID) (int, error)
	Peek(ctx context.Context, actorID uuid.UUID) (int, error)
	Consume(ctx context.Context, actorID uuid.UUID, n int) (int, error)
	NextRefill() time.Time
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type runJournal interface {
	Log(ctx context.Context, run domain.IngestRun) error
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.IngestRun, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service runs ingestion. It is the only component that writes recipes and
// ownership.
type Service struct {
	log     *slog.Logger
	fetcher recipeFetcher
	recipes recipeRepo
	quota   quotaManager
	tx      txManager
	clock   clockwork.Clock
	metrics *metrics.Metrics
	journal runJournal

	// stockPause is waited between ranking requests in BuildStock.
	stockPause time.Duration
	shuffle    func([]string)
}

// NewService creates an ingestion Service. m may be nil.
func NewService(
	logger *slog.Logger,
	fetcher recipeFetcher,
	recipes recipeRepo,
	quota quotaManager,
	tx txManager,
	clock clockwork.Clock,
	m *metrics.Metrics,
	stockPause time.Duration,
) *Service {
	return &Service{
		log:        logger.With("service", "ingest"),
		fetcher:    fetcher,
		recipes:    recipes,
		quota:      quota,
		tx:         tx,
		clock:      clock,
		metrics:    m,
		stockPause: stockPause,
		shuffle: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

// SetJournal injects the optional run journal. Runs that change the stock
// are recorded in the same transaction as the quota charge.
func (s *Service) SetJournal(j runJournal) {
	s.journal = j
}

// Result summarizes one ingestion call.
type Result struct {
	CategoryID string
	RecipeID   string

	// Fetched counts upstream items that carried a recipe id.
	Fetched int
	Added   int
	Skipped int

	// QuotaExhausted is set when the loop stopped because the balance hit 0.
	QuotaExhausted bool
	// AlreadyOwned is set by IngestByID when nothing had to be done.
	AlreadyOwned bool

	Balance    int
	NextRefill time.Time
}

// startRun tags ctx with a fresh run id and returns a logger carrying it.
func (s *Service) startRun(ctx context.Context, kind domain.RunKind, actorID uuid.UUID) (context.Context, *slog.Logger) {
	runID := ctxutil.RunIDFromCtx(ctx)
	if runID == "" {
		runID = ids.At(s.clock.Now())
		ctx = ctxutil.WithRunID(ctx, runID)
	}
	ctx = ctxutil.WithActorID(ctx, actorID)
	return ctx, s.log.With(
		slog.String("run_id", runID),
		slog.String("kind", kind.String()),
		slog.String("actor_id", actorID.String()),
	)
}

// record journals a run inside the caller's transaction. It is a no-op
// without a journal.
func (s *Service) record(ctx context.Context, kind domain.RunKind, actorID uuid.UUID, target string, res Result) error {
	if s.journal == nil {
		return nil
	}
	run := domain.IngestRun{
		ID:             ctxutil.RunIDFromCtx(ctx),
		ActorID:        actorID,
		Kind:           kind,
		Target:         target,
		Fetched:        res.Fetched,
		Added:          res.Added,
		Skipped:        res.Skipped,
		QuotaExhausted: res.QuotaExhausted,
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := s.journal.Log(ctx, run); err != nil {
		return fmt.Errorf("journal run %s: %w", run.ID, err)
	}
	return nil
}

// errAlreadyOwned aborts the write transaction of IngestByID without error.
var errAlreadyOwned = errors.New("already owned")
