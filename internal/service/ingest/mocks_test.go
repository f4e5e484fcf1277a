package ingest

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/provider"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockFetcher struct {
	FetchCategoryRankingFunc func(ctx context.Context, categoryID string) ([]provider.RankingItem, error)
	FetchRecipePageFunc      func(ctx context.Context, recipeID string) (*provider.RecipePage, error)

	mu           sync.Mutex
	rankingCalls []string
	pageCalls    []string
}

func (m *mockFetcher) FetchCategoryRanking(ctx context.Context, categoryID string) ([]provider.RankingItem, error) {
	m.mu.Lock()
	m.rankingCalls = append(m.rankingCalls, categoryID)
	m.mu.Unlock()
	return m.FetchCategoryRankingFunc(ctx, categoryID)
}

func (m *mockFetcher) FetchRecipePage(ctx context.Context, recipeID string) (*provider.RecipePage, error) {
	m.mu.Lock()
	m.pageCalls = append(m.pageCalls, recipeID)
	m.mu.Unlock()
	return m.FetchRecipePageFunc(ctx, recipeID)
}

func (m *mockFetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rankingCalls) + len(m.pageCalls)
}

// ---------------------------------------------------------------------------
// In-memory store with transactional snapshot
// ---------------------------------------------------------------------------

type ownKey struct {
	actor  uuid.UUID
	recipe string
}

// memStore backs recipeRepo, quotaManager and txManager. RunInTx restores
// the pre-transaction state when fn fails.
type memStore struct {
	recipes map[string]domain.Recipe
	owned   map[ownKey]time.Time
	balance map[uuid.UUID]int

	// UpsertErr, when set, is returned by Upsert for the given recipe id.
	UpsertErr map[string]error

	// runs is the journal; LogErr, when set, fails every Log call.
	runs   []domain.IngestRun
	LogErr error

	upserts      int
	ensures      int
	consumed     []int
	historyLimit int
	inTx         bool
}

func newMemStore() *memStore {
	return &memStore{
		recipes:   make(map[string]domain.Recipe),
		owned:     make(map[ownKey]time.Time),
		balance:   make(map[uuid.UUID]int),
		UpsertErr: make(map[string]error),
	}
}

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx {
		return fn(ctx)
	}
	recipes, owned, balance := maps.Clone(s.recipes), maps.Clone(s.owned), maps.Clone(s.balance)
	runs := slices.Clone(s.runs)
	s.inTx = true
	err := fn(ctx)
	s.inTx = false
	if err != nil {
		s.recipes, s.owned, s.balance, s.runs = recipes, owned, balance, runs
	}
	return err
}

func (s *memStore) own(actorID uuid.UUID, recipeID string) {
	s.recipes[recipeID] = domain.Recipe{ID: recipeID, URL: "https://recipe.rakuten.co.jp/recipe/" + recipeID + "/"}
	s.owned[ownKey{actorID, recipeID}] = time.Now()
}

// recipeRepo

func (s *memStore) IsOwned(_ context.Context, actorID uuid.UUID, recipeID string) (bool, error) {
	_, ok := s.owned[ownKey{actorID, recipeID}]
	return ok, nil
}

func (s *memStore) Upsert(_ context.Context, r *domain.Recipe) error {
	if err := s.UpsertErr[r.ID]; err != nil {
		return err
	}
	s.upserts++
	s.recipes[r.ID] = *r
	return nil
}

func (s *memStore) AddOwnership(_ context.Context, actorID uuid.UUID, recipeID string, addedAt time.Time) error {
	k := ownKey{actorID, recipeID}
	if _, ok := s.owned[k]; !ok {
		s.owned[k] = addedAt
	}
	return nil
}

func (s *memStore) ListOwned(_ context.Context, actorID uuid.UUID, filter domain.RecipeFilter) ([]domain.OwnedRecipe, error) {
	var out []domain.OwnedRecipe
	for k, at := range s.owned {
		if k.actor == actorID {
			out = append(out, domain.OwnedRecipe{Recipe: s.recipes[k.recipe], AddedAt: at})
		}
	}
	return out, nil
}

func (s *memStore) GetOwned(_ context.Context, actorID uuid.UUID, recipeID string) (*domain.OwnedRecipe, error) {
	at, ok := s.owned[ownKey{actorID, recipeID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.OwnedRecipe{Recipe: s.recipes[recipeID], AddedAt: at}, nil
}

// quotaManager

func (s *memStore) Ensure(_ context.Context, actorID uuid.UUID) (int, error) {
	s.ensures++
	return s.balance[actorID], nil
}

func (s *memStore) Peek(_ context.Context, actorID uuid.UUID) (int, error) {
	return s.balance[actorID], nil
}

func (s *memStore) Consume(_ context.Context, actorID uuid.UUID, n int) (int, error) {
	s.consumed = append(s.consumed, n)
	s.balance[actorID] = max(s.balance[actorID]-n, 0)
	return s.balance[actorID], nil
}

func (s *memStore) NextRefill() time.Time {
	return time.Date(2024, 5, 11, 4, 0, 0, 0, time.UTC)
}

// runJournal

func (s *memStore) Log(_ context.Context, run domain.IngestRun) error {
	if s.LogErr != nil {
		return s.LogErr
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *memStore) ListByActor(_ context.Context, actorID uuid.UUID, limit int) ([]domain.IngestRun, error) {
	s.historyLimit = limit
	var out []domain.IngestRun
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.runs[i].ActorID == actorID {
			out = append(out, s.runs[i])
		}
	}
	return out, nil
}
