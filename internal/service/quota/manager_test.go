package quota

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockQuotaRepo struct {
	GetFunc    func(ctx context.Context, actorID uuid.UUID) (*domain.Quota, error)
	CreateFunc func(ctx context.Context, q domain.Quota) (bool, error)
	PutFunc    func(ctx context.Context, q domain.Quota) error
}

func (m *mockQuotaRepo) Get(ctx context.Context, actorID uuid.UUID) (*domain.Quota, error) {
	return m.GetFunc(ctx, actorID)
}

func (m *mockQuotaRepo) Create(ctx context.Context, q domain.Quota) (bool, error) {
	return m.CreateFunc(ctx, q)
}

func (m *mockQuotaRepo) Put(ctx context.Context, q domain.Quota) error {
	return m.PutFunc(ctx, q)
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

// memRepo wires mockQuotaRepo to a map so state survives across calls.
type memRepo struct {
	*mockQuotaRepo
	rows map[uuid.UUID]domain.Quota
	puts int
}

func newMemRepo() *memRepo {
	r := &memRepo{rows: make(map[uuid.UUID]domain.Quota)}
	r.mockQuotaRepo = &mockQuotaRepo{
		GetFunc: func(_ context.Context, id uuid.UUID) (*domain.Quota, error) {
			q, ok := r.rows[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return &q, nil
		},
		CreateFunc: func(_ context.Context, q domain.Quota) (bool, error) {
			if _, ok := r.rows[q.ActorID]; ok {
				return false, nil
			}
			r.rows[q.ActorID] = q
			return true, nil
		},
		PutFunc: func(_ context.Context, q domain.Quota) error {
			r.puts++
			r.rows[q.ActorID] = q
			return nil
		},
	}
	return r
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var tokyo = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
	return loc
}()

func testConfig() Config {
	return Config{MaxBalance: 1000, DailyRefill: 1000, RefillHour: 4, Location: tokyo}
}

func newTestManager(repo quotaRepo, clock clockwork.Clock, cfg Config) *Manager {
	return NewManager(slog.Default(), repo, &mockTxManager{}, clock, cfg, nil)
}

func jst(y int, mo time.Month, d, h, mi int) time.Time {
	return time.Date(y, mo, d, h, mi, 0, 0, tokyo)
}

// ---------------------------------------------------------------------------
// Refill (pure)
// ---------------------------------------------------------------------------

func TestManager_Refill(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxBalance: 1000, DailyRefill: 300, RefillHour: 4, Location: tokyo}
	m := newTestManager(newMemRepo(), clockwork.NewFakeClock(), cfg)
	now := jst(2024, 5, 10, 12, 0)

	tests := []struct {
		name        string
		balance     int
		last        time.Time
		wantBalance int
		wantChanged bool
	}{
		{"same window", 10, jst(2024, 5, 10, 4, 0), 10, false},
		{"one day", 10, jst(2024, 5, 9, 4, 0), 310, true},
		{"three days", 0, jst(2024, 5, 7, 4, 0), 900, true},
		{"capped", 500, jst(2024, 5, 1, 4, 0), 1000, true},
		{"malformed timestamp re-anchored without tokens", 10, time.Time{}, 10, true},
		{"future timestamp re-anchored without tokens", 10, jst(2024, 5, 12, 4, 0), 10, true},
		{"non-boundary timestamp uses its date", 10, jst(2024, 5, 9, 23, 0), 310, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := domain.Quota{ActorID: uuid.New(), Balance: tt.balance, LastRefill: tt.last}

			got, changed := m.Refill(q, now)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantBalance, got.Balance)
			if changed {
				assert.True(t, got.LastRefill.Equal(jst(2024, 5, 10, 4, 0)), "LastRefill = %v", got.LastRefill)
			}
		})
	}
}

func TestManager_Refill_Formula(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxBalance: 1000, DailyRefill: 70, RefillHour: 4, Location: tokyo}
	m := newTestManager(newMemRepo(), clockwork.NewFakeClock(), cfg)
	now := jst(2024, 5, 20, 5, 0)

	for d := 0; d <= 20; d++ {
		for _, b := range []int{0, 1, 500, 999, 1000} {
			last := CurrentBoundary(now, tokyo, 4).AddDate(0, 0, -d)
			got, _ := m.Refill(domain.Quota{Balance: b, LastRefill: last}, now)
			want := b
			if d > 0 {
				want = min(1000, b+d*70)
			}
			require.Equal(t, want, got.Balance, "d=%d b=%d", d, b)
		}
	}
}

// ---------------------------------------------------------------------------
// Ensure
// ---------------------------------------------------------------------------

func TestManager_Ensure_CreatesFullQuota(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	clock := clockwork.NewFakeClockAt(jst(2024, 5, 10, 3, 59))
	m := newTestManager(repo, clock, testConfig())
	actorID := uuid.New()

	balance, err := m.Ensure(context.Background(), actorID)

	require.NoError(t, err)
	assert.Equal(t, 1000, balance)
	require.Contains(t, repo.rows, actorID)
	assert.True(t, repo.rows[actorID].LastRefill.Equal(jst(2024, 5, 9, 4, 0)))
	assert.Zero(t, repo.puts, "creation should not need an extra put")
}

func TestManager_Ensure_RefillAtBoundary(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 0, LastRefill: jst(2024, 5, 9, 4, 0)}

	clock := clockwork.NewFakeClockAt(jst(2024, 5, 10, 3, 59))
	m := newTestManager(repo, clock, testConfig())

	balance, err := m.Ensure(context.Background(), actorID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "03:59 is still the previous window")

	clock.Advance(time.Minute)

	balance, err = m.Ensure(context.Background(), actorID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance, "04:00 crosses the boundary")
	assert.Equal(t, 1, repo.puts)
}

func TestManager_Ensure_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 5, LastRefill: jst(2024, 5, 7, 4, 0)}

	cfg := Config{MaxBalance: 1000, DailyRefill: 100, RefillHour: 4, Location: tokyo}
	clock := clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0))
	m := newTestManager(repo, clock, cfg)

	first, err := m.Ensure(context.Background(), actorID)
	require.NoError(t, err)
	assert.Equal(t, 305, first)

	clock.Advance(10 * time.Hour)
	second, err := m.Ensure(context.Background(), actorID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.puts, "second call within the window must not write")
}

func TestManager_Ensure_MalformedTimestamp(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 42}

	m := newTestManager(repo, clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0)), testConfig())

	balance, err := m.Ensure(context.Background(), actorID)

	require.NoError(t, err)
	assert.Equal(t, 42, balance, "no tokens for the broken window")
	assert.Equal(t, 1, repo.puts)
	assert.True(t, repo.rows[actorID].LastRefill.Equal(jst(2024, 5, 10, 4, 0)),
		"stored last refill = %v", repo.rows[actorID].LastRefill)
}

func TestManager_MalformedTimestamp_RefillsNextDay(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 5}

	cfg := Config{MaxBalance: 10, DailyRefill: 3, RefillHour: 4, Location: tokyo}
	clock := clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0))
	m := newTestManager(repo, clock, cfg)
	ctx := context.Background()

	_, err := m.Ensure(ctx, actorID)
	require.NoError(t, err)
	balance, err := m.Consume(ctx, actorID, 5)
	require.NoError(t, err)
	require.Zero(t, balance)
	require.False(t, repo.rows[actorID].LastRefill.IsZero(), "consume must not write a zero timestamp")

	for day, want := range []int{3, 6, 9} {
		clock.Advance(24 * time.Hour)
		balance, err = m.Ensure(ctx, actorID)
		require.NoError(t, err)
		assert.Equal(t, want, balance, "day +%d", day+1)
	}
	assert.True(t, repo.rows[actorID].LastRefill.Equal(jst(2024, 5, 13, 4, 0)))
}

func TestManager_Ensure_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	existing := domain.Quota{ActorID: actorID, Balance: 7, LastRefill: jst(2024, 5, 10, 4, 0)}

	gets := 0
	repo := &mockQuotaRepo{
		GetFunc: func(context.Context, uuid.UUID) (*domain.Quota, error) {
			gets++
			if gets == 1 {
				return nil, domain.ErrNotFound
			}
			q := existing
			return &q, nil
		},
		CreateFunc: func(context.Context, domain.Quota) (bool, error) { return false, nil },
		PutFunc:    func(context.Context, domain.Quota) error { return nil },
	}

	m := newTestManager(repo, clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0)), testConfig())

	balance, err := m.Ensure(context.Background(), actorID)

	require.NoError(t, err)
	assert.Equal(t, 7, balance)
	assert.Equal(t, 2, gets)
}

func TestManager_Ensure_StorageError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection refused")
	repo := &mockQuotaRepo{
		GetFunc: func(context.Context, uuid.UUID) (*domain.Quota, error) { return nil, dbErr },
	}

	m := newTestManager(repo, clockwork.NewFakeClock(), testConfig())

	_, err := m.Ensure(context.Background(), uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

// ---------------------------------------------------------------------------
// Consume
// ---------------------------------------------------------------------------

func TestManager_Consume(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 5, LastRefill: jst(2024, 5, 10, 4, 0)}

	m := newTestManager(repo, clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0)), testConfig())

	balance, err := m.Consume(context.Background(), actorID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	balance, err = m.Consume(context.Background(), actorID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "balance never goes negative")

	puts := repo.puts
	balance, err = m.Consume(context.Background(), actorID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
	assert.Equal(t, puts, repo.puts, "zero consume is a no-op")
}

func TestManager_Consume_RunsInTransaction(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 5, LastRefill: jst(2024, 5, 10, 4, 0)}

	txCalls := 0
	tx := &mockTxManager{RunInTxFunc: func(ctx context.Context, fn func(context.Context) error) error {
		txCalls++
		return fn(ctx)
	}}
	m := NewManager(slog.Default(), repo, tx, clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0)), testConfig(), nil)

	_, err := m.Consume(context.Background(), actorID, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, txCalls)
}

func TestManager_Peek(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	actorID := uuid.New()
	repo.rows[actorID] = domain.Quota{ActorID: actorID, Balance: 0, LastRefill: jst(2024, 5, 9, 4, 0)}

	txCalls := 0
	tx := &mockTxManager{RunInTxFunc: func(ctx context.Context, fn func(context.Context) error) error {
		txCalls++
		return fn(ctx)
	}}
	m := NewManager(slog.Default(), repo, tx, clockwork.NewFakeClockAt(jst(2024, 5, 10, 8, 0)), testConfig(), nil)

	balance, err := m.Peek(context.Background(), actorID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance, "pending refill is reported")

	missing, err := m.Peek(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1000, missing)

	assert.Zero(t, txCalls)
	assert.Zero(t, repo.puts)
	assert.Len(t, repo.rows, 1, "peek never creates a quota")
	assert.Equal(t, 0, repo.rows[actorID].Balance)
}

func TestManager_NextRefill(t *testing.T) {
	t.Parallel()

	m := newTestManager(newMemRepo(), clockwork.NewFakeClockAt(jst(2024, 5, 10, 3, 0)), testConfig())

	assert.True(t, m.NextRefill().Equal(jst(2024, 5, 10, 4, 0)))
}
