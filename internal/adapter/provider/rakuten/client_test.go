package rakuten

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/heartmarshall/recipe-stock/internal/config"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient points every endpoint at srv and disables sleeping and rate
// limiting so retry tests run fast.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.RakutenConfig{
		AppID:           "test-app",
		CategoryListURL: srv.URL + "/CategoryList/20170426",
		RankingURL:      srv.URL + "/CategoryRanking/20170426",
		RecipePageURL:   srv.URL + "/recipe",
		UserAgent:       "Mozilla/5.0",
		Timeout:         2 * time.Second,
		MaxRetries:      3,
		SleepBase:       time.Millisecond,
		JitterMax:       0,
	}, nil, newTestLogger())
}

const rankingBody = `{"result":[
	{"recipeId":1760028221,"recipeTitle":"簡単カレー","recipeDescription":"おいしい","recipeMaterial":["豚肉","玉ねぎ"],
	 "recipeIndication":"約30分","recipeCost":"300円前後","rank":"1","pickup":1,"shop":0,
	 "foodImageUrl":"https://img.example/food.jpg","recipeUrl":"https://recipe.example/1760028221/",
	 "recipePublishday":"2017/10/10 22:37:34","nickname":"cook"},
	{"recipeId":"1234","recipeTitle":"肉じゃが","mediumImageUrl":"https://img.example/m.jpg"}
]}`

func TestClient_FetchCategoryRanking_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/CategoryRanking/20170426" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("applicationId") != "test-app" || q.Get("categoryId") != "10-275" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rankingBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "10-275")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	first := items[0]
	if first.RecipeID != "1760028221" {
		t.Errorf("RecipeID = %q, want numeric id rendered as string", first.RecipeID)
	}
	if len(first.RecipeMaterial) != 2 || first.RecipeMaterial[0] != "豚肉" {
		t.Errorf("RecipeMaterial = %v", first.RecipeMaterial)
	}
	if first.Pickup != 1 {
		t.Errorf("Pickup = %d, want 1", first.Pickup)
	}
	if items[1].RecipeID != "1234" || items[1].MediumImageURL != "https://img.example/m.jpg" {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestClient_FetchCategoryRanking_DropsBadItems(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"result":[
			{"recipeId":1,"recipeTitle":"カレー","recipeMaterial":["豚肉",3,null,{"x":1}]},
			{"recipeId":2,"pickup":true,"shop":false},
			"junk",
			{"recipeId":3,"recipeTitle":{"ja":"nested"}},
			{"recipeId":4}
		]}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	var ids []string
	for _, it := range items {
		ids = append(ids, it.RecipeID.String())
	}
	if len(ids) != 3 || ids[0] != "1" || ids[1] != "2" || ids[2] != "4" {
		t.Fatalf("ids = %v, want [1 2 4]", ids)
	}
	if m := items[0].RecipeMaterial; len(m) != 2 || m[0] != "豚肉" || m[1] != "3" {
		t.Errorf("RecipeMaterial = %v, want [豚肉 3]", m)
	}
	if items[1].Pickup != 1 || items[1].Shop != 0 {
		t.Errorf("Pickup, Shop = %d, %d, want 1, 0", items[1].Pickup, items[1].Shop)
	}
}

func TestClient_FetchCategoryList_Success(t *testing.T) {
	t.Parallel()

	body := `{"result":{
		"large":[{"categoryId":"10","categoryName":"肉","categoryUrl":"https://x/10/"}],
		"medium":[{"categoryId":275,"categoryName":"牛肉","parentCategoryId":"10"}],
		"small":[{"categoryId":516,"categoryName":"ステーキ","parentCategoryId":"275"}]
	}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/CategoryList/20170426" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	tree, err := newTestClient(srv).FetchCategoryList(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Large) != 1 || len(tree.Medium) != 1 || len(tree.Small) != 1 {
		t.Fatalf("tree sizes = %d/%d/%d", len(tree.Large), len(tree.Medium), len(tree.Small))
	}
	if tree.Medium[0].CategoryID != "275" || tree.Medium[0].ParentCategoryID != "10" {
		t.Errorf("medium = %+v", tree.Medium[0])
	}
}

func TestClient_AlwaysUnavailable_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "30")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("error should wrap ErrUpstreamUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClient_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Write([]byte(rankingBody))
		}
	}))
	defer srv.Close()

	items, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClient_ErrorFieldIsRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"error":"wrong_parameter","error_description":"specify valid applicationId"}`))
			return
		}
		w.Write([]byte(rankingBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestClient_PersistentErrorField(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"error":"not_found","error_description":"not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCategoryList(context.Background())
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Code != "not_found" {
		t.Errorf("expected wrapped api error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchCategoryRanking(context.Background(), "30")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if !errors.Is(err, domain.ErrUpstreamMalformed) {
		t.Errorf("expected ErrUpstreamMalformed, got %v", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(srv)
	srv.Close()

	_, err := client.FetchCategoryRanking(context.Background(), "30")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).FetchCategoryRanking(ctx, "30")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Error("cancellation should not be reported as upstream unavailable")
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}
