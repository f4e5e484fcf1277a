// Package rakuten talks to the Rakuten Recipe API (category list and
// category ranking) and scrapes public recipe pages.
package rakuten

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/recipe-stock/internal/config"
	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/metrics"
	"github.com/heartmarshall/recipe-stock/internal/provider"
)

const (
	endpointCategoryList = "category_list"
	endpointRanking      = "ranking"
	endpointRecipePage   = "recipe_page"

	maxBodySize = 8 << 20
)

// Client fetches categories, rankings and recipe pages with retries and
// client-side rate limiting.
type Client struct {
	cfg        config.RakutenConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *Retrier
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewClient creates a Client from configuration. m may be nil.
func NewClient(cfg config.RakutenConfig, m *metrics.Metrics, logger *slog.Logger) *Client {
	log := logger.With("adapter", "rakuten")

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		retrier: NewRetrier(RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			SleepBase:   cfg.SleepBase,
			JitterMax:   cfg.JitterMax,
		}, log),
		metrics: m,
		log:     log,
	}
}

// envelope is the common shape of API responses: either a result or an error.
type envelope struct {
	Result           json.RawMessage `json:"result"`
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// FetchCategoryList returns the full category hierarchy.
func (c *Client) FetchCategoryList(ctx context.Context) (*provider.CategoryTree, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("applicationId", c.cfg.AppID)
	reqURL := c.cfg.CategoryListURL + "?" + q.Encode()

	var tree provider.CategoryTree
	if err := c.getJSON(ctx, endpointCategoryList, reqURL, &tree); err != nil {
		return nil, fmt.Errorf("rakuten: fetch category list: %w", err)
	}

	c.log.DebugContext(ctx, "category list fetched",
		slog.Int("large", len(tree.Large)),
		slog.Int("medium", len(tree.Medium)),
		slog.Int("small", len(tree.Small)),
	)

	return &tree, nil
}

// FetchCategoryRanking returns the ranking items of a category, in upstream
// order. Elements that are not objects or do not decode as a ranking item
// are dropped.
func (c *Client) FetchCategoryRanking(ctx context.Context, categoryID string) ([]provider.RankingItem, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("applicationId", c.cfg.AppID)
	q.Set("categoryId", categoryID)
	reqURL := c.cfg.RankingURL + "?" + q.Encode()

	var raw []json.RawMessage
	if err := c.getJSON(ctx, endpointRanking, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("rakuten: fetch ranking %s: %w", categoryID, err)
	}

	items := make([]provider.RankingItem, 0, len(raw))
	for i, el := range raw {
		item, err := decodeRankingItem(el)
		if err != nil {
			c.log.DebugContext(ctx, "ranking item dropped",
				slog.String("category_id", categoryID),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}

	c.log.DebugContext(ctx, "ranking fetched",
		slog.String("category_id", categoryID),
		slog.Int("items", len(items)),
		slog.Int("dropped", len(raw)-len(items)),
	)

	return items, nil
}

func decodeRankingItem(raw json.RawMessage) (provider.RankingItem, error) {
	var item provider.RankingItem
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return item, errors.New("not an object")
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, err
	}
	return item, nil
}

// getJSON performs a retried GET and decodes the "result" member into out.
func (c *Client) getJSON(ctx context.Context, endpoint, reqURL string, out any) error {
	start := time.Now()
	defer func() { c.metrics.UpstreamDuration(endpoint, time.Since(start).Seconds()) }()

	return c.retrier.Do(ctx, endpoint, func(ctx context.Context) error {
		body, status, err := c.get(ctx, reqURL, "application/json")
		if err != nil {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return err
		}
		if status < 200 || status > 299 {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return &statusError{Code: status}
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return fmt.Errorf("%w: decode body: %v", domain.ErrUpstreamMalformed, err)
		}
		if len(env.Error) > 0 && string(env.Error) != "null" {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return &apiError{Code: rawText(env.Error), Description: env.ErrorDescription}
		}
		if len(env.Result) == 0 || string(env.Result) == "null" {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return fmt.Errorf("%w: missing result", domain.ErrUpstreamMalformed)
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			c.metrics.UpstreamAttempt(endpoint, "retry")
			return fmt.Errorf("%w: decode result: %v", domain.ErrUpstreamMalformed, err)
		}

		c.metrics.UpstreamAttempt(endpoint, "ok")
		return nil
	})
}

// get executes one rate-limited GET and returns the body and status.
func (c *Client) get(ctx context.Context, reqURL, accept string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &permanent{err: fmt.Errorf("rate limiter: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, &permanent{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", accept)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if IsTransientStatus(resp.StatusCode) {
		return nil, resp.StatusCode, &statusError{Code: resp.StatusCode}
	}

	return body, resp.StatusCode, nil
}

// rawText renders a raw JSON value as text, unquoting strings.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
