package rakuten

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

// RetryPolicy controls how many times an upstream call is attempted and how
// long to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	SleepBase   time.Duration
	JitterMax   time.Duration
}

// Delay returns the wait after the given 1-based failed attempt:
// SleepBase*attempt plus the supplied jitter.
func (p RetryPolicy) Delay(attempt int, jitter time.Duration) time.Duration {
	return p.SleepBase*time.Duration(attempt) + jitter
}

// transientStatuses are the HTTP statuses the upstream uses for overload and
// temporary failure.
var transientStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsTransientStatus reports whether code is worth retrying.
func IsTransientStatus(code int) bool {
	return transientStatuses[code]
}

// statusError is a non-2xx answer from the upstream.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// apiError is a decoded payload carrying a top-level "error" field.
type apiError struct {
	Code        string
	Description string
}

func (e *apiError) Error() string {
	if e.Description == "" {
		return "api error: " + e.Code
	}
	return fmt.Sprintf("api error: %s: %s", e.Code, e.Description)
}

// permanent marks an attempt error that must not be retried.
type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Retrier runs an upstream operation under a RetryPolicy.
type Retrier struct {
	policy RetryPolicy
	jitter func(max time.Duration) time.Duration
	log    *slog.Logger
}

// NewRetrier creates a Retrier with uniform random jitter in [0, JitterMax).
func NewRetrier(policy RetryPolicy, logger *slog.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{
		policy: policy,
		jitter: uniformJitter,
		log:    logger,
	}
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// Do calls attempt until it succeeds, returns a permanent error, the context
// ends, or the policy runs out of attempts. Exhaustion yields an error
// wrapping domain.ErrUpstreamUnavailable and the last attempt's cause.
func (r *Retrier) Do(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	n := 0
	var lastErr error

	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		n++
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var p *permanent
		if errors.As(err, &p) || ctx.Err() != nil {
			return err
		}

		if n < r.policy.MaxAttempts {
			r.log.WarnContext(ctx, "upstream attempt failed, retrying",
				slog.String("op", op),
				slog.Int("attempt", n),
				slog.String("error", err.Error()),
			)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	var p *permanent
	if errors.As(err, &p) {
		return fmt.Errorf("%s: %w", op, p.err)
	}

	r.log.ErrorContext(ctx, "upstream retries exhausted",
		slog.String("op", op),
		slog.Int("attempts", n),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("%s: after %d attempts: %w", op, n, errors.Join(domain.ErrUpstreamUnavailable, lastErr))
}

// backoff builds a fresh linear-with-jitter schedule; go-retry backoffs keep
// state, so one is needed per Do call.
func (r *Retrier) backoff() retry.Backoff {
	failed := 0
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		failed++
		return r.policy.Delay(failed, r.jitter(r.policy.JitterMax)), false
	})
	return retry.WithMaxRetries(uint64(r.policy.MaxAttempts-1), b)
}
