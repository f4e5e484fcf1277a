package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Rakuten.AppID == "" {
		return fmt.Errorf("rakuten.app_id is required")
	}

	if err := c.Rakuten.validate(); err != nil {
		return fmt.Errorf("rakuten: %w", err)
	}

	if err := c.Quota.validate(); err != nil {
		return fmt.Errorf("quota: %w", err)
	}

	if c.Catalog.SuggestLimit <= 0 {
		return fmt.Errorf("catalog.suggest_limit must be > 0 (got %d)", c.Catalog.SuggestLimit)
	}

	return nil
}

func (r *RakutenConfig) validate() error {
	if r.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be >= 1 (got %d)", r.MaxRetries)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", r.Timeout)
	}
	if r.SleepBase < 0 || r.JitterMax < 0 {
		return fmt.Errorf("sleep_base and jitter_max must be >= 0")
	}
	if r.RatePerSecond < 0 {
		return fmt.Errorf("rate_per_second must be >= 0 (got %v)", r.RatePerSecond)
	}
	for name, raw := range map[string]string{
		"category_list_url": r.CategoryListURL,
		"ranking_url":       r.RankingURL,
		"recipe_page_url":   r.RecipePageURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
	}
	return nil
}

func (q *QuotaConfig) validate() error {
	if q.MaxBalance <= 0 {
		return fmt.Errorf("max_balance must be > 0 (got %d)", q.MaxBalance)
	}
	if q.DailyRefill <= 0 {
		return fmt.Errorf("daily_refill must be > 0 (got %d)", q.DailyRefill)
	}
	if q.RefillHour < 0 || q.RefillHour > 23 {
		return fmt.Errorf("refill_hour must be in [0, 23] (got %d)", q.RefillHour)
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", q.Timezone, err)
	}
	q.Location = loc

	return nil
}
