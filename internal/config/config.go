package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Rakuten  RakutenConfig  `yaml:"rakuten"`
	Quota    QuotaConfig    `yaml:"quota"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// ServerConfig holds ops HTTP server settings (health and metrics).
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RakutenConfig holds settings for the upstream recipe ranking API and
// the public recipe pages.
type RakutenConfig struct {
	AppID           string        `yaml:"app_id"            env:"RAKUTEN_APP_ID"            env-required:"true"`
	CategoryListURL string        `yaml:"category_list_url" env:"RAKUTEN_CATEGORY_LIST_URL" env-default:"https://app.rakuten.co.jp/services/api/Recipe/CategoryList/20170426"`
	RankingURL      string        `yaml:"ranking_url"       env:"RAKUTEN_RANKING_URL"       env-default:"https://app.rakuten.co.jp/services/api/Recipe/CategoryRanking/20170426"`
	RecipePageURL   string        `yaml:"recipe_page_url"   env:"RAKUTEN_RECIPE_PAGE_URL"   env-default:"https://recipe.rakuten.co.jp/recipe"`
	UserAgent       string        `yaml:"user_agent"        env:"RAKUTEN_USER_AGENT"        env-default:"Mozilla/5.0"`
	Timeout         time.Duration `yaml:"timeout"           env:"RAKUTEN_TIMEOUT"           env-default:"15s"`
	MaxRetries      int           `yaml:"max_retries"       env:"RAKUTEN_MAX_RETRIES"       env-default:"3"`
	SleepBase       time.Duration `yaml:"sleep_base"        env:"RAKUTEN_SLEEP_BASE"        env-default:"600ms"`
	JitterMax       time.Duration `yaml:"jitter_max"        env:"RAKUTEN_JITTER_MAX"        env-default:"300ms"`
	RatePerSecond   float64       `yaml:"rate_per_second"   env:"RAKUTEN_RATE_PER_SECOND"   env-default:"1"`
	Burst           int           `yaml:"burst"             env:"RAKUTEN_BURST"             env-default:"1"`
}

// QuotaConfig holds the daily token quota parameters.
type QuotaConfig struct {
	MaxBalance  int    `yaml:"max_balance"  env:"QUOTA_MAX_BALANCE"  env-default:"1000"`
	DailyRefill int    `yaml:"daily_refill" env:"QUOTA_DAILY_REFILL" env-default:"1000"`
	RefillHour  int    `yaml:"refill_hour"  env:"QUOTA_REFILL_HOUR"  env-default:"4"`
	Timezone    string `yaml:"timezone"     env:"QUOTA_TIMEZONE"     env-default:"Asia/Tokyo"`

	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

// CatalogConfig holds category catalog settings.
type CatalogConfig struct {
	CacheTTL     time.Duration `yaml:"cache_ttl"     env:"CATALOG_CACHE_TTL"     env-default:"6h"`
	SuggestLimit int           `yaml:"suggest_limit" env:"CATALOG_SUGGEST_LIMIT" env-default:"8"`
	StockPause   time.Duration `yaml:"stock_pause"   env:"CATALOG_STOCK_PAUSE"   env-default:"800ms"`
}
