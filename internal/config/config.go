package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port         string `env:"PORT" envDefault:"4000"`
	Season       SeasonConfig
	Scoreboard   ScoreboardConfig
	Live         LiveConfig
	Connectivity ConnectivityConfig
	Offline      OfflineConfig
	Cache        CacheConfig
	Metrics      MetricsConfig
	Log          LogConfig
}

// SeasonConfig identifies the season whose weeks are loaded.
type SeasonConfig struct {
	Year  int `env:"SEASON_YEAR" envDefault:"2025"`
	Type  int `env:"SEASON_TYPE" envDefault:"2"`
	Weeks int `env:"SEASON_WEEKS" envDefault:"18"`

	// LoadRetryMax bounds how long a failed initial load keeps retrying in the background.
	LoadRetryMax time.Duration `env:"SEASON_LOAD_RETRY_MAX" envDefault:"2m"`
}

// ScoreboardConfig controls how we talk to the remote scoreboard API.
type ScoreboardConfig struct {
	URL     string        `env:"SCOREBOARD_URL" envDefault:"https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"`
	Source  string        `env:"SCOREBOARD_SOURCE" envDefault:"espn"`
	Timeout time.Duration `env:"SCOREBOARD_TIMEOUT" envDefault:"10s"`
}

// LiveConfig controls the live refresh loop.
type LiveConfig struct {
	Interval time.Duration `env:"LIVE_INTERVAL" envDefault:"30s"`
}

// ConnectivityConfig controls the online/offline probe.
type ConnectivityConfig struct {
	// ProbeURL defaults to the scoreboard URL when empty.
	ProbeURL string        `env:"CONNECTIVITY_PROBE_URL"`
	Interval time.Duration `env:"CONNECTIVITY_INTERVAL" envDefault:"15s"`
	Timeout  time.Duration `env:"CONNECTIVITY_TIMEOUT" envDefault:"5s"`
}

// OfflineConfig controls the intercepting cache proxy.
type OfflineConfig struct {
	OriginURL    string `env:"ORIGIN_URL" envDefault:"http://localhost:5173"`
	Prefix       string `env:"CACHE_PREFIX" envDefault:"nfl"`
	Version      string `env:"CACHE_VERSION" envDefault:"v2"`
	ManifestPath string `env:"OFFLINE_MANIFEST"`
	SkipWaiting  bool   `env:"OFFLINE_SKIP_WAITING" envDefault:"true"`

	// AdminToken guards the control channel when set.
	AdminToken string `env:"ADMIN_TOKEN"`
}

// CacheConfig selects the persistent bucket backend.
type CacheConfig struct {
	Backend    string `env:"CACHE_BACKEND" envDefault:"fs"`
	Dir        string `env:"CACHE_DIR" envDefault:"data/cache"`
	SQLitePath string `env:"CACHE_SQLITE_PATH" envDefault:"data/cache.db"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.Connectivity.ProbeURL == "" {
		cfg.Connectivity.ProbeURL = cfg.Scoreboard.URL
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Season.Weeks < 1 || c.Season.Weeks > maxSeasonWeeks {
		errs = append(errs, fmt.Errorf("SEASON_WEEKS must be between 1 and %d, got %d", maxSeasonWeeks, c.Season.Weeks))
	}
	if c.Live.Interval <= 0 {
		errs = append(errs, fmt.Errorf("LIVE_INTERVAL must be positive, got %s", c.Live.Interval))
	}
	if c.Connectivity.Interval <= 0 {
		errs = append(errs, fmt.Errorf("CONNECTIVITY_INTERVAL must be positive, got %s", c.Connectivity.Interval))
	}
	if c.Offline.Version == "" {
		errs = append(errs, errors.New("CACHE_VERSION must not be empty"))
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendFS, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend))
	}
	return errors.Join(errs...)
}
