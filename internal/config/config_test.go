package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.Port != "4000" {
		t.Fatalf("expected default port 4000, got %s", cfg.Port)
	}
	if cfg.Season.Year != 2025 || cfg.Season.Type != 2 || cfg.Season.Weeks != 18 {
		t.Fatalf("unexpected season defaults %+v", cfg.Season)
	}
	if cfg.Live.Interval != 30*time.Second {
		t.Fatalf("expected 30s live interval, got %s", cfg.Live.Interval)
	}
	if cfg.Scoreboard.Source != SourceESPN {
		t.Fatalf("expected espn source, got %s", cfg.Scoreboard.Source)
	}
	if cfg.Connectivity.ProbeURL != cfg.Scoreboard.URL {
		t.Fatalf("expected probe url to default to scoreboard url, got %s", cfg.Connectivity.ProbeURL)
	}
	if cfg.Cache.Backend != BackendFS {
		t.Fatalf("expected fs backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Offline.Prefix != "nfl" || cfg.Offline.Version != "v2" || !cfg.Offline.SkipWaiting {
		t.Fatalf("unexpected offline defaults %+v", cfg.Offline)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != "9090" {
		t.Fatalf("unexpected metrics defaults %+v", cfg.Metrics)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("SEASON_YEAR", "2024")
	t.Setenv("LIVE_INTERVAL", "45s")
	t.Setenv("SCOREBOARD_SOURCE", SourceFixture)
	t.Setenv("CACHE_BACKEND", BackendSQLite)
	t.Setenv("CACHE_VERSION", "v3")
	t.Setenv("CONNECTIVITY_PROBE_URL", "http://probe.local/ping")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected overrides to load, got %v", err)
	}

	if cfg.Port != "5000" {
		t.Fatalf("expected port 5000, got %s", cfg.Port)
	}
	if cfg.Season.Year != 2024 {
		t.Fatalf("expected season 2024, got %d", cfg.Season.Year)
	}
	if cfg.Live.Interval != 45*time.Second {
		t.Fatalf("expected live interval 45s, got %s", cfg.Live.Interval)
	}
	if cfg.Scoreboard.Source != SourceFixture {
		t.Fatalf("expected fixture source, got %s", cfg.Scoreboard.Source)
	}
	if cfg.Cache.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Offline.Version != "v3" {
		t.Fatalf("expected cache version v3, got %s", cfg.Offline.Version)
	}
	if cfg.Connectivity.ProbeURL != "http://probe.local/ping" {
		t.Fatalf("expected probe override, got %s", cfg.Connectivity.ProbeURL)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("expected metrics disabled")
	}
}

func TestLoadInvalidDurationFails(t *testing.T) {
	t.Setenv("LIVE_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "weeks_too_high", key: "SEASON_WEEKS", val: "19", want: "SEASON_WEEKS"},
		{name: "weeks_zero", key: "SEASON_WEEKS", val: "0", want: "SEASON_WEEKS"},
		{name: "live_interval_zero", key: "LIVE_INTERVAL", val: "0s", want: "LIVE_INTERVAL"},
		{name: "unknown_backend", key: "CACHE_BACKEND", val: "s3", want: "CACHE_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	if m, err := LoadManifest(""); err != nil || m.Version != "" {
		t.Fatalf("expected empty manifest for empty path, got %+v %v", m, err)
	}

	path := filepath.Join(t.TempDir(), "offline.yaml")
	body := `version: v7
coreResources:
  - /
  - /favicon.svg
assetPatterns:
  - '^/static/.*\.js$'
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("expected manifest to load, got %v", err)
	}
	if m.Version != "v7" {
		t.Fatalf("expected version v7, got %s", m.Version)
	}
	if len(m.CoreResources) != 2 || m.CoreResources[1] != "/favicon.svg" {
		t.Fatalf("unexpected core resources %v", m.CoreResources)
	}
	if len(m.AssetPatterns) != 1 {
		t.Fatalf("unexpected asset patterns %v", m.AssetPatterns)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("coreResources: [unterminated"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
