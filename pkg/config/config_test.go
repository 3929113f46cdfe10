package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "normcache.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadParsesBackendAndRetention(t *testing.T) {
	path := writeConfigFile(t, `
name: primary
backend:
  kind: redis
  addr: localhost:6379
retention:
  gc_interval_seconds: 30
  fast_notify: true
statistics:
  enabled: true
  interval_seconds: 15
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "primary" {
		t.Fatalf("expected name primary, got %q", cfg.Name)
	}
	if cfg.Backend.Kind != "redis" || cfg.Backend.Addr != "localhost:6379" {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Retention.GCIntervalSeconds != 30 || !cfg.Retention.FastNotify {
		t.Fatalf("unexpected retention config: %+v", cfg.Retention)
	}
	if !cfg.Statistics.Enabled || cfg.Statistics.IntervalSeconds != 15 {
		t.Fatalf("unexpected statistics config: %+v", cfg.Statistics)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
