package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
log:
  level: debug
storage:
  driver: sqlite
sqlite:
  path: /tmp/results.db
quiz:
  ttl: 5m
  catalog: config/quizzes.json
attempt:
  tick: 500ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" || cfg.SQLite.Path != "/tmp/results.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	driver, err := cfg.StorageDriver()
	if err != nil || driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q (%v)", driver, err)
	}
	if got := TTLDuration(cfg.Attempt.Tick, time.Second); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms tick, got %v", got)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: cassandra\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestStorageDriverDefaults(t *testing.T) {
	var cfg Config
	if driver, _ := cfg.StorageDriver(); driver != DriverMemory {
		t.Fatalf("expected memory by default, got %s", driver)
	}
	cfg.Redis.Addr = "localhost:6379"
	if driver, _ := cfg.StorageDriver(); driver != DriverRedis {
		t.Fatalf("expected redis when addr set, got %s", driver)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
