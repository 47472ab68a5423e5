package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNC_DEBOUNCE", "")
	t.Setenv("SNAPSHOT_STORE", "")
	t.Setenv("GENERATOR", "")

	cfg := Load()
	if cfg.SyncDebounce != 2*time.Second {
		t.Fatalf("expected 2s debounce, got %s", cfg.SyncDebounce)
	}
	if cfg.SnapshotStore != "memory" {
		t.Fatalf("expected memory snapshot store, got %s", cfg.SnapshotStore)
	}
	if cfg.Generator != "placeholder" {
		t.Fatalf("expected placeholder generator, got %s", cfg.Generator)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_DEBOUNCE", "500ms")
	t.Setenv("SNAPSHOT_STORE", "REDIS")
	t.Setenv("GENERATOR", "openai")
	t.Setenv("GATEWAY_URL", "http://resumes.local/")
	t.Setenv("ENV", "prod")

	cfg := Load()
	if cfg.SyncDebounce != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", cfg.SyncDebounce)
	}
	if cfg.SnapshotStore != "redis" || cfg.Generator != "llm" {
		t.Fatalf("unexpected normalization: %+v", cfg)
	}
	if cfg.GatewayURL != "http://resumes.local" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.GatewayURL)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %s", cfg.Env)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "soon")
	if got := Load().GenerationTimeout; got != 2*time.Minute {
		t.Fatalf("expected default timeout, got %s", got)
	}
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WIZARD_TEST_KEY=from-file\nWIZARD_TEST_OTHER=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("WIZARD_TEST_KEY", "from-env")
	t.Setenv("WIZARD_TEST_OTHER", "")
	os.Unsetenv("WIZARD_TEST_OTHER")

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("WIZARD_TEST_KEY"); got != "from-env" {
		t.Fatalf("expected env value to win, got %s", got)
	}
	if got := os.Getenv("WIZARD_TEST_OTHER"); got != "quoted" {
		t.Fatalf("expected quoted value loaded, got %s", got)
	}
}
