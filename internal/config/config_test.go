package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.FlushDebounce() != time.Second {
		t.Fatalf("expected 1s default debounce, got %s", cfg.FlushDebounce())
	}
	if cfg.PersistDriver != "sqlite" {
		t.Fatalf("expected sqlite default driver, got %s", cfg.PersistDriver)
	}
	if cfg.TrustedProxy {
		t.Fatalf("proxy headers must not be trusted by default")
	}
}

func TestLoadReadsEnvFileWithoutOverridingEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("NOTIFICATION_LIMIT=25\nPORT=9999\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("PORT", "7070")
	t.Cleanup(func() { _ = os.Unsetenv("NOTIFICATION_LIMIT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NotificationLimit != 25 {
		t.Fatalf("expected limit from env file, got %d", cfg.NotificationLimit)
	}
	if cfg.Address() != ":7070" {
		t.Fatalf("expected environment to win over file, got %s", cfg.Address())
	}
}
