package main

import (
	"context"
	"path/filepath"
	"testing"

	"giatla/backend/internal/config"
	"giatla/backend/internal/persist"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenKVDrivers(t *testing.T) {
	ctx := context.Background()

	for _, driver := range []string{"memory", "sqlite"} {
		cfg := config.Config{PersistDriver: driver, SQLitePath: filepath.Join(t.TempDir(), "data", "kv.db")}
		kv, err := openKV(ctx, cfg)
		if err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
		adapter := persist.NewAdapter(kv, nil)
		if err := adapter.Save(ctx, persist.Key("probe"), []string{"ok"}); err != nil {
			t.Fatalf("%s save: %v", driver, err)
		}
		got := persist.Load(ctx, adapter, persist.Key("probe"), []string(nil), "")
		if len(got) != 1 || got[0] != "ok" {
			t.Fatalf("%s: round trip returned %v", driver, got)
		}
		if err := adapter.Close(); err != nil {
			t.Fatalf("%s close: %v", driver, err)
		}
	}

	if _, err := openKV(ctx, config.Config{PersistDriver: "etcd"}); err == nil {
		t.Fatalf("expected unknown driver to be rejected")
	}
	if _, err := openKV(ctx, config.Config{PersistDriver: "postgres"}); err == nil {
		t.Fatalf("expected postgres without DATABASE_URL to be rejected")
	}
}
