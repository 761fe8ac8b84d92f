package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"giatla/backend/internal/persist/memkv"
)

type record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func TestSaveThenLoadRevivesDates(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	r := NewReviver()
	r.Register("Record", Schema{Dates: []string{"created_at"}})
	a := NewAdapter(kv, r)

	if err := kv.Set(ctx, Key("records"), []byte(`[{"id":"a","created_at":1700000000000}]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got := Load(ctx, a, Key("records"), []record(nil), "Record")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected records %+v", got)
	}
	if !got[0].CreatedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("expected revived epoch date, got %s", got[0].CreatedAt)
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	a := NewAdapter(kv, nil)

	if got := Load(ctx, a, Key("missing"), 42, ""); got != 42 {
		t.Fatalf("expected default for missing key, got %d", got)
	}

	_ = kv.Set(ctx, Key("broken"), []byte(`{not json`))
	if got := Load(ctx, a, Key("broken"), []string{"default"}, ""); len(got) != 1 || got[0] != "default" {
		t.Fatalf("expected default for corrupt payload, got %v", got)
	}
}

func TestSaveSurfacesBackendFailure(t *testing.T) {
	kv := memkv.New()
	kv.FailWith = errors.New("quota exceeded")
	a := NewAdapter(kv, nil)

	err := a.Save(context.Background(), Key("orders"), []string{"x"})
	if err == nil {
		t.Fatalf("expected save error")
	}
}

func TestKeyUsesNamespace(t *testing.T) {
	if Key("orders") != "laundromat_orders" {
		t.Fatalf("unexpected key %s", Key("orders"))
	}
}
