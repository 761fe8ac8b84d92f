// Package persist is the key-value persistence adapter behind every store
// collection. Values are JSON blobs; loads may pass through a Reviver that
// normalizes date-valued fields before decoding.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"giatla/backend/internal/logger"
)

// Namespace prefixes every key. Keys must stay stable across releases; there
// is no migration step.
const Namespace = "laundromat_"

func Key(name string) string {
	return Namespace + name
}

var ErrClosed = errors.New("persist: store closed")

// KV is the minimal contract a storage backend has to meet.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

type Adapter struct {
	kv      KV
	reviver *Reviver
}

func NewAdapter(kv KV, reviver *Reviver) *Adapter {
	if reviver == nil {
		reviver = NewReviver()
	}
	return &Adapter{kv: kv, reviver: reviver}
}

func (a *Adapter) Reviver() *Reviver { return a.reviver }

func (a *Adapter) Close() error { return a.kv.Close() }

// Save encodes value and writes it under key.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// LoadRaw returns the revived JSON stored under key. Missing keys report
// ok=false with no error.
func (a *Adapter) LoadRaw(ctx context.Context, key string, schema string) ([]byte, bool, error) {
	raw, ok, err := a.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if schema == "" {
		return raw, true, nil
	}
	revived, err := a.reviver.Revive(raw, schema)
	if err != nil {
		return nil, true, fmt.Errorf("revive %s as %s: %w", key, schema, err)
	}
	return revived, true, nil
}

// Load decodes the value under key into T, falling back to def when the key
// is missing or unreadable. Read failures are logged, never returned.
func Load[T any](ctx context.Context, a *Adapter, key string, def T, schema string) T {
	raw, ok, err := a.LoadRaw(ctx, key, schema)
	if err != nil {
		logger.Get("persist").WithField("key", key).WithError(err).Warn("load failed, using default")
		return def
	}
	if !ok {
		return def
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Get("persist").WithField("key", key).WithError(err).Warn("decode failed, using default")
		return def
	}
	return out
}
