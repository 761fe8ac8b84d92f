// Package memkv is an in-process KV backend used for tests and ephemeral runs.
package memkv

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("memkv: closed")

type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
	closed bool

	// FailWith, when set, is returned by every Set. Tests use it to simulate
	// an unavailable or full storage quota.
	FailWith error
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailWith != nil {
		return s.FailWith
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	s.writes++
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Writes counts successful Set calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
