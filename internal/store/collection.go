package store

import (
	"context"
	"sync"
	"time"

	"giatla/backend/internal/persist"
)

// Collection is an ordered, in-memory set of records of one type. Every
// mutation marks it dirty; the Flusher writes it back as a single JSON array.
type Collection[T any] struct {
	mu        sync.RWMutex
	name      string
	schema    string
	idOf      func(T) string
	items     map[string]T
	order     []string
	clock     *Clock
	version   uint64
	flushed   uint64
	changedAt time.Time
}

func NewCollection[T any](name string, schema string, idOf func(T) string, clock *Clock) *Collection[T] {
	return &Collection[T]{
		name:   name,
		schema: schema,
		idOf:   idOf,
		items:  make(map[string]T),
		clock:  clock,
	}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// List returns every record in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *Collection[T]) Filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, id := range c.order {
		if keep(c.items[id]) {
			out = append(out, c.items[id])
		}
	}
	return out
}

// Find returns the first record, in insertion order, accepted by match.
func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		if match(c.items[id]) {
			return c.items[id], true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Put inserts or overwrites a record. Overwrites keep the original position.
func (c *Collection[T]) Put(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(item)
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = item
	c.touch()
}

func (c *Collection[T]) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		return false
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.touch()
	return true
}

// Replace swaps the whole collection for items.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(items)
	c.touch()
}

// TrimOldest drops records from the front until at most max remain and
// reports how many were dropped.
func (c *Collection[T]) TrimOldest(max int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if max < 0 || len(c.order) <= max {
		return 0
	}
	drop := len(c.order) - max
	for _, id := range c.order[:drop] {
		delete(c.items, id)
	}
	c.order = append([]string(nil), c.order[drop:]...)
	c.touch()
	return drop
}

func (c *Collection[T]) reset(items []T) {
	c.items = make(map[string]T, len(items))
	c.order = make([]string, 0, len(items))
	for _, item := range items {
		id := c.idOf(item)
		if _, exists := c.items[id]; !exists {
			c.order = append(c.order, id)
		}
		c.items[id] = item
	}
}

func (c *Collection[T]) touch() {
	c.version++
	c.changedAt = c.clock.Now()
}

// Dirty reports whether the collection holds changes not yet handed to the
// persistence adapter, and when the most recent change happened.
func (c *Collection[T]) Dirty() (bool, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version != c.flushed, c.changedAt
}

func (c *Collection[T]) key() string { return persist.Key(c.name) }

// flush writes the current contents and records the written version. A failed
// write still counts as handled; the next mutation dirties the collection again.
func (c *Collection[T]) flush(ctx context.Context, adapter *persist.Adapter) error {
	c.mu.RLock()
	version := c.version
	snapshot := make([]T, 0, len(c.order))
	for _, id := range c.order {
		snapshot = append(snapshot, c.items[id])
	}
	c.mu.RUnlock()

	err := adapter.Save(ctx, c.key(), snapshot)

	c.mu.Lock()
	if c.flushed < version {
		c.flushed = version
	}
	c.mu.Unlock()
	return err
}

// load replaces the contents with the persisted array without marking the
// collection dirty.
func (c *Collection[T]) load(ctx context.Context, adapter *persist.Adapter) {
	items := persist.Load[[]T](ctx, adapter, c.key(), nil, c.schema)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(items)
	c.flushed = c.version
}
