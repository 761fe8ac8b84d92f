package store

import (
	"sync"
	"time"
)

// Clock supplies the current time to the store and the service layer. Tests
// pin or advance it.
type Clock struct {
	mu     sync.RWMutex
	fixed  *time.Time
	offset time.Duration
}

func NewClock() *Clock {
	return &Clock{}
}

// NewFixedClock returns a clock frozen at t until Advance or Set is called.
func NewFixedClock(t time.Time) *Clock {
	t = t.UTC()
	return &Clock{fixed: &t}
}

func (c *Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fixed != nil {
		return c.fixed.Add(c.offset)
	}
	return time.Now().UTC().Add(c.offset)
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t = t.UTC()
	c.fixed = &t
	c.offset = 0
}
