package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"giatla/backend/internal/logger"
	"giatla/backend/internal/metrics"
	"giatla/backend/internal/persist"
)

const DefaultDebounce = time.Second

// Flusher writes dirty collections back to the adapter. A collection is due
// once it has been quiet for the debounce window, so a burst of mutations
// coalesces into one write. Write failures are logged and counted and never
// reach the caller.
type Flusher struct {
	store    *Store
	adapter  *persist.Adapter
	debounce time.Duration
	metrics  *metrics.Metrics
}

func NewFlusher(s *Store, adapter *persist.Adapter, debounce time.Duration, m *metrics.Metrics) *Flusher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Flusher{store: s, adapter: adapter, debounce: debounce, metrics: m}
}

// FlushDue writes every collection whose last change is at least one debounce
// window old and returns how many were written.
func (f *Flusher) FlushDue(ctx context.Context, now time.Time) int {
	written := 0
	for _, c := range f.store.all {
		dirty, changedAt := c.Dirty()
		if !dirty || now.Sub(changedAt) < f.debounce {
			continue
		}
		f.write(ctx, c)
		written++
	}
	return written
}

// FlushAll writes every dirty collection immediately.
func (f *Flusher) FlushAll(ctx context.Context) int {
	written := 0
	for _, c := range f.store.all {
		if dirty, _ := c.Dirty(); !dirty {
			continue
		}
		f.write(ctx, c)
		written++
	}
	return written
}

// Run polls for due collections until ctx ends. The caller is expected to
// FlushAll afterwards.
func (f *Flusher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = f.debounce / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.FlushDue(ctx, f.store.Clock.Now())
		}
	}
}

func (f *Flusher) write(ctx context.Context, c flushable) {
	started := time.Now()
	err := c.flush(ctx, f.adapter)
	took := time.Since(started)
	if err != nil {
		logger.Get("persist").WithFields(logrus.Fields{
			"collection": c.Name(),
			"key":        persist.Key(c.Name()),
		}).WithError(err).Warn("flush failed, keeping in-memory state")
		f.metrics.Flush(c.Name(), metrics.OutcomeError, took)
		return
	}
	f.metrics.Flush(c.Name(), metrics.OutcomeOK, took)
}
