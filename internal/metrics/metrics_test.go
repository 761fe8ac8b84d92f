package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestActionCounterByOutcome(t *testing.T) {
	m := New()
	m.Action("create_order", OutcomeOK)
	m.Action("create_order", OutcomeOK)
	m.Action("create_order", OutcomeDeclined)

	if got := testutil.ToFloat64(m.actions.WithLabelValues("create_order", OutcomeOK)); got != 2 {
		t.Fatalf("expected 2 ok actions, got %v", got)
	}
	if got := testutil.ToFloat64(m.actions.WithLabelValues("create_order", OutcomeDeclined)); got != 1 {
		t.Fatalf("expected 1 declined action, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Action("x", OutcomeOK)
	m.Flush("orders", OutcomeError, time.Millisecond)
	m.Notifications(3)
}

func TestFlushCounter(t *testing.T) {
	m := New()
	m.Flush("orders", OutcomeOK, 2*time.Millisecond)
	if got := testutil.ToFloat64(m.flushes.WithLabelValues("orders", OutcomeOK)); got != 1 {
		t.Fatalf("expected one flush, got %v", got)
	}
}
