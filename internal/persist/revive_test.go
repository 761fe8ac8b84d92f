package persist

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testReviver() *Reviver {
	r := NewReviver()
	r.Register("Order", Schema{
		Dates:  []string{"received_at", "completed_at"},
		Nested: map[string]string{"scan_history": "ScanEntry", "customer": "User"},
	})
	r.Register("ScanEntry", Schema{Dates: []string{"timestamp"}})
	r.Register("User", Schema{Dates: []string{"created_at"}})
	return r
}

func TestReviveNormalizesAllowListedDates(t *testing.T) {
	raw := []byte(`[{
		"id": "DH-001",
		"received_at": 1700000000000,
		"completed_at": "2024-03-05",
		"total_amount": 90000,
		"note_at": "2024-03-05",
		"customer": {"id": "c1", "created_at": "2024-01-02T10:00:00"},
		"scan_history": [{"timestamp": "2024-03-05T08:00:00+07:00", "action": "PENDING"}]
	}]`)

	out, err := testReviver().Revive(raw, "Order")
	if err != nil {
		t.Fatalf("revive: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []map[string]any{{
		"id":           "DH-001",
		"received_at":  "2023-11-14T22:13:20Z",
		"completed_at": "2024-03-05T00:00:00Z",
		"total_amount": float64(90000),
		"note_at":      "2024-03-05",
		"customer":     map[string]any{"id": "c1", "created_at": "2024-01-02T10:00:00Z"},
		"scan_history": []any{map[string]any{"timestamp": "2024-03-05T01:00:00Z", "action": "PENDING"}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("revived mismatch (-want +got):\n%s", diff)
	}
}

func TestReviveNullsUnparseableDates(t *testing.T) {
	out, err := testReviver().Revive([]byte(`{"id":"x","received_at":"not a date"}`), "Order")
	if err != nil {
		t.Fatalf("revive: %v", err)
	}
	var got map[string]any
	_ = json.Unmarshal(out, &got)
	if got["received_at"] != nil {
		t.Fatalf("expected null, got %v", got["received_at"])
	}
}

func TestReviveUnknownSchema(t *testing.T) {
	if _, err := testReviver().Revive([]byte(`{}`), "Nope"); err == nil {
		t.Fatalf("expected unknown schema error")
	}
}
