package service

import (
	"errors"
	"testing"
	"time"

	"giatla/backend/internal/domain"
)

func TestPeriodWindow(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	cases := []struct {
		period     string
		ref        time.Time
		start, end time.Time
	}{
		{domain.PeriodDaily, time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC), day(2026, 3, 4), day(2026, 3, 5)},
		{domain.PeriodWeekly, time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC), day(2026, 3, 2), day(2026, 3, 9)},
		{domain.PeriodWeekly, time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), day(2026, 3, 2), day(2026, 3, 9)},
		{domain.PeriodMonthly, time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC), day(2026, 12, 1), day(2027, 1, 1)},
	}
	for _, tc := range cases {
		start, end, err := PeriodWindow(tc.period, tc.ref)
		if err != nil {
			t.Fatalf("%s: %v", tc.period, err)
		}
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Fatalf("%s %v: got [%v, %v), want [%v, %v)", tc.period, tc.ref, start, end, tc.start, tc.end)
		}
	}
	if _, _, err := PeriodWindow("yearly", time.Now()); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown period, got %v", err)
	}
}

func TestKPIRecalculationIsIdempotent(t *testing.T) {
	svc, st := newTestService(t)
	order, err := svc.CreateOrder(as("staff-a"), domain.CreateOrderRequest{
		CustomerID: "cus-1",
		Items:      []domain.OrderLineRequest{{ServiceID: "svc-suit", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	mustTransition(t, svc, "staff-a", order.ID, domain.StatusProcessing, domain.TransitionInput{})
	mustTransition(t, svc, "staff-a", order.ID, domain.StatusCompleted, domain.TransitionInput{PickupLocation: "A1"})
	if _, err := svc.AddStaffRating(as("cus-1"), domain.StaffRatingRequest{OrderID: order.ID, StaffID: "staff-a", Rating: 4}); err != nil {
		t.Fatalf("rate staff: %v", err)
	}
	if _, err := svc.AddTip(as("cus-1"), domain.TipRequest{OrderID: order.ID, StaffID: "staff-a", Amount: 20000}); err != nil {
		t.Fatalf("tip: %v", err)
	}

	for i := 0; i < 2; i++ {
		out, err := svc.CalculateAndStoreKPIsForAllStaff(as("owner-a"), domain.PeriodWeekly, fixtureNow)
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected KPIs for mgr-a and staff-a, got %d", len(out))
		}
	}
	if st.KPIs.Len() != 2 {
		t.Fatalf("recalculation must replace records, have %d", st.KPIs.Len())
	}

	k, ok := st.KPIs.Get(kpiID("staff-a", domain.PeriodWeekly, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	if !ok {
		t.Fatalf("missing staff-a KPI")
	}
	if k.OrdersHandled != 1 || k.OnTimeRate != 100 || k.AverageRating != 4 || k.RatingCount != 1 || k.TotalTips != 20000 {
		t.Fatalf("unexpected KPI %+v", k)
	}
	if !k.PeriodEnd.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Fatalf("unexpected period end %v", k.PeriodEnd)
	}

	if _, err := svc.CalculateAndStoreKPIsForAllStaff(as("chair"), domain.PeriodWeekly, fixtureNow); err != nil {
		t.Fatalf("chairman calculate: %v", err)
	}
	if st.KPIs.Len() != 3 {
		t.Fatalf("chairman covers staff-b too; expected 3 records, have %d", st.KPIs.Len())
	}
	if got := svc.ListKPIs(as("owner-b"), domain.PeriodWeekly); len(got) != 1 || got[0].UserID != "staff-b" {
		t.Fatalf("owner-b should only see staff-b, got %+v", got)
	}
}

func TestKPICalculationRequiresManagement(t *testing.T) {
	svc, st := newTestService(t)
	if _, err := svc.CalculateAndStoreKPIsForAllStaff(as("staff-a"), domain.PeriodDaily, fixtureNow); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if st.KPIs.Len() != 0 {
		t.Fatalf("no KPIs should be stored")
	}
}
