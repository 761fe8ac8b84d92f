package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"giatla/backend/internal/domain"
)

// PeriodWindow returns the [start, end) window of periodType containing ref:
// the calendar day, the Monday-based ISO week, or the calendar month, in UTC.
func PeriodWindow(periodType string, ref time.Time) (time.Time, time.Time, error) {
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	switch periodType {
	case domain.PeriodDaily:
		return day, day.AddDate(0, 0, 1), nil
	case domain.PeriodWeekly:
		start := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return start, start.AddDate(0, 0, 7), nil
	case domain.PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", ErrInvalid, periodType)
	}
}

func kpiID(userID string, periodType string, start time.Time) string {
	return fmt.Sprintf("%s-%s-%s", userID, periodType, start.Format("2006-01-02"))
}

// CalculateAndStoreKPIsForAllStaff recomputes the period's KPI snapshot for
// every Staff and Manager the actor oversees. Records with the same user,
// period and start are replaced, never added to.
func (s *Service) CalculateAndStoreKPIsForAllStaff(ctx context.Context, periodType string, ref time.Time) (out []domain.KPI, err error) {
	err = s.do(ctx, "kpi.calculate", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		start, end, err := PeriodWindow(periodType, ref)
		if err != nil {
			return err
		}
		scope := ""
		if me.Role != domain.RoleChairman {
			if scope = s.ownerOf(me.ID); scope == "" {
				return fmt.Errorf("%w: %s does not belong to a store", ErrForbidden, me.ID)
			}
		}

		orders := s.store.Orders.List()
		ratings := s.store.StaffRatings.List()
		tips := s.store.Tips.List()
		now := s.now()
		within := func(t time.Time) bool { return !t.Before(start) && t.Before(end) }

		out = make([]domain.KPI, 0)
		for _, u := range s.store.Users.List() {
			if u.Role != domain.RoleStaff && u.Role != domain.RoleManager {
				continue
			}
			ownerID := s.ownerOf(u.ID)
			if scope != "" && ownerID != scope {
				continue
			}
			kpi := domain.KPI{
				ID:           kpiID(u.ID, periodType, start),
				UserID:       u.ID,
				OwnerID:      ownerID,
				PeriodType:   periodType,
				PeriodStart:  start,
				PeriodEnd:    end.Add(-time.Nanosecond),
				OnTimeRate:   100,
				CalculatedAt: now,
			}

			onTime, measured := 0, 0
			for _, o := range orders {
				if !touchedBy(o, u.ID, within) {
					continue
				}
				kpi.OrdersHandled++
				done := o.Status == domain.StatusCompleted || o.Status == domain.StatusReturned
				if done && o.CompletedAt != nil && o.EstimatedCompletionTime != nil {
					measured++
					if !o.CompletedAt.After(*o.EstimatedCompletionTime) {
						onTime++
					}
				}
			}
			if measured > 0 {
				kpi.OnTimeRate = decimal.NewFromInt(int64(onTime)).
					Mul(decimal.NewFromInt(100)).
					Div(decimal.NewFromInt(int64(measured))).
					Round(2).
					InexactFloat64()
			}

			sum := decimal.Zero
			for _, r := range ratings {
				if r.StaffID == u.ID && within(r.CreatedAt) {
					sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
					kpi.RatingCount++
				}
			}
			if kpi.RatingCount > 0 {
				kpi.AverageRating = sum.Div(decimal.NewFromInt(int64(kpi.RatingCount))).Round(2).InexactFloat64()
			}
			for _, t := range tips {
				if t.StaffID == u.ID && within(t.CreatedAt) {
					kpi.TotalTips += t.Amount
				}
			}

			s.store.KPIs.Put(kpi)
			out = append(out, kpi)
		}
		return nil
	})
	return out, err
}

// touchedBy reports whether userID processed or returned the order inside
// the window.
func touchedBy(o domain.Order, userID string, within func(time.Time) bool) bool {
	for _, e := range o.ScanHistory {
		if e.StaffID != userID || !within(e.Timestamp) {
			continue
		}
		if e.RoleInAction == domain.ScanRoleProcessing || e.RoleInAction == domain.ScanRoleReturn {
			return true
		}
	}
	return false
}

// ListKPIs returns the actor's visible KPI records for periodType, or all
// periods when periodType is empty.
func (s *Service) ListKPIs(ctx context.Context, periodType string) []domain.KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.KPI, 0)
	for _, k := range s.viewOf(actorOf(ctx)).KPIs {
		if periodType == "" || k.PeriodType == periodType {
			out = append(out, k)
		}
	}
	return out
}
