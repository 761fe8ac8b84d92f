package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

func (s *Service) financeMember(actor domain.Actor, requestedOwner string, roles ...domain.Role) (domain.User, string, error) {
	me, err := s.member(actor, roles...)
	if err != nil {
		return domain.User{}, "", err
	}
	ownerID, err := s.tenantOf(me, requestedOwner)
	if err != nil {
		return domain.User{}, "", err
	}
	return me, ownerID, nil
}

func (s *Service) AddVariableCost(ctx context.Context, req domain.VariableCostRequest) (out domain.VariableCost, err error) {
	err = s.do(ctx, "finance.add_variable_cost", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, ownerID, err := s.financeMember(actor, req.OwnerID, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		now := s.now()
		incurred := now
		if req.IncurredAt != nil {
			incurred = req.IncurredAt.UTC()
		}
		cost := domain.VariableCost{
			ID:          xid.New("vc"),
			OwnerID:     ownerID,
			Category:    strings.TrimSpace(req.Category),
			Description: strings.TrimSpace(req.Description),
			Amount:      req.Amount,
			IncurredAt:  incurred,
			CreatedBy:   me.ID,
			CreatedAt:   now,
		}
		s.store.VariableCosts.Put(cost)
		out = cost
		return nil
	})
	return out, err
}

func (s *Service) DeleteVariableCost(ctx context.Context, id string) error {
	return s.do(ctx, "finance.delete_variable_cost", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		cost, ok := s.store.VariableCosts.Get(id)
		if !ok {
			return fmt.Errorf("%w: variable cost %s", ErrNotFound, id)
		}
		if err := s.inTenant(me, cost.OwnerID); err != nil {
			return err
		}
		s.store.VariableCosts.Delete(id)
		return nil
	})
}

// ReplaceFixedCosts swaps a store's whole fixed-cost list and records the
// previous list in full.
func (s *Service) ReplaceFixedCosts(ctx context.Context, ownerID string, items []domain.FixedCostInput) (out []domain.FixedCostItem, err error) {
	err = s.do(ctx, "finance.replace_fixed_costs", func(actor domain.Actor) error {
		for i := range items {
			if err := s.check(items[i]); err != nil {
				return err
			}
		}
		me, tenant, err := s.financeMember(actor, ownerID, domain.RoleChairman, domain.RoleOwner)
		if err != nil {
			return err
		}
		now := s.now()
		previous := s.store.FixedCosts.Filter(func(f domain.FixedCostItem) bool { return f.OwnerID == tenant })

		out = make([]domain.FixedCostItem, 0, len(items))
		for _, in := range items {
			out = append(out, domain.FixedCostItem{
				ID:            xid.New("fc"),
				OwnerID:       tenant,
				Name:          strings.TrimSpace(in.Name),
				MonthlyAmount: in.MonthlyAmount,
				UpdatedAt:     now,
			})
		}

		s.store.FixedCostHistory.Put(domain.FixedCostHistory{
			ID:            xid.New("fch"),
			OwnerID:       tenant,
			PreviousItems: previous,
			ChangedBy:     me.ID,
			ChangedAt:     now,
		})
		rest := s.store.FixedCosts.Filter(func(f domain.FixedCostItem) bool { return f.OwnerID != tenant })
		s.store.FixedCosts.Replace(append(rest, out...))
		return nil
	})
	return out, err
}

func (s *Service) FixedCostHistory(ctx context.Context, ownerID string) (out []domain.FixedCostHistory, err error) {
	err = s.do(ctx, "finance.fixed_cost_history", func(actor domain.Actor) error {
		_, tenant, err := s.financeMember(actor, ownerID, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		out = s.store.FixedCostHistory.Filter(func(h domain.FixedCostHistory) bool { return h.OwnerID == tenant })
		return nil
	})
	return out, err
}

// FinancialSummary totals revenue from orders completed in [from, to), the
// variable costs incurred in the same window, and the current monthly fixed
// costs.
func (s *Service) FinancialSummary(ctx context.Context, ownerID string, from time.Time, to time.Time) (out domain.FinancialSummary, err error) {
	err = s.do(ctx, "finance.summary", func(actor domain.Actor) error {
		if !to.After(from) {
			return fmt.Errorf("%w: to must be after from", ErrInvalid)
		}
		_, tenant, err := s.financeMember(actor, ownerID, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		within := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }
		out = domain.FinancialSummary{OwnerID: tenant, From: from, To: to}
		for _, o := range s.store.Orders.List() {
			done := o.Status == domain.StatusCompleted || o.Status == domain.StatusReturned
			if o.OwnerID != tenant || !done || o.CompletedAt == nil || !within(*o.CompletedAt) {
				continue
			}
			out.OrderCount++
			out.Revenue += o.TotalAmount
		}
		for _, c := range s.store.VariableCosts.List() {
			if c.OwnerID == tenant && within(c.IncurredAt) {
				out.VariableCosts += c.Amount
			}
		}
		for _, f := range s.store.FixedCosts.List() {
			if f.OwnerID == tenant {
				out.FixedCosts += f.MonthlyAmount
			}
		}
		out.Profit = out.Revenue - out.VariableCosts - out.FixedCosts
		return nil
	})
	return out, err
}
