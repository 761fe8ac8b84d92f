package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

// PromotionDiscount computes the discount p grants on subtotal. Percentage
// discounts round down and respect MaxDiscountAmount; fixed discounts never
// exceed the subtotal.
func PromotionDiscount(p domain.Promotion, subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	var discount int64
	switch p.DiscountType {
	case domain.DiscountPercentage:
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromFloat(p.DiscountValue)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if p.MaxDiscountAmount > 0 && discount > p.MaxDiscountAmount {
			discount = p.MaxDiscountAmount
		}
	case domain.DiscountFixed:
		discount = decimal.NewFromFloat(p.DiscountValue).Floor().IntPart()
	}
	return min(max(discount, 0), subtotal)
}

// usableAt reports whether p may be redeemed at storeID: store promotions at
// their own store, system-wide ones everywhere without an approved opt-out.
func usableAt(p domain.Promotion, storeID string) bool {
	if !p.IsSystemWide {
		return p.OwnerID == storeID
	}
	for _, req := range p.OptOutRequests {
		if req.StoreID == storeID && req.Status == domain.RequestApproved {
			return false
		}
	}
	return true
}

func promotionAllows(p domain.Promotion, q domain.PromotionQuery, now time.Time) bool {
	if p.Status != domain.PromotionActive || !usableAt(p, q.StoreID) {
		return false
	}
	if len(p.ApplicableDaysOfWeek) > 0 && !slices.Contains(p.ApplicableDaysOfWeek, now.Weekday()) {
		return false
	}
	if len(p.ApplicableChannels) > 0 && !slices.Contains(p.ApplicableChannels, q.Channel) {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	if p.UsageLimit > 0 && p.TimesUsed >= p.UsageLimit {
		return false
	}
	if p.UsageLimitPerCustomer > 0 && q.CustomerID != "" {
		used := 0
		for _, id := range p.UsedByCustomerIDs {
			if id == q.CustomerID {
				used++
			}
		}
		if used >= p.UsageLimitPerCustomer {
			return false
		}
	}
	if p.MinOrderAmount > 0 && q.Subtotal < p.MinOrderAmount {
		return false
	}
	if len(p.ApplicableServiceIDs) > 0 || len(p.ApplicableWashMethodIDs) > 0 {
		matched := false
		for _, item := range q.Items {
			serviceOK := len(p.ApplicableServiceIDs) == 0 || slices.Contains(p.ApplicableServiceIDs, item.Service.ID)
			methodOK := len(p.ApplicableWashMethodIDs) == 0 || slices.Contains(p.ApplicableWashMethodIDs, item.WashMethodID)
			if serviceOK && methodOK {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (s *Service) findPromotion(q domain.PromotionQuery) (domain.Promotion, bool) {
	code := strings.TrimSpace(q.Code)
	if code == "" {
		return domain.Promotion{}, false
	}
	now := s.now()
	return s.store.Promotions.Find(func(p domain.Promotion) bool {
		return strings.EqualFold(p.Code, code) && promotionAllows(p, q, now)
	})
}

// FindPromotionByCode returns the promotion usable for q, if any.
func (s *Service) FindPromotionByCode(ctx context.Context, q domain.PromotionQuery) (domain.Promotion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPromotion(q)
}

// applyPromotion records one use of p by orderID. A second application for
// the same order is a no-op.
func (s *Service) applyPromotion(p domain.Promotion, orderID string, customerID string) domain.Promotion {
	if slices.Contains(p.AppliedOrderIDs, orderID) {
		return p
	}
	p.TimesUsed++
	p.AppliedOrderIDs = append(p.AppliedOrderIDs, orderID)
	if customerID != "" {
		p.UsedByCustomerIDs = append(p.UsedByCustomerIDs, customerID)
	}
	s.store.Promotions.Put(p)
	return p
}

// ApplyPromotion records the use of a promotion by an existing order.
func (s *Service) ApplyPromotion(ctx context.Context, promotionID string, orderID string) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.apply", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
		if err != nil {
			return err
		}
		p, ok := s.store.Promotions.Get(promotionID)
		if !ok {
			return fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
		}
		order, ok := s.store.Orders.Get(orderID)
		if !ok {
			return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		if err := s.inTenant(me, order.OwnerID); err != nil {
			return err
		}
		if !slices.Contains(p.AppliedOrderIDs, orderID) && !promotionAllows(p, domain.PromotionQuery{
			StoreID:    order.OwnerID,
			Channel:    order.Channel,
			CustomerID: order.Customer.ID,
			Subtotal:   order.Subtotal,
			Items:      order.Items,
		}, s.now()) {
			return fmt.Errorf("%w: promotion %s is not usable for order %s", ErrInvalid, p.Code, orderID)
		}
		out = s.applyPromotion(p, orderID, order.Customer.ID)
		return nil
	})
	return out, err
}

// AvailablePromotions lists the active promotions usable at storeID.
func (s *Service) AvailablePromotions(ctx context.Context, storeID string) []domain.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Promotions.Filter(func(p domain.Promotion) bool {
		return p.Status == domain.PromotionActive && usableAt(p, storeID)
	})
}

// CreatePromotion files a store promotion for Chairman approval when an Owner
// creates it, or activates a system-wide promotion when the Chairman does.
func (s *Service) CreatePromotion(ctx context.Context, req domain.PromotionRequest) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.create", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner)
		if err != nil {
			return err
		}
		if req.DiscountType == domain.DiscountPercentage && req.DiscountValue > 100 {
			return fmt.Errorf("%w: percentage discount above 100", ErrInvalid)
		}
		if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
			return fmt.Errorf("%w: end_date before start_date", ErrInvalid)
		}
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		systemWide := me.Role == domain.RoleChairman
		clash := s.store.Promotions.Filter(func(p domain.Promotion) bool {
			live := p.Status == domain.PromotionActive || p.Status == domain.PromotionPending
			sameScope := p.IsSystemWide || systemWide || p.OwnerID == me.ID
			return live && sameScope && strings.EqualFold(p.Code, code)
		})
		if len(clash) > 0 {
			return fmt.Errorf("%w: code %s already in use", ErrInvalid, code)
		}
		for _, id := range req.ApplicableServiceIDs {
			if _, ok := s.store.Services.Get(id); !ok {
				return fmt.Errorf("%w: service %s", ErrBrokenReference, id)
			}
		}
		for _, id := range req.ApplicableWashMethodIDs {
			if _, ok := s.store.WashMethods.Get(id); !ok {
				return fmt.Errorf("%w: wash method %s", ErrBrokenReference, id)
			}
		}

		p := domain.Promotion{
			ID:                      xid.New("promo"),
			OwnerID:                 me.ID,
			IsSystemWide:            systemWide,
			Name:                    strings.TrimSpace(req.Name),
			Code:                    code,
			DiscountType:            req.DiscountType,
			DiscountValue:           req.DiscountValue,
			MaxDiscountAmount:       req.MaxDiscountAmount,
			MinOrderAmount:          req.MinOrderAmount,
			Status:                  domain.PromotionPending,
			StartDate:               req.StartDate,
			EndDate:                 req.EndDate,
			ApplicableDaysOfWeek:    req.ApplicableDaysOfWeek,
			ApplicableChannels:      req.ApplicableChannels,
			ApplicableServiceIDs:    req.ApplicableServiceIDs,
			ApplicableWashMethodIDs: req.ApplicableWashMethodIDs,
			UsageLimit:              req.UsageLimit,
			UsageLimitPerCustomer:   req.UsageLimitPerCustomer,
			CreatedBy:               me.ID,
			CreatedAt:               s.now(),
		}
		if systemWide {
			p.Status = domain.PromotionActive
			s.notify(domain.Notification{Type: domain.NotifyInfo, Message: fmt.Sprintf("New promotion %s: %s", p.Code, p.Name)})
		} else {
			s.notifyChairmen(domain.NotifyInfo, "Store %s submitted promotion %s for approval", storeLabel(me), p.Code)
		}
		s.store.Promotions.Put(p)
		out = p
		return nil
	})
	return out, err
}

func (s *Service) pendingPromotion(actor domain.Actor, id string) (domain.Promotion, error) {
	if _, err := s.member(actor, domain.RoleChairman); err != nil {
		return domain.Promotion{}, err
	}
	p, ok := s.store.Promotions.Get(id)
	if !ok {
		return domain.Promotion{}, fmt.Errorf("%w: promotion %s", ErrNotFound, id)
	}
	if p.Status != domain.PromotionPending {
		return domain.Promotion{}, fmt.Errorf("%w: promotion %s is %s", ErrInvalidTransition, p.Code, p.Status)
	}
	return p, nil
}

func (s *Service) ApprovePromotion(ctx context.Context, id string) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.approve", func(actor domain.Actor) error {
		p, err := s.pendingPromotion(actor, id)
		if err != nil {
			return err
		}
		p.Status = domain.PromotionActive
		s.store.Promotions.Put(p)
		s.notifyUser(p.OwnerID, domain.NotifySuccess, "", "Promotion %s was approved", p.Code)
		out = p
		return nil
	})
	return out, err
}

func (s *Service) RejectPromotion(ctx context.Context, id string, reason string) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.reject", func(actor domain.Actor) error {
		p, err := s.pendingPromotion(actor, id)
		if err != nil {
			return err
		}
		p.Status = domain.PromotionRejected
		s.store.Promotions.Put(p)
		s.notifyUser(p.OwnerID, domain.NotifyWarning, "", "Promotion %s was rejected: %s", p.Code, strings.TrimSpace(reason))
		out = p
		return nil
	})
	return out, err
}

// RequestOptOut asks the Chairman to exclude the caller's store from a
// system-wide promotion.
func (s *Service) RequestOptOut(ctx context.Context, promotionID string, reason string) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.opt_out", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleOwner)
		if err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return fmt.Errorf("%w: reason is required", ErrInvalid)
		}
		p, ok := s.store.Promotions.Get(promotionID)
		if !ok {
			return fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
		}
		if !p.IsSystemWide || p.Status != domain.PromotionActive {
			return fmt.Errorf("%w: only active system-wide promotions accept opt-outs", ErrInvalid)
		}
		for _, r := range p.OptOutRequests {
			if r.StoreID == me.ID && r.Status != domain.RequestRejected {
				return fmt.Errorf("%w: store already has a %s opt-out", ErrInvalid, r.Status)
			}
		}
		p.OptOutRequests = append(p.OptOutRequests, domain.OptOutRequest{
			ID:          xid.New("optout"),
			StoreID:     me.ID,
			Reason:      reason,
			Status:      domain.RequestPending,
			RequestedBy: me.ID,
			RequestedAt: s.now(),
		})
		s.store.Promotions.Put(p)
		s.notifyChairmen(domain.NotifyInfo, "Store %s asks to opt out of %s", storeLabel(me), p.Code)
		out = p
		return nil
	})
	return out, err
}

func (s *Service) ResolveOptOut(ctx context.Context, promotionID string, requestID string, approve bool) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.resolve_opt_out", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman)
		if err != nil {
			return err
		}
		p, ok := s.store.Promotions.Get(promotionID)
		if !ok {
			return fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
		}
		idx := slices.IndexFunc(p.OptOutRequests, func(r domain.OptOutRequest) bool { return r.ID == requestID })
		if idx < 0 {
			return fmt.Errorf("%w: opt-out request %s", ErrNotFound, requestID)
		}
		req := p.OptOutRequests[idx]
		if req.Status != domain.RequestPending {
			return fmt.Errorf("%w: opt-out request is %s", ErrInvalidTransition, req.Status)
		}
		req.Status = domain.RequestRejected
		if approve {
			req.Status = domain.RequestApproved
		}
		req.ResolvedBy = me.ID
		req.ResolvedAt = ptr(s.now())
		p.OptOutRequests = slices.Clone(p.OptOutRequests)
		p.OptOutRequests[idx] = req
		s.store.Promotions.Put(p)
		s.notifyUser(req.StoreID, domain.NotifyInfo, "", "Opt-out from %s was %s", p.Code, req.Status)
		out = p
		return nil
	})
	return out, err
}

// RequestPromotionCancellation asks a store's Owner to withdraw its own
// active promotion.
func (s *Service) RequestPromotionCancellation(ctx context.Context, promotionID string, reason string) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.request_cancel", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman)
		if err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return fmt.Errorf("%w: reason is required", ErrInvalid)
		}
		p, ok := s.store.Promotions.Get(promotionID)
		if !ok {
			return fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
		}
		if p.IsSystemWide || p.Status != domain.PromotionActive {
			return fmt.Errorf("%w: only active store promotions can be cancelled this way", ErrInvalid)
		}
		if p.CancellationRequest != nil && p.CancellationRequest.Status == domain.RequestPending {
			return fmt.Errorf("%w: a cancellation request is already pending", ErrInvalid)
		}
		p.CancellationRequest = &domain.CancellationRequest{
			ID:          xid.New("cancel"),
			Reason:      reason,
			Status:      domain.RequestPending,
			RequestedBy: me.ID,
			RequestedAt: s.now(),
		}
		s.store.Promotions.Put(p)
		s.notifyUser(p.OwnerID, domain.NotifyWarning, "", "Chairman asks to cancel promotion %s: %s", p.Code, reason)
		out = p
		return nil
	})
	return out, err
}

// ResolvePromotionCancellation lets the promotion's Owner accept (the
// promotion goes inactive) or refuse a pending cancellation request.
func (s *Service) ResolvePromotionCancellation(ctx context.Context, promotionID string, approve bool) (out domain.Promotion, err error) {
	err = s.do(ctx, "promotion.resolve_cancel", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleOwner)
		if err != nil {
			return err
		}
		p, ok := s.store.Promotions.Get(promotionID)
		if !ok {
			return fmt.Errorf("%w: promotion %s", ErrNotFound, promotionID)
		}
		if p.OwnerID != me.ID {
			return fmt.Errorf("%w: promotion belongs to another store", ErrForbidden)
		}
		if p.CancellationRequest == nil || p.CancellationRequest.Status != domain.RequestPending {
			return fmt.Errorf("%w: no pending cancellation request", ErrInvalidTransition)
		}
		req := *p.CancellationRequest
		req.ResolvedBy = me.ID
		req.ResolvedAt = ptr(s.now())
		if approve {
			req.Status = domain.RequestApproved
			p.Status = domain.PromotionInactive
		} else {
			req.Status = domain.RequestRejected
		}
		p.CancellationRequest = &req
		s.store.Promotions.Put(p)
		s.notifyUser(req.RequestedBy, domain.NotifyInfo, "", "Cancellation of %s was %s by %s", p.Code, req.Status, storeLabel(me))
		out = p
		return nil
	})
	return out, err
}

func storeLabel(u domain.User) string {
	if u.StoreName != "" {
		return u.StoreName
	}
	return u.Name
}
