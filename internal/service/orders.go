package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

const orderCodePrefix = "DH"

// transitions lists the statuses reachable from each status. RETURNED and
// DELETED_BY_ADMIN accept nothing.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusWaitingForConfirmation: {domain.StatusPending, domain.StatusCancelled, domain.StatusDeletedByAdmin},
	domain.StatusPending:                {domain.StatusProcessing, domain.StatusCancelled, domain.StatusDeletedByAdmin},
	domain.StatusProcessing:             {domain.StatusCompleted, domain.StatusCancelled, domain.StatusDeletedByAdmin},
	domain.StatusCompleted:              {domain.StatusReturned, domain.StatusCancelled, domain.StatusDeletedByAdmin},
	domain.StatusCancelled:              {domain.StatusDeletedByAdmin},
}

func canTransition(from domain.OrderStatus, to domain.OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

func scanRoleFor(to domain.OrderStatus) string {
	switch to {
	case domain.StatusPending:
		return domain.ScanRoleIntake
	case domain.StatusProcessing, domain.StatusCompleted:
		return domain.ScanRoleProcessing
	case domain.StatusReturned:
		return domain.ScanRoleReturn
	case domain.StatusCancelled:
		return domain.ScanRoleCancel
	default:
		return domain.ScanRoleAdmin
	}
}

type orderOptions struct {
	channel     string
	forceStatus domain.OrderStatus
}

// CreateOrder registers a new order. Prices come from the catalog, never from
// the caller. Store staff create confirmed (PENDING) orders for their own
// store; customers and anonymous callers create orders that wait for the
// store's confirmation.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (out domain.Order, err error) {
	err = s.do(ctx, "order.create", func(actor domain.Actor) error {
		out, err = s.createOrder(actor, req, orderOptions{})
		return err
	})
	return out, err
}

func (s *Service) createOrder(actor domain.Actor, req domain.CreateOrderRequest, opts orderOptions) (domain.Order, error) {
	if err := s.check(req); err != nil {
		return domain.Order{}, err
	}
	now := s.now()

	var me domain.User
	staffIntake := false
	if !actor.Anonymous() {
		u, err := s.member(actor)
		if err != nil {
			return domain.Order{}, err
		}
		me = u
		staffIntake = u.Role != domain.RoleCustomer
	}

	ownerID := req.OwnerID
	if staffIntake {
		resolved, err := s.tenantOf(me, req.OwnerID)
		if err != nil {
			return domain.Order{}, err
		}
		ownerID = resolved
	} else {
		if ownerID == "" {
			return domain.Order{}, fmt.Errorf("%w: owner_id is required", ErrInvalid)
		}
		if _, err := s.storeOwner(ownerID); err != nil {
			return domain.Order{}, err
		}
	}

	channel := req.Channel
	if opts.channel != "" {
		channel = opts.channel
	}
	if channel == "" {
		channel = domain.ChannelOnline
		if staffIntake {
			channel = domain.ChannelInStore
		}
	}

	customer, isNew, err := s.resolveCustomer(me, req)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	var longest float64
	for _, line := range req.Items {
		svc, ok := s.store.Services.Get(line.ServiceID)
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: service %s", ErrBrokenReference, line.ServiceID)
		}
		method := line.WashMethodID
		if method == "" {
			method = svc.WashMethodID
		}
		if _, ok := s.store.WashMethods.Get(method); !ok {
			return domain.Order{}, fmt.Errorf("%w: wash method %s", ErrBrokenReference, method)
		}
		items = append(items, domain.OrderItem{Service: svc, Quantity: line.Quantity, WashMethodID: method, Notes: strings.TrimSpace(line.Notes)})
		longest = max(longest, svc.ReturnTimeHours)
	}
	subtotal := domain.ComputeSubtotal(items)

	orderID := xid.OrderCode(orderCodePrefix, s.orderIDs())

	var promo domain.Promotion
	var promoDiscount int64
	if req.PromotionCode != "" {
		found, ok := s.findPromotion(domain.PromotionQuery{
			Code:       req.PromotionCode,
			StoreID:    ownerID,
			Channel:    channel,
			CustomerID: customer.ID,
			Subtotal:   subtotal,
			Items:      items,
		})
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: promotion %s is not applicable", ErrInvalid, strings.ToUpper(req.PromotionCode))
		}
		promo = found
		promoDiscount = PromotionDiscount(promo, subtotal)
	}

	var loyaltyDiscount int64
	if req.PointsToRedeem > 0 {
		settings := s.settingsFor(ownerID)
		if !settings.LoyaltyEnabled {
			return domain.Order{}, fmt.Errorf("%w: loyalty is disabled for this store", ErrInvalid)
		}
		if req.PointsToRedeem > customer.LoyaltyPoints {
			return domain.Order{}, fmt.Errorf("%w: only %d points available", ErrInvalid, customer.LoyaltyPoints)
		}
		loyaltyDiscount = req.PointsToRedeem * settings.RedemptionValue
		if loyaltyDiscount > subtotal-promoDiscount {
			return domain.Order{}, fmt.Errorf("%w: redemption exceeds the order total", ErrInvalid)
		}
	}

	pickup := strings.TrimSpace(req.PickupLocation)
	if pickup != "" {
		if err := s.checkPickupLocation(ownerID, pickup); err != nil {
			return domain.Order{}, err
		}
	}

	// Every input is valid from here on.
	if req.PointsToRedeem > 0 {
		customer.LoyaltyPoints -= req.PointsToRedeem
		customer.LoyaltyHistory = append(customer.LoyaltyHistory, domain.LoyaltyEntry{
			ID:        xid.New("loy"),
			Delta:     -req.PointsToRedeem,
			Reason:    "redeemed on order " + orderID,
			OrderID:   orderID,
			CreatedAt: now,
		})
	}
	if isNew || req.PointsToRedeem > 0 {
		s.store.Users.Put(customer)
	}
	if promo.ID != "" {
		s.applyPromotion(promo, orderID, customer.ID)
	}

	status := domain.StatusWaitingForConfirmation
	if staffIntake {
		status = domain.StatusPending
	}
	if opts.forceStatus != "" {
		status = opts.forceStatus
	}
	order := domain.Order{
		ID:                    orderID,
		OwnerID:               ownerID,
		Customer:              customer.Public(),
		Items:                 items,
		Status:                status,
		PaymentStatus:         domain.PaymentUnpaid,
		Channel:               channel,
		Subtotal:              subtotal,
		PromotionID:           promo.ID,
		PromotionCode:         promo.Code,
		PromotionDiscount:     promoDiscount,
		LoyaltyPointsRedeemed: req.PointsToRedeem,
		LoyaltyDiscount:       loyaltyDiscount,
		TotalAmount:           max(subtotal-promoDiscount-loyaltyDiscount, 0),
		PickupLocation:        pickup,
		Notes:                 strings.TrimSpace(req.Notes),
		ReceivedAt:            now,
	}
	if longest > 0 {
		order.EstimatedCompletionTime = ptr(now.Add(time.Duration(longest * float64(time.Hour))))
	}
	if staffIntake {
		order.ScanHistory = []domain.ScanEntry{{
			Timestamp:    now,
			Action:       status,
			StaffID:      me.ID,
			StaffName:    me.Name,
			RoleInAction: domain.ScanRoleIntake,
		}}
	} else {
		order.ScanHistory = []domain.ScanEntry{}
	}
	s.store.Orders.Put(order)

	s.notifyStore(ownerID, domain.NotifyInfo, orderID, "New order %s for %s (%d)", orderID, customer.Name, order.TotalAmount)
	s.notify(domain.Notification{
		Type:    domain.NotifySuccess,
		UserID:  customer.ID,
		OwnerID: ownerID,
		OrderID: orderID,
		Message: fmt.Sprintf("Order %s received, total %d", orderID, order.TotalAmount),
	})
	s.log.WithField("order", orderID).WithField("owner", ownerID).Info("order created")
	return order, nil
}

func (s *Service) orderIDs() []string {
	orders := s.store.Orders.List()
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

// resolveCustomer returns the customer an order is for. The bool result is
// true when the customer record is new and still has to be stored.
func (s *Service) resolveCustomer(me domain.User, req domain.CreateOrderRequest) (domain.User, bool, error) {
	if me.Role == domain.RoleCustomer {
		if req.CustomerID != "" && req.CustomerID != me.ID {
			return domain.User{}, false, fmt.Errorf("%w: customers order for themselves", ErrForbidden)
		}
		return me, false, nil
	}
	if req.CustomerID != "" {
		u, ok := s.store.Users.Get(req.CustomerID)
		if !ok {
			return domain.User{}, false, fmt.Errorf("%w: customer %s", ErrBrokenReference, req.CustomerID)
		}
		if u.Role != domain.RoleCustomer {
			return domain.User{}, false, fmt.Errorf("%w: %s is not a customer", ErrInvalid, req.CustomerID)
		}
		return u, false, nil
	}
	phone := normalizePhone(req.CustomerPhone)
	if phone == "" {
		return domain.User{}, false, fmt.Errorf("%w: customer_phone is invalid", ErrInvalid)
	}
	if u, ok := s.store.Users.Find(func(u domain.User) bool {
		return u.Role == domain.RoleCustomer && normalizePhone(u.Phone) == phone
	}); ok {
		return u, false, nil
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return domain.User{}, false, fmt.Errorf("%w: customer_name is required for a new customer", ErrInvalid)
	}
	referred := strings.ToUpper(strings.TrimSpace(req.ReferredByCode))
	if referred != "" && !s.referralCodeExists(referred) {
		return domain.User{}, false, fmt.Errorf("%w: unknown referral code %s", ErrInvalid, referred)
	}
	return domain.User{
		ID:             xid.New("cus"),
		Name:           name,
		Phone:          phone,
		Role:           domain.RoleCustomer,
		ReferralCode:   s.newReferralCode(),
		ReferredByCode: referred,
		CreatedAt:      s.now(),
	}, true, nil
}

func (s *Service) checkPickupLocation(ownerID string, location string) error {
	allowed := s.settingsFor(ownerID).PickupLocations
	if len(allowed) > 0 && !slices.Contains(allowed, location) {
		return fmt.Errorf("%w: pickup location %s is not configured for this store", ErrInvalid, location)
	}
	return nil
}

// orderForStaff loads an order the actor may operate on.
func (s *Service) orderForStaff(actor domain.Actor, orderID string) (domain.User, domain.Order, error) {
	me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
	if err != nil {
		return domain.User{}, domain.Order{}, err
	}
	order, ok := s.store.Orders.Get(orderID)
	if !ok {
		return domain.User{}, domain.Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err := s.inTenant(me, order.OwnerID); err != nil {
		return domain.User{}, domain.Order{}, err
	}
	return me, order, nil
}

// UpdateOrderStatus moves an order along its lifecycle and runs the side
// effects tied to the target status.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus, in domain.TransitionInput) (out domain.Order, err error) {
	err = s.do(ctx, "order.transition", func(actor domain.Actor) error {
		out, err = s.transition(actor, orderID, next, in)
		return err
	})
	return out, err
}

// DeleteOrder is the administrative removal of an order. The record stays
// queryable by id.
func (s *Service) DeleteOrder(ctx context.Context, orderID string, reason string) (out domain.Order, err error) {
	err = s.do(ctx, "order.delete", func(actor domain.Actor) error {
		out, err = s.transition(actor, orderID, domain.StatusDeletedByAdmin, domain.TransitionInput{Reason: reason})
		return err
	})
	return out, err
}

func (s *Service) transition(actor domain.Actor, orderID string, next domain.OrderStatus, in domain.TransitionInput) (domain.Order, error) {
	if err := s.check(in); err != nil {
		return domain.Order{}, err
	}
	me, order, err := s.authorizeTransition(actor, orderID, next)
	if err != nil {
		return domain.Order{}, err
	}
	if !canTransition(order.Status, next) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}
	now := s.now()
	reason := strings.TrimSpace(in.Reason)

	var customer domain.User
	if next == domain.StatusReturned || next == domain.StatusCancelled {
		u, ok := s.store.Users.Get(order.Customer.ID)
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: customer %s of order %s", ErrBrokenReference, order.Customer.ID, order.ID)
		}
		customer = u
	}
	switch next {
	case domain.StatusCompleted:
		if pickup := strings.TrimSpace(in.PickupLocation); pickup != "" {
			if err := s.checkPickupLocation(order.OwnerID, pickup); err != nil {
				return domain.Order{}, err
			}
			order.PickupLocation = pickup
		}
		if order.PickupLocation == "" {
			return domain.Order{}, fmt.Errorf("%w: a pickup location must be assigned before completion", ErrInvalid)
		}
	case domain.StatusCancelled:
		if reason == "" {
			return domain.Order{}, fmt.Errorf("%w: a cancellation reason is required", ErrInvalid)
		}
	}

	prev := order.Status
	order.Status = next
	order.ScanHistory = append(slices.Clone(order.ScanHistory), domain.ScanEntry{
		Timestamp:    now,
		Action:       next,
		StaffID:      me.ID,
		StaffName:    me.Name,
		RoleInAction: scanRoleFor(next),
		Note:         reason,
	})

	switch next {
	case domain.StatusProcessing:
		if prev == domain.StatusPending {
			s.deductMaterials(order)
		}
	case domain.StatusCompleted:
		order.CompletedAt = ptr(now)
		s.notifyUser(order.Customer.ID, domain.NotifySuccess, order.ID, "Order %s is ready for pickup at %s", order.ID, order.PickupLocation)
	case domain.StatusReturned:
		order.ReturnedAt = ptr(now)
		s.settleReturn(order, customer)
	case domain.StatusCancelled:
		order.CancellationReason = reason
		customer.InteractionHistory = append(customer.InteractionHistory, domain.Interaction{
			ID:        xid.New("crm"),
			Kind:      "cancellation",
			Summary:   fmt.Sprintf("Order %s cancelled: %s", order.ID, reason),
			StaffID:   me.ID,
			OrderID:   order.ID,
			CreatedAt: now,
		})
		s.store.Users.Put(customer)
		s.notifyUser(order.Customer.ID, domain.NotifyWarning, order.ID, "Order %s was cancelled: %s", order.ID, reason)
	case domain.StatusDeletedByAdmin:
		if reason != "" {
			order.CancellationReason = reason
		}
	}
	s.store.Orders.Put(order)
	if next != domain.StatusCompleted && next != domain.StatusCancelled {
		s.notify(domain.Notification{
			Type:    domain.NotifyInfo,
			UserID:  order.Customer.ID,
			OwnerID: order.OwnerID,
			OrderID: order.ID,
			Message: fmt.Sprintf("Order %s is now %s", order.ID, next),
		})
	}
	return order, nil
}

// authorizeTransition lets store staff move orders of their store, the
// Chairman move any order, and a customer cancel their own order before it
// is being processed. Administrative deletion is reserved to Owner and
// Chairman.
func (s *Service) authorizeTransition(actor domain.Actor, orderID string, next domain.OrderStatus) (domain.User, domain.Order, error) {
	if actor.Anonymous() {
		return domain.User{}, domain.Order{}, fmt.Errorf("%w: sign in required", ErrForbidden)
	}
	if u, ok := s.store.Users.Get(actor.UserID); ok && u.Role == domain.RoleCustomer {
		order, ok := s.store.Orders.Get(orderID)
		if !ok || order.Customer.ID != u.ID {
			return domain.User{}, domain.Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		early := order.Status == domain.StatusWaitingForConfirmation || order.Status == domain.StatusPending
		if next != domain.StatusCancelled || !early {
			return domain.User{}, domain.Order{}, fmt.Errorf("%w: customers may only cancel orders not yet in processing", ErrForbidden)
		}
		return u, order, nil
	}
	me, order, err := s.orderForStaff(actor, orderID)
	if err != nil {
		return domain.User{}, domain.Order{}, err
	}
	if next == domain.StatusDeletedByAdmin && me.Role != domain.RoleOwner && me.Role != domain.RoleChairman {
		return domain.User{}, domain.Order{}, fmt.Errorf("%w: only an owner or the chairman may delete orders", ErrForbidden)
	}
	return me, order, nil
}

// deductMaterials consumes each line's declared materials from the store's
// inventory. Quantities may go negative. A low-stock warning fires only when
// a deduction crosses the threshold from above.
func (s *Service) deductMaterials(order domain.Order) {
	need := make(map[string]float64)
	var names []string
	for _, item := range order.Items {
		for _, m := range item.Service.Materials {
			key := strings.ToLower(strings.TrimSpace(m.ItemName))
			if _, seen := need[key]; !seen {
				names = append(names, key)
			}
			need[key] += m.PerUnit * item.Quantity
		}
	}
	now := s.now()
	for _, key := range names {
		inv, ok := s.inventoryByName(order.OwnerID, key)
		if !ok {
			s.log.WithField("order", order.ID).WithField("material", key).Warn("no inventory item to deduct from")
			continue
		}
		before := inv.Quantity
		inv.Quantity = before - need[key]
		inv.UpdatedAt = now
		s.store.Inventory.Put(inv)
		s.lowStockCheck(inv, before)
	}
}

func (s *Service) lowStockCheck(inv domain.InventoryItem, before float64) {
	if before > inv.LowStockThreshold && inv.Quantity <= inv.LowStockThreshold {
		s.notifyStore(inv.OwnerID, domain.NotifyWarning, "", "%s is low: %s %s left (threshold %s)",
			inv.Name, formatQty(inv.Quantity), inv.Unit, formatQty(inv.LowStockThreshold))
	}
}

func formatQty(q float64) string {
	return decimal.NewFromFloat(q).Round(2).String()
}

func (s *Service) inventoryByName(ownerID string, name string) (domain.InventoryItem, bool) {
	return s.store.Inventory.Find(func(v domain.InventoryItem) bool {
		return v.OwnerID == ownerID && strings.EqualFold(strings.TrimSpace(v.Name), strings.TrimSpace(name))
	})
}

// settleReturn runs the RETURNED side effects on the customer: loyalty
// accrual, lifetime value and tier, and the one-time referral bonus.
func (s *Service) settleReturn(order domain.Order, customer domain.User) {
	settings := s.settingsFor(order.OwnerID)
	now := s.now()

	if settings.LoyaltyEnabled && settings.AccrualRate > 0 {
		points := decimal.NewFromInt(order.TotalAmount).
			Div(decimal.NewFromInt(settings.AccrualRate)).
			Floor().
			IntPart()
		if points > 0 {
			customer.LoyaltyPoints += points
			customer.LoyaltyHistory = append(customer.LoyaltyHistory, domain.LoyaltyEntry{
				ID:        xid.New("loy"),
				Delta:     points,
				Reason:    "earned on order " + order.ID,
				OrderID:   order.ID,
				CreatedAt: now,
			})
			s.notifyUser(customer.ID, domain.NotifySuccess, order.ID, "You earned %d loyalty points on order %s", points, order.ID)
		}
	}
	customer.LifetimeValue += order.TotalAmount
	customer.LoyaltyTier = tierFor(settings.Tiers, customer.LifetimeValue)

	firstOrder := !slices.ContainsFunc(s.store.Orders.List(), func(o domain.Order) bool {
		done := o.Status == domain.StatusCompleted || o.Status == domain.StatusReturned
		return o.ID != order.ID && o.Customer.ID == customer.ID && done
	})
	if firstOrder && customer.ReferredByCode != "" && !customer.HasReceivedReferralBonus {
		referrer, ok := s.store.Users.Find(func(u domain.User) bool {
			return u.ID != customer.ID && strings.EqualFold(u.ReferralCode, customer.ReferredByCode)
		})
		if ok {
			bonus := settings.ReferralBonusPoints
			customer.HasReceivedReferralBonus = true
			customer.LoyaltyPoints += bonus
			customer.LoyaltyHistory = append(customer.LoyaltyHistory, domain.LoyaltyEntry{
				ID: xid.New("loy"), Delta: bonus, Reason: "referral bonus", OrderID: order.ID, CreatedAt: now,
			})
			referrer.LoyaltyPoints += bonus
			referrer.SuccessfulReferrals++
			referrer.LoyaltyHistory = append(referrer.LoyaltyHistory, domain.LoyaltyEntry{
				ID: xid.New("loy"), Delta: bonus, Reason: "referred " + customer.Name, OrderID: order.ID, CreatedAt: now,
			})
			s.store.Users.Put(referrer)
			s.notifyUser(referrer.ID, domain.NotifySuccess, "", "%s completed their first order: %d bonus points", customer.Name, bonus)
			s.notifyUser(customer.ID, domain.NotifySuccess, order.ID, "Referral bonus: %d points", bonus)
		}
	}
	s.store.Users.Put(customer)
}

// tierFor picks the highest tier whose threshold spend reaches, falling back
// to the lowest tier.
func tierFor(tiers []domain.LoyaltyTier, spend int64) string {
	if len(tiers) == 0 {
		return ""
	}
	sorted := slices.Clone(tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinSpend > sorted[j].MinSpend })
	for _, t := range sorted {
		if spend >= t.MinSpend {
			return t.Name
		}
	}
	return sorted[len(sorted)-1].Name
}

func (s *Service) AssignPickupLocation(ctx context.Context, orderID string, location string) (out domain.Order, err error) {
	err = s.do(ctx, "order.pickup", func(actor domain.Actor) error {
		_, order, err := s.orderForStaff(actor, orderID)
		if err != nil {
			return err
		}
		location = strings.TrimSpace(location)
		if location == "" {
			return fmt.Errorf("%w: location is required", ErrInvalid)
		}
		if order.Status.IsTerminal() || order.Status == domain.StatusCancelled {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.ID, order.Status)
		}
		if err := s.checkPickupLocation(order.OwnerID, location); err != nil {
			return err
		}
		order.PickupLocation = location
		s.store.Orders.Put(order)
		out = order
		return nil
	})
	return out, err
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID string, status string) (out domain.Order, err error) {
	err = s.do(ctx, "order.payment", func(actor domain.Actor) error {
		_, order, err := s.orderForStaff(actor, orderID)
		if err != nil {
			return err
		}
		switch status {
		case domain.PaymentUnpaid, domain.PaymentPaid:
		case domain.PaymentRefunded:
			if order.PaymentStatus != domain.PaymentPaid {
				return fmt.Errorf("%w: only paid orders can be refunded", ErrInvalidTransition)
			}
		default:
			return fmt.Errorf("%w: unknown payment status %q", ErrInvalid, status)
		}
		order.PaymentStatus = status
		s.store.Orders.Put(order)
		s.notifyStore(order.OwnerID, domain.NotifyInfo, order.ID, "Order %s payment is %s", order.ID, status)
		out = order
		return nil
	})
	return out, err
}

// GetOrder returns any order visible to the actor, terminal ones included.
func (s *Service) GetOrder(ctx context.Context, orderID string) (out domain.Order, err error) {
	err = s.do(ctx, "order.get", func(actor domain.Actor) error {
		for _, o := range s.visibleOrders(actor) {
			if o.ID == orderID {
				out = o
				return nil
			}
		}
		return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	})
	return out, err
}

// ListOrders returns the actor's visible orders, newest first. Terminal
// orders are left out unless includeTerminal is set.
func (s *Service) ListOrders(ctx context.Context, includeTerminal bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.visibleOrders(actorOf(ctx))
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if includeTerminal || !o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out
}

// LookupOrdersByPhone is the public order lookup. Terminal orders are left out.
func (s *Service) LookupOrdersByPhone(ctx context.Context, phone string) (out []domain.Order, err error) {
	err = s.do(ctx, "order.lookup", func(domain.Actor) error {
		out, err = s.lookupByPhone(phone)
		return err
	})
	return out, err
}

func (s *Service) lookupByPhone(phone string) ([]domain.Order, error) {
	phone = normalizePhone(phone)
	if len(phone) < 6 {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalid)
	}
	orders := s.store.Orders.Filter(func(o domain.Order) bool {
		return !o.Status.IsTerminal() && normalizePhone(o.Customer.Phone) == phone
	})
	for i := range orders {
		orders[i].Customer = orders[i].Customer.Public()
	}
	return orders, nil
}

func (s *Service) visibleOrders(actor domain.Actor) []domain.Order {
	return s.viewOf(actor).Orders
}
