package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

func (s *Service) AddInventoryItem(ctx context.Context, req domain.InventoryItemRequest) (out domain.InventoryItem, err error) {
	err = s.do(ctx, "inventory.add", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		ownerID, err := s.tenantOf(me, req.OwnerID)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if _, exists := s.inventoryByName(ownerID, name); exists {
			return fmt.Errorf("%w: %s already exists in this store", ErrInvalid, name)
		}
		item := domain.InventoryItem{
			ID:                xid.New("inv"),
			OwnerID:           ownerID,
			Name:              name,
			Unit:              strings.TrimSpace(req.Unit),
			Quantity:          req.Quantity,
			LowStockThreshold: req.LowStockThreshold,
			UpdatedAt:         s.now(),
		}
		s.store.Inventory.Put(item)
		s.notifyStore(ownerID, domain.NotifySuccess, "", "Inventory item %s added", item.Name)
		out = item
		return nil
	})
	return out, err
}

func (s *Service) inventoryForManager(actor domain.Actor, id string) (domain.User, domain.InventoryItem, error) {
	me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
	if err != nil {
		return domain.User{}, domain.InventoryItem{}, err
	}
	item, ok := s.store.Inventory.Get(id)
	if !ok {
		return domain.User{}, domain.InventoryItem{}, fmt.Errorf("%w: inventory item %s", ErrNotFound, id)
	}
	if err := s.inTenant(me, item.OwnerID); err != nil {
		return domain.User{}, domain.InventoryItem{}, err
	}
	return me, item, nil
}

// UpdateInventoryItem edits descriptive fields. Quantity only changes through
// adjustment requests, order processing and received material orders.
func (s *Service) UpdateInventoryItem(ctx context.Context, id string, req domain.InventoryItemUpdate) (out domain.InventoryItem, err error) {
	err = s.do(ctx, "inventory.update", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, item, err := s.inventoryForManager(actor, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if other, exists := s.inventoryByName(item.OwnerID, name); exists && other.ID != item.ID {
				return fmt.Errorf("%w: %s already exists in this store", ErrInvalid, name)
			}
			item.Name = name
		}
		if req.Unit != nil {
			item.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.LowStockThreshold != nil {
			item.LowStockThreshold = *req.LowStockThreshold
		}
		item.UpdatedAt = s.now()
		s.store.Inventory.Put(item)
		out = item
		return nil
	})
	return out, err
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.do(ctx, "inventory.delete", func(actor domain.Actor) error {
		_, item, err := s.inventoryForManager(actor, id)
		if err != nil {
			return err
		}
		pending := s.store.InventoryRequests.Filter(func(r domain.InventoryAdjustmentRequest) bool {
			return r.ItemID == item.ID && r.Status == domain.RequestPending
		})
		if len(pending) > 0 {
			return fmt.Errorf("%w: %s has pending adjustment requests", ErrInvalid, item.Name)
		}
		s.store.Inventory.Delete(item.ID)
		s.notifyStore(item.OwnerID, domain.NotifyInfo, "", "Inventory item %s removed", item.Name)
		return nil
	})
}

// RequestInventoryAdjustment proposes overwriting an item's quantity. The
// item is untouched until an approver resolves the request.
func (s *Service) RequestInventoryAdjustment(ctx context.Context, in domain.InventoryAdjustmentInput) (out domain.InventoryAdjustmentRequest, err error) {
	err = s.do(ctx, "inventory.request_adjustment", func(actor domain.Actor) error {
		if err := s.check(in); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
		if err != nil {
			return err
		}
		item, ok := s.store.Inventory.Get(in.ItemID)
		if !ok {
			return fmt.Errorf("%w: inventory item %s", ErrNotFound, in.ItemID)
		}
		if err := s.inTenant(me, item.OwnerID); err != nil {
			return err
		}
		req := domain.InventoryAdjustmentRequest{
			ID:                xid.New("adj"),
			OwnerID:           item.OwnerID,
			ItemID:            item.ID,
			ItemName:          item.Name,
			CurrentQuantity:   item.Quantity,
			RequestedQuantity: in.RequestedQuantity,
			Reason:            strings.TrimSpace(in.Reason),
			RequestedBy:       me.ID,
			Status:            domain.RequestPending,
			CreatedAt:         s.now(),
		}
		s.store.InventoryRequests.Put(req)
		s.notifyStore(item.OwnerID, domain.NotifyInfo, "", "%s requests %s %s of %s (now %s)",
			me.Name, formatQty(req.RequestedQuantity), item.Unit, item.Name, formatQty(item.Quantity))
		out = req
		return nil
	})
	return out, err
}

// pendingAdjustment loads a pending request and its item for an approver:
// the Chairman, or an Owner or Manager of the item's store.
func (s *Service) pendingAdjustment(actor domain.Actor, requestID string) (domain.User, domain.InventoryAdjustmentRequest, domain.InventoryItem, error) {
	var none domain.InventoryAdjustmentRequest
	me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
	if err != nil {
		return domain.User{}, none, domain.InventoryItem{}, err
	}
	req, ok := s.store.InventoryRequests.Get(requestID)
	if !ok {
		return domain.User{}, none, domain.InventoryItem{}, fmt.Errorf("%w: adjustment request %s", ErrNotFound, requestID)
	}
	if err := s.inTenant(me, req.OwnerID); err != nil {
		return domain.User{}, none, domain.InventoryItem{}, err
	}
	if req.Status != domain.RequestPending {
		return domain.User{}, none, domain.InventoryItem{}, fmt.Errorf("%w: request is already %s", ErrInvalidTransition, req.Status)
	}
	item, ok := s.store.Inventory.Get(req.ItemID)
	if !ok {
		return domain.User{}, none, domain.InventoryItem{}, fmt.Errorf("%w: inventory item %s of request %s", ErrBrokenReference, req.ItemID, req.ID)
	}
	return me, req, item, nil
}

// ApproveInventoryAdjustment overwrites the item quantity with the requested
// value and settles the request and the item history together.
func (s *Service) ApproveInventoryAdjustment(ctx context.Context, requestID string) (out domain.InventoryAdjustmentRequest, err error) {
	err = s.do(ctx, "inventory.approve_adjustment", func(actor domain.Actor) error {
		me, req, item, err := s.pendingAdjustment(actor, requestID)
		if err != nil {
			return err
		}
		now := s.now()
		before := item.Quantity
		item.Quantity = req.RequestedQuantity
		item.UpdatedAt = now
		item.History = append(slices.Clone(item.History), domain.InventoryHistoryEntry{
			ID:               xid.New("invh"),
			RequestID:        req.ID,
			PreviousQuantity: before,
			NewQuantity:      req.RequestedQuantity,
			Reason:           req.Reason,
			RequestedBy:      req.RequestedBy,
			ApprovedBy:       me.ID,
			Status:           domain.RequestApproved,
			CreatedAt:        now,
		})
		req.Status = domain.RequestApproved
		req.ResolvedBy = me.ID
		req.ResolvedAt = ptr(now)

		s.store.Inventory.Put(item)
		s.store.InventoryRequests.Put(req)
		s.lowStockCheck(item, before)
		s.notifyUser(req.RequestedBy, domain.NotifySuccess, "", "Adjustment of %s to %s approved", item.Name, formatQty(item.Quantity))
		out = req
		return nil
	})
	return out, err
}

// RejectInventoryAdjustment leaves the quantity alone but still records the
// outcome in the item history.
func (s *Service) RejectInventoryAdjustment(ctx context.Context, requestID string, reason string) (out domain.InventoryAdjustmentRequest, err error) {
	err = s.do(ctx, "inventory.reject_adjustment", func(actor domain.Actor) error {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return fmt.Errorf("%w: a rejection reason is required", ErrInvalid)
		}
		me, req, item, err := s.pendingAdjustment(actor, requestID)
		if err != nil {
			return err
		}
		now := s.now()
		item.History = append(slices.Clone(item.History), domain.InventoryHistoryEntry{
			ID:               xid.New("invh"),
			RequestID:        req.ID,
			PreviousQuantity: item.Quantity,
			NewQuantity:      req.RequestedQuantity,
			Reason:           req.Reason,
			RequestedBy:      req.RequestedBy,
			ApprovedBy:       me.ID,
			Status:           domain.RequestRejected,
			RejectionReason:  reason,
			CreatedAt:        now,
		})
		req.Status = domain.RequestRejected
		req.ResolvedBy = me.ID
		req.RejectionReason = reason
		req.ResolvedAt = ptr(now)

		s.store.Inventory.Put(item)
		s.store.InventoryRequests.Put(req)
		s.notifyUser(req.RequestedBy, domain.NotifyWarning, "", "Adjustment of %s rejected: %s", item.Name, reason)
		out = req
		return nil
	})
	return out, err
}

// ListInventoryRequests returns the actor's visible requests, optionally
// narrowed to one status.
func (s *Service) ListInventoryRequests(ctx context.Context, status string) []domain.InventoryAdjustmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryAdjustmentRequest, 0)
	for _, r := range s.viewOf(actorOf(ctx)).InventoryRequests {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
