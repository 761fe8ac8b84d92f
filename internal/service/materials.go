package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

func (s *Service) AddMaterialItem(ctx context.Context, req domain.MaterialItemRequest) (out domain.MaterialItem, err error) {
	err = s.do(ctx, "material.add_item", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		if _, err := s.member(actor, domain.RoleChairman, domain.RoleOwner); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if _, dup := s.store.MaterialItems.Find(func(m domain.MaterialItem) bool { return strings.EqualFold(m.Name, name) }); dup {
			return fmt.Errorf("%w: material %s already exists", ErrInvalid, name)
		}
		item := domain.MaterialItem{
			ID:        xid.New("mat"),
			Name:      name,
			Unit:      strings.TrimSpace(req.Unit),
			UnitPrice: req.UnitPrice,
			Supplier:  strings.TrimSpace(req.Supplier),
			CreatedAt: s.now(),
		}
		s.store.MaterialItems.Put(item)
		out = item
		return nil
	})
	return out, err
}

// CreateMaterialOrder files a purchase of catalog materials for the Chairman
// to approve. Unit prices are snapshotted from the catalog.
func (s *Service) CreateMaterialOrder(ctx context.Context, req domain.MaterialOrderRequest) (out domain.MaterialOrder, err error) {
	err = s.do(ctx, "material.create_order", func(actor domain.Actor) error {
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
		lines := make([]domain.MaterialOrderLine, 0, len(req.Lines))
		var total int64
		for _, l := range req.Lines {
			m, ok := s.store.MaterialItems.Get(l.MaterialID)
			if !ok {
				return fmt.Errorf("%w: material %s", ErrBrokenReference, l.MaterialID)
			}
			lines = append(lines, domain.MaterialOrderLine{
				MaterialID: m.ID,
				Name:       m.Name,
				Unit:       m.Unit,
				Quantity:   l.Quantity,
				UnitPrice:  m.UnitPrice,
			})
			total += int64(math.Round(float64(m.UnitPrice) * l.Quantity))
		}
		order := domain.MaterialOrder{
			ID:          xid.New("mo"),
			OwnerID:     ownerID,
			Lines:       lines,
			TotalAmount: total,
			Status:      domain.MaterialOrderPending,
			Notes:       strings.TrimSpace(req.Notes),
			RequestedBy: me.ID,
			CreatedAt:   s.now(),
		}
		s.store.MaterialOrders.Put(order)
		s.notifyChairmen(domain.NotifyInfo, "Material order %s awaits approval (%d)", order.ID, order.TotalAmount)
		out = order
		return nil
	})
	return out, err
}

func (s *Service) resolveMaterialOrder(ctx context.Context, action string, id string, approve bool, reason string) (out domain.MaterialOrder, err error) {
	err = s.do(ctx, action, func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman)
		if err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		if !approve && reason == "" {
			return fmt.Errorf("%w: a rejection reason is required", ErrInvalid)
		}
		order, ok := s.store.MaterialOrders.Get(id)
		if !ok {
			return fmt.Errorf("%w: material order %s", ErrNotFound, id)
		}
		if order.Status != domain.MaterialOrderPending {
			return fmt.Errorf("%w: material order is %s", ErrInvalidTransition, order.Status)
		}
		order.Status = domain.MaterialOrderRejected
		if approve {
			order.Status = domain.MaterialOrderApproved
		}
		order.ResolvedBy = me.ID
		order.RejectionReason = reason
		order.ResolvedAt = ptr(s.now())
		s.store.MaterialOrders.Put(order)
		s.notifyStore(order.OwnerID, domain.NotifyInfo, "", "Material order %s was %s", order.ID, order.Status)
		out = order
		return nil
	})
	return out, err
}

func (s *Service) ApproveMaterialOrder(ctx context.Context, id string) (domain.MaterialOrder, error) {
	return s.resolveMaterialOrder(ctx, "material.approve_order", id, true, "")
}

func (s *Service) RejectMaterialOrder(ctx context.Context, id string, reason string) (domain.MaterialOrder, error) {
	return s.resolveMaterialOrder(ctx, "material.reject_order", id, false, reason)
}

// ReceiveMaterialOrder books an approved delivery into the store inventory,
// creating inventory items for materials the store did not stock yet.
func (s *Service) ReceiveMaterialOrder(ctx context.Context, id string) (out domain.MaterialOrder, err error) {
	err = s.do(ctx, "material.receive_order", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		order, ok := s.store.MaterialOrders.Get(id)
		if !ok {
			return fmt.Errorf("%w: material order %s", ErrNotFound, id)
		}
		if err := s.inTenant(me, order.OwnerID); err != nil {
			return err
		}
		if order.Status != domain.MaterialOrderApproved {
			return fmt.Errorf("%w: material order is %s", ErrInvalidTransition, order.Status)
		}
		now := s.now()
		for _, line := range order.Lines {
			inv, ok := s.inventoryByName(order.OwnerID, line.Name)
			if !ok {
				inv = domain.InventoryItem{
					ID:      xid.New("inv"),
					OwnerID: order.OwnerID,
					Name:    line.Name,
					Unit:    line.Unit,
				}
			}
			before := inv.Quantity
			inv.Quantity = before + line.Quantity
			inv.UpdatedAt = now
			inv.History = append(slices.Clone(inv.History), domain.InventoryHistoryEntry{
				ID:               xid.New("invh"),
				PreviousQuantity: before,
				NewQuantity:      inv.Quantity,
				Reason:           "received material order " + order.ID,
				RequestedBy:      order.RequestedBy,
				ApprovedBy:       me.ID,
				Status:           domain.RequestApproved,
				CreatedAt:        now,
			})
			s.store.Inventory.Put(inv)
		}
		order.Status = domain.MaterialOrderReceived
		order.ReceivedAt = ptr(now)
		s.store.MaterialOrders.Put(order)
		s.notifyStore(order.OwnerID, domain.NotifySuccess, "", "Material order %s received into inventory", order.ID)
		out = order
		return nil
	})
	return out, err
}
