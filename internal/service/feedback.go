package service

import (
	"context"
	"fmt"
	"strings"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

// feedbackOrder loads the order feedback refers to. Customers may only leave
// feedback on their own orders; store staff may record it for their store.
// The order must have been completed.
func (s *Service) feedbackOrder(actor domain.Actor, orderID string) (domain.User, domain.Order, error) {
	me, err := s.member(actor)
	if err != nil {
		return domain.User{}, domain.Order{}, err
	}
	order, ok := s.store.Orders.Get(orderID)
	if !ok {
		return domain.User{}, domain.Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if me.Role == domain.RoleCustomer {
		if order.Customer.ID != me.ID {
			return domain.User{}, domain.Order{}, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
		}
	} else if err := s.inTenant(me, order.OwnerID); err != nil {
		return domain.User{}, domain.Order{}, err
	}
	if order.Status != domain.StatusCompleted && order.Status != domain.StatusReturned {
		return domain.User{}, domain.Order{}, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.ID, order.Status)
	}
	return me, order, nil
}

// staffOfOrder checks that staffID works for the order's store.
func (s *Service) staffOfOrder(order domain.Order, staffID string) (domain.User, error) {
	staff, ok := s.store.Users.Get(staffID)
	if !ok || !staff.Role.IsStoreRole() {
		return domain.User{}, fmt.Errorf("%w: staff member %s", ErrBrokenReference, staffID)
	}
	if s.ownerOf(staff.ID) != order.OwnerID {
		return domain.User{}, fmt.Errorf("%w: %s does not work for this store", ErrInvalid, staff.Name)
	}
	return staff, nil
}

func (s *Service) AddServiceRating(ctx context.Context, req domain.ServiceRatingRequest) (out domain.ServiceRating, err error) {
	err = s.do(ctx, "feedback.service_rating", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, order, err := s.feedbackOrder(actor, req.OrderID)
		if err != nil {
			return err
		}
		if _, dup := s.store.ServiceRatings.Find(func(r domain.ServiceRating) bool { return r.OrderID == order.ID }); dup {
			return fmt.Errorf("%w: order %s is already rated", ErrInvalid, order.ID)
		}
		rating := domain.ServiceRating{
			ID:         xid.New("sr"),
			OrderID:    order.ID,
			OwnerID:    order.OwnerID,
			CustomerID: order.Customer.ID,
			Rating:     req.Rating,
			Comment:    strings.TrimSpace(req.Comment),
			CreatedAt:  s.now(),
		}
		s.store.ServiceRatings.Put(rating)
		s.notifyStore(order.OwnerID, domain.NotifyInfo, order.ID, "Order %s rated %d/5", order.ID, rating.Rating)
		out = rating
		return nil
	})
	return out, err
}

func (s *Service) AddStaffRating(ctx context.Context, req domain.StaffRatingRequest) (out domain.StaffRating, err error) {
	err = s.do(ctx, "feedback.staff_rating", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, order, err := s.feedbackOrder(actor, req.OrderID)
		if err != nil {
			return err
		}
		staff, err := s.staffOfOrder(order, req.StaffID)
		if err != nil {
			return err
		}
		if _, dup := s.store.StaffRatings.Find(func(r domain.StaffRating) bool {
			return r.OrderID == order.ID && r.StaffID == staff.ID
		}); dup {
			return fmt.Errorf("%w: %s is already rated for order %s", ErrInvalid, staff.Name, order.ID)
		}
		rating := domain.StaffRating{
			ID:         xid.New("stf"),
			OrderID:    order.ID,
			OwnerID:    order.OwnerID,
			StaffID:    staff.ID,
			CustomerID: order.Customer.ID,
			Rating:     req.Rating,
			Comment:    strings.TrimSpace(req.Comment),
			CreatedAt:  s.now(),
		}
		s.store.StaffRatings.Put(rating)
		s.notifyUser(staff.ID, domain.NotifyInfo, order.ID, "You were rated %d/5 on order %s", rating.Rating, order.ID)
		out = rating
		return nil
	})
	return out, err
}

func (s *Service) AddTip(ctx context.Context, req domain.TipRequest) (out domain.Tip, err error) {
	err = s.do(ctx, "feedback.tip", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, order, err := s.feedbackOrder(actor, req.OrderID)
		if err != nil {
			return err
		}
		staff, err := s.staffOfOrder(order, req.StaffID)
		if err != nil {
			return err
		}
		tip := domain.Tip{
			ID:         xid.New("tip"),
			OrderID:    order.ID,
			OwnerID:    order.OwnerID,
			StaffID:    staff.ID,
			CustomerID: order.Customer.ID,
			Amount:     req.Amount,
			CreatedAt:  s.now(),
		}
		s.store.Tips.Put(tip)
		s.notifyUser(staff.ID, domain.NotifySuccess, order.ID, "You received a tip of %d on order %s", tip.Amount, order.ID)
		out = tip
		return nil
	})
	return out, err
}
