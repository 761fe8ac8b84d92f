package service

import (
	"context"
	"fmt"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

// notify appends to the notification ring, dropping the oldest entries past
// the configured limit. Callers hold s.mu.
func (s *Service) notify(n domain.Notification) domain.Notification {
	if n.ID == "" {
		n.ID = xid.New("ntf")
	}
	if n.Type == "" {
		n.Type = domain.NotifyInfo
	}
	n.CreatedAt = s.now()
	s.store.Notifications.Put(n)
	s.store.Notifications.TrimOldest(s.notificationLimit)
	s.metrics.Notifications(s.store.Notifications.Len())
	return n
}

// notifyStore addresses every member of ownerID's store.
func (s *Service) notifyStore(ownerID string, kind string, orderID string, format string, args ...any) {
	s.notify(domain.Notification{Type: kind, OwnerID: ownerID, OrderID: orderID, Message: fmt.Sprintf(format, args...)})
}

func (s *Service) notifyUser(userID string, kind string, orderID string, format string, args ...any) {
	s.notify(domain.Notification{Type: kind, UserID: userID, OrderID: orderID, Message: fmt.Sprintf(format, args...)})
}

func (s *Service) notifyChairmen(kind string, format string, args ...any) {
	for _, c := range s.chairmen() {
		s.notifyUser(c.ID, kind, "", format, args...)
	}
}

// Notify posts a notification on behalf of store staff or the Chairman. Staff
// may only address their own store or its members.
func (s *Service) Notify(ctx context.Context, req domain.NotificationRequest) (out domain.Notification, err error) {
	err = s.do(ctx, "notification.create", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
		if err != nil {
			return err
		}
		if me.Role != domain.RoleChairman {
			if req.UserID == "" && req.OwnerID == "" {
				return fmt.Errorf("%w: only the chairman may broadcast", ErrForbidden)
			}
			if req.OwnerID != "" {
				if err := s.inTenant(me, req.OwnerID); err != nil {
					return err
				}
			}
			if req.UserID != "" {
				target, ok := s.store.Users.Get(req.UserID)
				if !ok {
					return fmt.Errorf("%w: user %s", ErrBrokenReference, req.UserID)
				}
				if target.Role != domain.RoleCustomer {
					if err := s.inTenant(me, s.ownerOf(target.ID)); err != nil {
						return err
					}
				}
			}
		}
		out = s.notify(domain.Notification{
			Type:    req.Type,
			Message: req.Message,
			UserID:  req.UserID,
			OwnerID: req.OwnerID,
			OrderID: req.OrderID,
		})
		return nil
	})
	return out, err
}

func (s *Service) visibleNotifications(actor domain.Actor) []domain.Notification {
	return s.viewOf(actor).Notifications
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.do(ctx, "notification.read", func(actor domain.Actor) error {
		if _, err := s.member(actor); err != nil {
			return err
		}
		for _, n := range s.visibleNotifications(actor) {
			if n.ID == id {
				n.Read = true
				s.store.Notifications.Put(n)
				return nil
			}
		}
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	})
}

// MarkAllNotificationsRead marks every notification the actor can see.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (count int, err error) {
	err = s.do(ctx, "notification.read_all", func(actor domain.Actor) error {
		if _, err := s.member(actor); err != nil {
			return err
		}
		for _, n := range s.visibleNotifications(actor) {
			if n.Read {
				continue
			}
			n.Read = true
			s.store.Notifications.Put(n)
			count++
		}
		return nil
	})
	return count, err
}

// ClearNotifications removes every notification the actor can see.
func (s *Service) ClearNotifications(ctx context.Context) (count int, err error) {
	err = s.do(ctx, "notification.clear", func(actor domain.Actor) error {
		if _, err := s.member(actor); err != nil {
			return err
		}
		for _, n := range s.visibleNotifications(actor) {
			if s.store.Notifications.Delete(n.ID) {
				count++
			}
		}
		s.metrics.Notifications(s.store.Notifications.Len())
		return nil
	})
	return count, err
}
