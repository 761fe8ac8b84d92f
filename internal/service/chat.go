package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"giatla/backend/internal/domain"
)

const (
	ChatLookup      = "lookup"
	ChatCreateOrder = "create_order"
	ChatFreeText    = "free_text"
)

// ChatIntent is one structured reply from the chat assistant. The concrete
// types below are the only implementations.
type ChatIntent interface {
	Kind() string
}

type LookupIntent struct {
	Phone string `json:"phone" validate:"required,min=6,max=20"`
}

type ChatOrderLine struct {
	ServiceName string  `json:"service_name" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Notes       string  `json:"notes,omitempty" validate:"max=500"`
}

// CreateOrderIntent names things the way a customer would. StoreID and
// service names are hints and are matched against real records.
type CreateOrderIntent struct {
	StoreID       string          `json:"store_id,omitempty"`
	StoreName     string          `json:"store_name,omitempty"`
	CustomerName  string          `json:"customer_name" validate:"required,max=120"`
	CustomerPhone string          `json:"customer_phone" validate:"required,min=6,max=20"`
	Items         []ChatOrderLine `json:"items" validate:"required,min=1,dive"`
	Notes         string          `json:"notes,omitempty" validate:"max=1000"`
}

type FreeTextIntent struct {
	Text string `json:"text" validate:"required"`
}

func (LookupIntent) Kind() string      { return ChatLookup }
func (CreateOrderIntent) Kind() string { return ChatCreateOrder }
func (FreeTextIntent) Kind() string    { return ChatFreeText }

// ChatResult carries the outcome of a dispatched intent; which fields are set
// depends on Kind.
type ChatResult struct {
	Kind   string         `json:"kind"`
	Orders []domain.Order `json:"orders,omitempty"`
	Order  *domain.Order  `json:"order,omitempty"`
	Reply  string         `json:"reply,omitempty"`
}

// ParseChatIntent decodes raw by its "kind" discriminator.
func ParseChatIntent(raw []byte) (ChatIntent, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed chat payload: %v", ErrInvalid, err)
	}
	var intent ChatIntent
	switch head.Kind {
	case ChatLookup:
		var v LookupIntent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		intent = v
	case ChatCreateOrder:
		var v CreateOrderIntent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		intent = v
	case ChatFreeText:
		var v FreeTextIntent
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		intent = v
	default:
		return nil, fmt.Errorf("%w: unknown chat kind %q", ErrInvalid, head.Kind)
	}
	return intent, nil
}

// HandleChatRequest validates an assistant reply and dispatches it. Orders
// created this way always wait for the store's confirmation.
func (s *Service) HandleChatRequest(ctx context.Context, raw []byte) (out ChatResult, err error) {
	err = s.do(ctx, "chat.dispatch", func(actor domain.Actor) error {
		intent, err := ParseChatIntent(raw)
		if err != nil {
			return err
		}
		if err := s.check(intent); err != nil {
			return err
		}
		out.Kind = intent.Kind()
		switch v := intent.(type) {
		case LookupIntent:
			orders, err := s.lookupByPhone(v.Phone)
			if err != nil {
				return err
			}
			out.Orders = orders
		case CreateOrderIntent:
			req, err := s.chatOrderRequest(v)
			if err != nil {
				return err
			}
			order, err := s.createOrder(actor, req, orderOptions{
				channel:     domain.ChannelChat,
				forceStatus: domain.StatusWaitingForConfirmation,
			})
			if err != nil {
				return err
			}
			out.Order = &order
		case FreeTextIntent:
			out.Reply = strings.TrimSpace(v.Text)
		}
		return nil
	})
	return out, err
}

// chatOrderRequest maps assistant-declared names onto real records: the
// store by id among Owners, else by store name; services by name.
func (s *Service) chatOrderRequest(in CreateOrderIntent) (domain.CreateOrderRequest, error) {
	owner, ok := s.store.Users.Find(func(u domain.User) bool {
		return u.Role == domain.RoleOwner && in.StoreID != "" && u.ID == in.StoreID
	})
	if !ok {
		name := strings.TrimSpace(in.StoreName)
		owner, ok = s.store.Users.Find(func(u domain.User) bool {
			return u.Role == domain.RoleOwner && name != "" && strings.EqualFold(storeLabel(u), name)
		})
	}
	if !ok {
		return domain.CreateOrderRequest{}, fmt.Errorf("%w: store %q is not known", ErrBrokenReference, firstNonEmpty(in.StoreID, in.StoreName))
	}

	lines := make([]domain.OrderLineRequest, 0, len(in.Items))
	for _, item := range in.Items {
		name := strings.TrimSpace(item.ServiceName)
		svc, ok := s.store.Services.Find(func(v domain.ServiceItem) bool { return strings.EqualFold(v.Name, name) })
		if !ok {
			return domain.CreateOrderRequest{}, fmt.Errorf("%w: service %q is not offered", ErrBrokenReference, name)
		}
		lines = append(lines, domain.OrderLineRequest{ServiceID: svc.ID, Quantity: item.Quantity, Notes: item.Notes})
	}
	return domain.CreateOrderRequest{
		OwnerID:       owner.ID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Items:         lines,
		Notes:         in.Notes,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
