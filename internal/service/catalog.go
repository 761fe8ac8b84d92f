package service

import (
	"context"
	"fmt"
	"strings"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/xid"
)

func (s *Service) catalogEditor(actor domain.Actor) error {
	_, err := s.member(actor, domain.RoleChairman, domain.RoleOwner)
	return err
}

func (s *Service) AddWashMethod(ctx context.Context, req domain.WashMethodRequest) (out domain.WashMethod, err error) {
	err = s.do(ctx, "catalog.add_wash_method", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if _, dup := s.store.WashMethods.Find(func(w domain.WashMethod) bool { return strings.EqualFold(w.Name, name) }); dup {
			return fmt.Errorf("%w: wash method %s already exists", ErrInvalid, name)
		}
		out = domain.WashMethod{ID: xid.New("wm"), Name: name, Description: strings.TrimSpace(req.Description)}
		s.store.WashMethods.Put(out)
		return nil
	})
	return out, err
}

func (s *Service) UpdateWashMethod(ctx context.Context, id string, req domain.WashMethodRequest) (out domain.WashMethod, err error) {
	err = s.do(ctx, "catalog.update_wash_method", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		wm, ok := s.store.WashMethods.Get(id)
		if !ok {
			return fmt.Errorf("%w: wash method %s", ErrNotFound, id)
		}
		wm.Name = strings.TrimSpace(req.Name)
		wm.Description = strings.TrimSpace(req.Description)
		s.store.WashMethods.Put(wm)
		out = wm
		return nil
	})
	return out, err
}

// DeleteWashMethod refuses while any service still uses the method.
func (s *Service) DeleteWashMethod(ctx context.Context, id string) error {
	return s.do(ctx, "catalog.delete_wash_method", func(actor domain.Actor) error {
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		if _, ok := s.store.WashMethods.Get(id); !ok {
			return fmt.Errorf("%w: wash method %s", ErrNotFound, id)
		}
		if svc, used := s.store.Services.Find(func(v domain.ServiceItem) bool { return v.WashMethodID == id }); used {
			return fmt.Errorf("%w: wash method is used by service %s", ErrInvalid, svc.Name)
		}
		s.store.WashMethods.Delete(id)
		return nil
	})
}

func (s *Service) serviceFromRequest(id string, req domain.ServiceRequest) (domain.ServiceItem, error) {
	if err := s.check(req); err != nil {
		return domain.ServiceItem{}, err
	}
	if _, ok := s.store.WashMethods.Get(req.WashMethodID); !ok {
		return domain.ServiceItem{}, fmt.Errorf("%w: wash method %s", ErrBrokenReference, req.WashMethodID)
	}
	return domain.ServiceItem{
		ID:                  id,
		Name:                strings.TrimSpace(req.Name),
		Unit:                strings.TrimSpace(req.Unit),
		WashMethodID:        req.WashMethodID,
		Price:               req.Price,
		MinPrice:            req.MinPrice,
		ProcessingTimeHours: req.ProcessingTimeHours,
		ReturnTimeHours:     req.ReturnTimeHours,
		Materials:           req.Materials,
	}, nil
}

func (s *Service) AddService(ctx context.Context, req domain.ServiceRequest) (out domain.ServiceItem, err error) {
	err = s.do(ctx, "catalog.add_service", func(actor domain.Actor) error {
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		item, err := s.serviceFromRequest(xid.New("svc"), req)
		if err != nil {
			return err
		}
		s.store.Services.Put(item)
		out = item
		return nil
	})
	return out, err
}

// UpdateService replaces a catalog entry. Existing orders keep the snapshot
// they were priced with.
func (s *Service) UpdateService(ctx context.Context, id string, req domain.ServiceRequest) (out domain.ServiceItem, err error) {
	err = s.do(ctx, "catalog.update_service", func(actor domain.Actor) error {
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		if _, ok := s.store.Services.Get(id); !ok {
			return fmt.Errorf("%w: service %s", ErrNotFound, id)
		}
		item, err := s.serviceFromRequest(id, req)
		if err != nil {
			return err
		}
		s.store.Services.Put(item)
		out = item
		return nil
	})
	return out, err
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	return s.do(ctx, "catalog.delete_service", func(actor domain.Actor) error {
		if err := s.catalogEditor(actor); err != nil {
			return err
		}
		if !s.store.Services.Delete(id) {
			return fmt.Errorf("%w: service %s", ErrNotFound, id)
		}
		return nil
	})
}
