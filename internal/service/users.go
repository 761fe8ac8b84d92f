package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/hierarchy"
	"giatla/backend/internal/xid"
)

func (s *Service) referralCodeExists(code string) bool {
	_, ok := s.store.Users.Find(func(u domain.User) bool { return strings.EqualFold(u.ReferralCode, code) })
	return ok
}

func (s *Service) newReferralCode() string {
	for {
		code := xid.ReferralCode()
		if !s.referralCodeExists(code) {
			return code
		}
	}
}

func (s *Service) checkUnique(username string, phone string, exceptID string) error {
	_, clash := s.store.Users.Find(func(u domain.User) bool {
		if u.ID == exceptID {
			return false
		}
		if username != "" && strings.EqualFold(u.Username, username) {
			return true
		}
		return phone != "" && normalizePhone(u.Phone) == phone
	})
	if clash {
		return fmt.Errorf("%w: username or phone already registered", ErrInvalid)
	}
	return nil
}

// RegisterCustomer is the public sign-up. A referral code, when given, must
// belong to an existing user; the bonus itself is paid on the first
// returned order.
func (s *Service) RegisterCustomer(ctx context.Context, req domain.RegisterCustomerRequest) (out domain.User, err error) {
	err = s.do(ctx, "user.register", func(domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		username := strings.TrimSpace(req.Username)
		phone := normalizePhone(req.Phone)
		if err := s.checkUnique(username, phone, ""); err != nil {
			return err
		}
		referred := strings.ToUpper(strings.TrimSpace(req.ReferredByCode))
		if referred != "" && !s.referralCodeExists(referred) {
			return fmt.Errorf("%w: unknown referral code %s", ErrInvalid, referred)
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			return err
		}
		u := domain.User{
			ID:             xid.New("cus"),
			Username:       username,
			Name:           strings.TrimSpace(req.Name),
			Phone:          phone,
			Email:          strings.TrimSpace(req.Email),
			PasswordHash:   hash,
			Role:           domain.RoleCustomer,
			ReferralCode:   s.newReferralCode(),
			ReferredByCode: referred,
			CreatedAt:      s.now(),
		}
		s.store.Users.Put(u)
		s.notifyUser(u.ID, domain.NotifySuccess, "", "Welcome %s, your referral code is %s", u.Name, u.ReferralCode)
		out = u.Public()
		return nil
	})
	return out, err
}

// CreateStaffUser adds a member of the management tree. The Chairman creates
// Owners; Owners create Managers and Staff; Managers create Staff. The new
// user reports to the creator unless ManagedBy names someone inside the
// creator's store.
func (s *Service) CreateStaffUser(ctx context.Context, req domain.StaffUserRequest) (out domain.User, err error) {
	err = s.do(ctx, "user.create_staff", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager)
		if err != nil {
			return err
		}
		if !mayCreate(me.Role, req.Role) {
			return fmt.Errorf("%w: %s may not create %s users", ErrForbidden, me.Role, req.Role)
		}
		managedBy := strings.TrimSpace(req.ManagedBy)
		if managedBy == "" {
			managedBy = me.ID
		}
		if managedBy != me.ID {
			parent, ok := s.store.Users.Get(managedBy)
			if !ok {
				return fmt.Errorf("%w: manager %s", ErrBrokenReference, managedBy)
			}
			if !mayCreate(parent.Role, req.Role) {
				return fmt.Errorf("%w: %s cannot manage %s users", ErrInvalid, parent.Role, req.Role)
			}
			if me.Role != domain.RoleChairman && !hierarchy.Manages(s.users(), me.ID, parent.ID) {
				return fmt.Errorf("%w: manager %s is outside your store", ErrForbidden, managedBy)
			}
		}
		username := strings.TrimSpace(req.Username)
		phone := normalizePhone(req.Phone)
		if err := s.checkUnique(username, phone, ""); err != nil {
			return err
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			return err
		}
		u := domain.User{
			ID:           xid.New(strings.ToLower(string(req.Role))),
			Username:     username,
			Name:         strings.TrimSpace(req.Name),
			Phone:        phone,
			Email:        strings.TrimSpace(req.Email),
			PasswordHash: hash,
			Role:         req.Role,
			ManagedBy:    managedBy,
			CreatedAt:    s.now(),
		}
		if req.Role == domain.RoleOwner {
			u.StoreName = strings.TrimSpace(req.StoreName)
			if u.StoreName == "" {
				u.StoreName = u.Name
			}
		}
		s.store.Users.Put(u)
		if req.Role == domain.RoleOwner {
			settings := domain.DefaultStoreSettings(u.ID)
			settings.UpdatedAt = s.now()
			s.store.StoreSettings.Put(settings)
		}
		if owner := s.ownerOf(u.ID); owner != "" {
			s.notifyStore(owner, domain.NotifyInfo, "", "%s joined as %s", u.Name, u.Role)
		}
		out = u.Public()
		return nil
	})
	return out, err
}

func mayCreate(creator domain.Role, target domain.Role) bool {
	switch creator {
	case domain.RoleChairman:
		return target == domain.RoleOwner
	case domain.RoleOwner:
		return target == domain.RoleManager || target == domain.RoleStaff
	case domain.RoleManager:
		return target == domain.RoleStaff
	}
	return false
}

// editable loads a user the actor may edit: themselves, anyone below them in
// the tree, or anyone at all for the Chairman.
func (s *Service) editable(actor domain.Actor, userID string) (domain.User, domain.User, error) {
	me, err := s.member(actor)
	if err != nil {
		return domain.User{}, domain.User{}, err
	}
	target, ok := s.store.Users.Get(userID)
	if !ok {
		return domain.User{}, domain.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if me.ID != target.ID && me.Role != domain.RoleChairman && !hierarchy.Manages(s.users(), me.ID, target.ID) {
		return domain.User{}, domain.User{}, fmt.Errorf("%w: cannot edit user %s", ErrForbidden, userID)
	}
	return me, target, nil
}

func (s *Service) UpdateUser(ctx context.Context, userID string, req domain.UserUpdate) (out domain.User, err error) {
	err = s.do(ctx, "user.update", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, target, err := s.editable(actor, userID)
		if err != nil {
			return err
		}
		if req.Phone != nil {
			phone := normalizePhone(*req.Phone)
			if err := s.checkUnique("", phone, target.ID); err != nil {
				return err
			}
			target.Phone = phone
		}
		if req.Name != nil {
			target.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			target.Email = strings.TrimSpace(*req.Email)
		}
		if req.StoreName != nil {
			if target.Role != domain.RoleOwner {
				return fmt.Errorf("%w: only owners have a store name", ErrInvalid)
			}
			target.StoreName = strings.TrimSpace(*req.StoreName)
		}
		s.store.Users.Put(target)
		out = target.Public()
		return nil
	})
	return out, err
}

// DeleteUser removes a user nobody reports to. Users cannot delete
// themselves.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.do(ctx, "user.delete", func(actor domain.Actor) error {
		me, target, err := s.editable(actor, userID)
		if err != nil {
			return err
		}
		if me.ID == target.ID {
			return fmt.Errorf("%w: cannot delete yourself", ErrInvalid)
		}
		if _, manages := s.store.Users.Find(func(u domain.User) bool { return u.ManagedBy == target.ID }); manages {
			return fmt.Errorf("%w: %s still manages other users", ErrInvalid, target.Name)
		}
		s.store.Users.Delete(target.ID)
		if target.Role == domain.RoleOwner {
			s.store.StoreSettings.Delete(target.ID)
		}
		return nil
	})
}

func (s *Service) ChangePassword(ctx context.Context, req domain.PasswordChange) error {
	return s.do(ctx, "user.change_password", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor)
		if err != nil {
			return err
		}
		if !verifyPassword(me.PasswordHash, req.Current) {
			return fmt.Errorf("%w: current password does not match", ErrForbidden)
		}
		hash, err := HashPassword(req.New)
		if err != nil {
			return err
		}
		me.PasswordHash = hash
		s.store.Users.Put(me)
		return nil
	})
}

// AddAddress appends an address. The first address, or one flagged
// IsDefault, becomes the only default.
func (s *Service) AddAddress(ctx context.Context, userID string, req domain.AddressRequest) (out domain.User, err error) {
	err = s.do(ctx, "user.add_address", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		_, target, err := s.editable(actor, userID)
		if err != nil {
			return err
		}
		addr := domain.Address{
			ID:        xid.New("addr"),
			Label:     strings.TrimSpace(req.Label),
			Street:    strings.TrimSpace(req.Street),
			IsDefault: req.IsDefault || len(target.Addresses) == 0,
		}
		addresses := slices.Clone(target.Addresses)
		if addr.IsDefault {
			for i := range addresses {
				addresses[i].IsDefault = false
			}
		}
		target.Addresses = append(addresses, addr)
		s.store.Users.Put(target)
		out = target.Public()
		return nil
	})
	return out, err
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID string, addressID string) (out domain.User, err error) {
	err = s.do(ctx, "user.default_address", func(actor domain.Actor) error {
		_, target, err := s.editable(actor, userID)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(target.Addresses, func(a domain.Address) bool { return a.ID == addressID }) {
			return fmt.Errorf("%w: address %s", ErrNotFound, addressID)
		}
		addresses := slices.Clone(target.Addresses)
		for i := range addresses {
			addresses[i].IsDefault = addresses[i].ID == addressID
		}
		target.Addresses = addresses
		s.store.Users.Put(target)
		out = target.Public()
		return nil
	})
	return out, err
}

// RemoveAddress deletes an address; when it was the default, the first
// remaining address takes over.
func (s *Service) RemoveAddress(ctx context.Context, userID string, addressID string) (out domain.User, err error) {
	err = s.do(ctx, "user.remove_address", func(actor domain.Actor) error {
		_, target, err := s.editable(actor, userID)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(target.Addresses, func(a domain.Address) bool { return a.ID == addressID })
		if idx < 0 {
			return fmt.Errorf("%w: address %s", ErrNotFound, addressID)
		}
		wasDefault := target.Addresses[idx].IsDefault
		addresses := slices.Delete(slices.Clone(target.Addresses), idx, idx+1)
		if wasDefault && len(addresses) > 0 {
			addresses[0].IsDefault = true
		}
		target.Addresses = addresses
		s.store.Users.Put(target)
		out = target.Public()
		return nil
	})
	return out, err
}

// LogInteraction appends a CRM note to a customer's record.
func (s *Service) LogInteraction(ctx context.Context, customerID string, req domain.InteractionRequest) (out domain.User, err error) {
	err = s.do(ctx, "user.log_interaction", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
		if err != nil {
			return err
		}
		customer, ok := s.store.Users.Get(customerID)
		if !ok || customer.Role != domain.RoleCustomer {
			return fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
		}
		if req.OrderID != "" {
			order, ok := s.store.Orders.Get(req.OrderID)
			if !ok || order.Customer.ID != customer.ID {
				return fmt.Errorf("%w: order %s of customer %s", ErrBrokenReference, req.OrderID, customerID)
			}
			if err := s.inTenant(me, order.OwnerID); err != nil {
				return err
			}
		}
		customer.InteractionHistory = append(slices.Clone(customer.InteractionHistory), domain.Interaction{
			ID:        xid.New("crm"),
			Kind:      strings.TrimSpace(req.Kind),
			Summary:   strings.TrimSpace(req.Summary),
			StaffID:   me.ID,
			OrderID:   req.OrderID,
			CreatedAt: s.now(),
		})
		s.store.Users.Put(customer)
		out = customer.Public()
		return nil
	})
	return out, err
}

// ListStores lists every Owner as a store. It is public.
func (s *Service) ListStores(ctx context.Context) []domain.StoreSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := s.store.Users.Filter(func(u domain.User) bool { return u.Role == domain.RoleOwner })
	out := make([]domain.StoreSummary, 0, len(owners))
	for _, o := range owners {
		out = append(out, domain.StoreSummary{OwnerID: o.ID, StoreName: storeLabel(o), Phone: o.Phone})
	}
	return out
}

func (s *Service) StoreSettings(ctx context.Context, ownerID string) (out domain.StoreSettings, err error) {
	err = s.do(ctx, "settings.get", func(actor domain.Actor) error {
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner, domain.RoleManager, domain.RoleStaff)
		if err != nil {
			return err
		}
		tenant, err := s.tenantOf(me, ownerID)
		if err != nil {
			return err
		}
		out = s.settingsFor(tenant)
		return nil
	})
	return out, err
}

func (s *Service) UpdateStoreSettings(ctx context.Context, ownerID string, req domain.StoreSettingsRequest) (out domain.StoreSettings, err error) {
	err = s.do(ctx, "settings.update", func(actor domain.Actor) error {
		if err := s.check(req); err != nil {
			return err
		}
		me, err := s.member(actor, domain.RoleChairman, domain.RoleOwner)
		if err != nil {
			return err
		}
		tenant, err := s.tenantOf(me, ownerID)
		if err != nil {
			return err
		}
		out = domain.StoreSettings{
			OwnerID:             tenant,
			LoyaltyEnabled:      req.LoyaltyEnabled,
			AccrualRate:         req.AccrualRate,
			RedemptionValue:     req.RedemptionValue,
			ReferralBonusPoints: req.ReferralBonusPoints,
			Tiers:               req.Tiers,
			PickupLocations:     req.PickupLocations,
			UpdatedAt:           s.now(),
		}
		s.store.StoreSettings.Put(out)
		return nil
	})
	return out, err
}
