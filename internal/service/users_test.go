package service

import (
	"context"
	"errors"
	"testing"

	"giatla/backend/internal/domain"
)

func TestRegisterCustomerChecksReferralAndUniqueness(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.RegisterCustomer(context.Background(), domain.RegisterCustomerRequest{
		Name: "Minh", Phone: "0933000003", Password: "pass1234", ReferredByCode: "NOPE",
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown referral code, got %v", err)
	}
	if _, err := svc.RegisterCustomer(context.Background(), domain.RegisterCustomerRequest{
		Name: "Copy", Phone: "0911-000-001", Password: "pass1234",
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for taken phone, got %v", err)
	}

	u, err := svc.RegisterCustomer(context.Background(), domain.RegisterCustomerRequest{
		Username: "minh", Name: "Minh", Phone: "0933000003", Password: "pass1234", ReferredByCode: "hoaref01",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleCustomer || u.ReferredByCode != "HOAREF01" || u.ReferralCode == "" || u.PasswordHash != "" {
		t.Fatalf("unexpected registered user %+v", u)
	}
	if _, err := svc.Login(context.Background(), "minh", "pass1234"); err != nil {
		t.Fatalf("new customer should be able to log in: %v", err)
	}
}

func TestCreateStaffUserFollowsTree(t *testing.T) {
	svc, st := newTestService(t)

	owner, err := svc.CreateStaffUser(as("chair"), domain.StaffUserRequest{
		Username: "owner.c", Name: "Owner C", Password: "pass1234", Role: domain.RoleOwner, StoreName: "Store C",
	})
	if err != nil {
		t.Fatalf("chairman creates owner: %v", err)
	}
	if owner.ManagedBy != "chair" {
		t.Fatalf("owner should report to the chairman, got %q", owner.ManagedBy)
	}
	if _, ok := st.StoreSettings.Get(owner.ID); !ok {
		t.Fatalf("new store should get default settings")
	}

	staff, err := svc.CreateStaffUser(as("owner-a"), domain.StaffUserRequest{
		Username: "staff.a2", Name: "Staff A2", Password: "pass1234", Role: domain.RoleStaff, ManagedBy: "mgr-a",
	})
	if err != nil {
		t.Fatalf("owner creates staff under manager: %v", err)
	}
	if staff.ManagedBy != "mgr-a" || svc.ownerOf(staff.ID) != "owner-a" {
		t.Fatalf("staff should sit under mgr-a in store A, got %+v", staff)
	}

	if _, err := svc.CreateStaffUser(as("owner-a"), domain.StaffUserRequest{
		Username: "spy", Name: "Spy", Password: "pass1234", Role: domain.RoleStaff, ManagedBy: "owner-b",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden placing staff in another store, got %v", err)
	}
	if _, err := svc.CreateStaffUser(as("mgr-a"), domain.StaffUserRequest{
		Username: "mgr.a2", Name: "Manager A2", Password: "pass1234", Role: domain.RoleManager,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("managers cannot create managers, got %v", err)
	}
	if _, err := svc.CreateStaffUser(as("owner-a"), domain.StaffUserRequest{
		Username: "STAFF.A", Name: "Dup", Password: "pass1234", Role: domain.RoleStaff,
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for duplicate username, got %v", err)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	svc, st := newTestService(t)

	if err := svc.DeleteUser(as("owner-a"), "owner-a"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self delete should fail, got %v", err)
	}
	if err := svc.DeleteUser(as("owner-a"), "mgr-a"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("deleting a manager with reports should fail, got %v", err)
	}
	if err := svc.DeleteUser(as("owner-a"), "staff-b"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("deleting another store's staff should fail, got %v", err)
	}
	if err := svc.DeleteUser(as("owner-a"), "staff-a"); err != nil {
		t.Fatalf("delete staff: %v", err)
	}
	if _, ok := st.Users.Get("staff-a"); ok {
		t.Fatalf("staff-a should be gone")
	}
}

func TestAddressesKeepSingleDefault(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.AddAddress(as("cus-1"), "cus-1", domain.AddressRequest{Label: "Home", Street: "1 Le Loi"})
	if err != nil {
		t.Fatalf("add home: %v", err)
	}
	if !u.Addresses[0].IsDefault {
		t.Fatalf("first address becomes default")
	}
	u, err = svc.AddAddress(as("cus-1"), "cus-1", domain.AddressRequest{Label: "Work", Street: "9 Nguyen Hue", IsDefault: true})
	if err != nil {
		t.Fatalf("add work: %v", err)
	}
	if u.Addresses[0].IsDefault || !u.Addresses[1].IsDefault {
		t.Fatalf("work should be the only default, got %+v", u.Addresses)
	}
	u, err = svc.RemoveAddress(as("cus-1"), "cus-1", u.Addresses[1].ID)
	if err != nil {
		t.Fatalf("remove work: %v", err)
	}
	if len(u.Addresses) != 1 || !u.Addresses[0].IsDefault {
		t.Fatalf("home should take over as default, got %+v", u.Addresses)
	}
	if _, err := svc.AddAddress(as("staff-b"), "cus-1", domain.AddressRequest{Label: "X", Street: "Y"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff cannot edit arbitrary customers, got %v", err)
	}
}

func TestChangePasswordNeedsCurrent(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.ChangePassword(as("staff-a"), domain.PasswordChange{Current: "wrong", New: "newpass99"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden with a wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(as("staff-a"), domain.PasswordChange{Current: testPassword, New: "newpass99"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "staff.a", "newpass99"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestStoreSettingsScopedToTenant(t *testing.T) {
	svc, _ := newTestService(t)
	req := domain.StoreSettingsRequest{
		LoyaltyEnabled: true, AccrualRate: 5000, RedemptionValue: 500, PickupLocations: []string{"B1"},
	}
	if _, err := svc.UpdateStoreSettings(as("owner-a"), "owner-b", req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner-a cannot edit store B, got %v", err)
	}
	if _, err := svc.UpdateStoreSettings(as("mgr-a"), "", req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("managers cannot edit settings, got %v", err)
	}
	if _, err := svc.UpdateStoreSettings(as("chair"), "", req); !errors.Is(err, ErrInvalid) {
		t.Fatalf("chairman must name the store, got %v", err)
	}
	if _, err := svc.UpdateStoreSettings(as("owner-b"), "", req); err != nil {
		t.Fatalf("owner-b edits own store: %v", err)
	}
	got, err := svc.StoreSettings(as("staff-b"), "")
	if err != nil || got.AccrualRate != 5000 || len(got.PickupLocations) != 1 {
		t.Fatalf("staff-b should read the new settings, got %+v err=%v", got, err)
	}
}

func TestListStoresIsPublic(t *testing.T) {
	svc, _ := newTestService(t)
	stores := svc.ListStores(context.Background())
	if len(stores) != 2 || stores[0].StoreName != "Store A" || stores[1].OwnerID != "owner-b" {
		t.Fatalf("unexpected stores %+v", stores)
	}
}
