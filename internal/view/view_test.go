package view

import (
	"testing"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/store"
)

func fixture() store.Snapshot {
	return store.Snapshot{
		Users: []domain.User{
			{ID: "chair", Role: domain.RoleChairman, PasswordHash: "secret"},
			{ID: "owner-a", Role: domain.RoleOwner, ManagedBy: "chair"},
			{ID: "mgr-a", Role: domain.RoleManager, ManagedBy: "owner-a"},
			{ID: "staff-a", Role: domain.RoleStaff, ManagedBy: "mgr-a"},
			{ID: "owner-b", Role: domain.RoleOwner, ManagedBy: "chair"},
			{ID: "staff-b", Role: domain.RoleStaff, ManagedBy: "owner-b"},
			{ID: "orphan", Role: domain.RoleStaff},
			{ID: "cust-1", Role: domain.RoleCustomer, PasswordHash: "hash"},
			{ID: "cust-2", Role: domain.RoleCustomer},
		},
		Orders: []domain.Order{
			{ID: "DH-001", OwnerID: "owner-a", Customer: domain.User{ID: "cust-1", PasswordHash: "hash"}},
			{ID: "DH-002", OwnerID: "owner-b", Customer: domain.User{ID: "cust-2"}},
		},
		Inventory: []domain.InventoryItem{
			{ID: "inv-a", OwnerID: "owner-a"},
			{ID: "inv-b", OwnerID: "owner-b"},
		},
		Promotions: []domain.Promotion{
			{ID: "promo-a", OwnerID: "owner-a", Status: domain.PromotionActive},
			{ID: "promo-sys", OwnerID: "chair", IsSystemWide: true, Status: domain.PromotionActive},
			{ID: "promo-b", OwnerID: "owner-b", Status: domain.PromotionPending},
		},
		Notifications: []domain.Notification{
			{ID: "n-public"},
			{ID: "n-store-a", OwnerID: "owner-a"},
			{ID: "n-store-b", OwnerID: "owner-b"},
			{ID: "n-staff-a", UserID: "staff-a"},
			{ID: "n-orphan", UserID: "orphan"},
			{ID: "n-order-1", OrderID: "DH-001", OwnerID: "owner-a"},
			{ID: "n-cust-1", UserID: "cust-1"},
		},
		KPIs: []domain.KPI{
			{ID: "k-a", UserID: "staff-a", OwnerID: "owner-a"},
			{ID: "k-b", UserID: "staff-b", OwnerID: "owner-b"},
		},
		Tips: []domain.Tip{
			{ID: "tip-a", OwnerID: "owner-a", CustomerID: "cust-1"},
			{ID: "tip-b", OwnerID: "owner-b", CustomerID: "cust-2"},
		},
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func notificationIDs(s store.Snapshot) []string {
	return ids(s.Notifications, func(n domain.Notification) string { return n.ID })
}

func sameSet(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}

func TestAnonymousSeesPublicSliceOnly(t *testing.T) {
	out := Filter(domain.Actor{}, fixture())
	if len(out.Orders) != 2 || len(out.Promotions) != 3 {
		t.Fatalf("expected all orders and promotions, got %d/%d", len(out.Orders), len(out.Promotions))
	}
	if got := notificationIDs(out); !sameSet(got, "n-public") {
		t.Fatalf("unexpected public notifications: %v", got)
	}
	if len(out.Users) != 0 || len(out.Inventory) != 0 || len(out.KPIs) != 0 {
		t.Fatalf("administrative collections must be empty for anonymous sessions")
	}
	if out.Orders[0].Customer.PasswordHash != "" {
		t.Fatalf("order customer snapshot leaked a password hash")
	}
}

func TestUnknownActorIsTreatedAsAnonymous(t *testing.T) {
	out := Filter(domain.Actor{UserID: "ghost", Role: domain.RoleChairman}, fixture())
	if len(out.Users) != 0 {
		t.Fatalf("unknown user must not inherit the role it claims")
	}
}

func TestCustomerSeesOwnOrdersAndLinkedNotifications(t *testing.T) {
	out := Filter(domain.Actor{UserID: "cust-1", Role: domain.RoleCustomer}, fixture())
	if got := ids(out.Orders, func(o domain.Order) string { return o.ID }); !sameSet(got, "DH-001") {
		t.Fatalf("unexpected orders: %v", got)
	}
	if got := notificationIDs(out); !sameSet(got, "n-order-1", "n-cust-1") {
		t.Fatalf("unexpected notifications: %v", got)
	}
	if len(out.Inventory) != 0 || len(out.KPIs) != 0 {
		t.Fatalf("customer must not see administrative collections")
	}
	if len(out.Users) != 1 || out.Users[0].PasswordHash != "" {
		t.Fatalf("expected a single scrubbed self record, got %+v", out.Users)
	}
}

func TestChairmanSeesEverything(t *testing.T) {
	snap := fixture()
	out := Filter(domain.Actor{UserID: "chair"}, snap)
	if len(out.Orders) != len(snap.Orders) || len(out.Notifications) != len(snap.Notifications) || len(out.Inventory) != len(snap.Inventory) {
		t.Fatalf("chairman view must be unfiltered")
	}
	for _, u := range out.Users {
		if u.PasswordHash != "" {
			t.Fatalf("password hash leaked for %s", u.ID)
		}
	}
	if snap.Users[0].PasswordHash != "secret" {
		t.Fatalf("filter mutated its input")
	}
}

func TestStoreRolesAreTenantIsolated(t *testing.T) {
	snap := fixture()
	for _, userID := range []string{"owner-a", "mgr-a", "staff-a"} {
		out := Filter(domain.Actor{UserID: userID}, snap)
		for _, o := range out.Orders {
			if o.OwnerID != "owner-a" {
				t.Fatalf("%s sees foreign order %s", userID, o.ID)
			}
		}
		for _, v := range out.Inventory {
			if v.OwnerID != "owner-a" {
				t.Fatalf("%s sees foreign inventory %s", userID, v.ID)
			}
		}
		for _, p := range out.Promotions {
			if p.OwnerID != "owner-a" {
				t.Fatalf("%s sees foreign promotion %s", userID, p.ID)
			}
		}
		for _, k := range out.KPIs {
			if k.OwnerID != "owner-a" {
				t.Fatalf("%s sees foreign kpi %s", userID, k.ID)
			}
		}
		for _, tip := range out.Tips {
			if tip.OwnerID != "owner-a" {
				t.Fatalf("%s sees foreign tip %s", userID, tip.ID)
			}
		}
		for _, u := range out.Users {
			if u.ID == "staff-b" || u.ID == "owner-b" || u.ID == "cust-2" {
				t.Fatalf("%s sees user %s of another store", userID, u.ID)
			}
		}
	}
}

func TestManagerSeesSubordinateNotifications(t *testing.T) {
	out := Filter(domain.Actor{UserID: "mgr-a"}, fixture())
	if got := notificationIDs(out); !sameSet(got, "n-store-a", "n-staff-a", "n-order-1") {
		t.Fatalf("unexpected notifications: %v", got)
	}
}

func TestOrphanedStaffSeesOnlySelfAddressedNotifications(t *testing.T) {
	out := Filter(domain.Actor{UserID: "orphan"}, fixture())
	if len(out.Orders) != 0 || len(out.Inventory) != 0 {
		t.Fatalf("orphaned staff must see no tenant records")
	}
	if got := notificationIDs(out); !sameSet(got, "n-orphan") {
		t.Fatalf("unexpected notifications: %v", got)
	}
}
