// Package view derives the slice of the store a session may see. Filter is
// pure: it never mutates its input and holds no state between calls.
package view

import (
	"giatla/backend/internal/domain"
	"giatla/backend/internal/hierarchy"
	"giatla/backend/internal/store"
)

// Filter returns the records visible to actor. The actor's role is taken from
// the user record, not from the caller; an actor with no matching user is
// treated as anonymous.
func Filter(actor domain.Actor, snap store.Snapshot) store.Snapshot {
	idx := hierarchy.NewIndex(snap.Users)
	self, known := idx.User(actor.UserID)
	if actor.Anonymous() || !known {
		return public(snap)
	}

	switch self.Role {
	case domain.RoleChairman:
		out := snap
		out.Users = publicUsers(snap.Users)
		out.Orders = scrubOrders(snap.Orders)
		return out
	case domain.RoleCustomer:
		return customer(self, snap)
	default:
		return tenant(self, idx, snap)
	}
}

func public(snap store.Snapshot) store.Snapshot {
	out := empty()
	out.Orders = scrubOrders(snap.Orders)
	out.Notifications = keep(snap.Notifications, func(n domain.Notification) bool {
		return n.UserID == "" && n.OwnerID == ""
	})
	out.Promotions = keep(snap.Promotions, func(domain.Promotion) bool { return true })
	return out
}

func customer(self domain.User, snap store.Snapshot) store.Snapshot {
	out := empty()
	own := make(map[string]bool)
	out.Orders = scrubOrders(keep(snap.Orders, func(o domain.Order) bool {
		if o.Customer.ID == self.ID {
			own[o.ID] = true
			return true
		}
		return false
	}))
	out.Notifications = keep(snap.Notifications, func(n domain.Notification) bool {
		return n.UserID == self.ID || (n.OrderID != "" && own[n.OrderID])
	})
	out.Users = []domain.User{self.Public()}
	out.Services = keep(snap.Services, func(domain.ServiceItem) bool { return true })
	out.WashMethods = keep(snap.WashMethods, func(domain.WashMethod) bool { return true })
	out.Promotions = keep(snap.Promotions, func(p domain.Promotion) bool { return p.Status == domain.PromotionActive })
	out.ServiceRatings = keep(snap.ServiceRatings, func(r domain.ServiceRating) bool { return r.CustomerID == self.ID })
	out.StaffRatings = keep(snap.StaffRatings, func(r domain.StaffRating) bool { return r.CustomerID == self.ID })
	out.Tips = keep(snap.Tips, func(t domain.Tip) bool { return t.CustomerID == self.ID })
	return out
}

func tenant(self domain.User, idx hierarchy.Index, snap store.Snapshot) store.Snapshot {
	out := empty()
	subs := hierarchy.Subordinates(snap.Users, self.ID)
	addressed := func(userID string) bool { return userID == self.ID || subs[userID] }

	ownerID := hierarchy.ResolveOwnerID(idx, self.ID)
	if ownerID == "" {
		out.Users = []domain.User{self.Public()}
		out.Notifications = keep(snap.Notifications, func(n domain.Notification) bool { return addressed(n.UserID) })
		return out
	}
	mine := func(id string) bool { return id == ownerID }

	out.Orders = scrubOrders(keep(snap.Orders, func(o domain.Order) bool { return mine(o.OwnerID) }))
	customers := make(map[string]bool)
	for _, o := range out.Orders {
		customers[o.Customer.ID] = true
	}
	out.Users = publicUsers(keep(snap.Users, func(u domain.User) bool {
		if u.Role == domain.RoleCustomer {
			return customers[u.ID]
		}
		return hierarchy.ResolveOwnerID(idx, u.ID) == ownerID
	}))
	out.Notifications = keep(snap.Notifications, func(n domain.Notification) bool {
		return mine(n.OwnerID) || addressed(n.UserID)
	})

	out.Services = keep(snap.Services, func(domain.ServiceItem) bool { return true })
	out.WashMethods = keep(snap.WashMethods, func(domain.WashMethod) bool { return true })
	out.MaterialItems = keep(snap.MaterialItems, func(domain.MaterialItem) bool { return true })

	out.Inventory = keep(snap.Inventory, func(v domain.InventoryItem) bool { return mine(v.OwnerID) })
	out.InventoryRequests = keep(snap.InventoryRequests, func(v domain.InventoryAdjustmentRequest) bool { return mine(v.OwnerID) })
	out.Promotions = keep(snap.Promotions, func(v domain.Promotion) bool { return mine(v.OwnerID) })
	out.KPIs = keep(snap.KPIs, func(v domain.KPI) bool { return mine(v.OwnerID) })
	out.VariableCosts = keep(snap.VariableCosts, func(v domain.VariableCost) bool { return mine(v.OwnerID) })
	out.FixedCosts = keep(snap.FixedCosts, func(v domain.FixedCostItem) bool { return mine(v.OwnerID) })
	out.FixedCostHistory = keep(snap.FixedCostHistory, func(v domain.FixedCostHistory) bool { return mine(v.OwnerID) })
	out.ServiceRatings = keep(snap.ServiceRatings, func(v domain.ServiceRating) bool { return mine(v.OwnerID) })
	out.StaffRatings = keep(snap.StaffRatings, func(v domain.StaffRating) bool { return mine(v.OwnerID) })
	out.Tips = keep(snap.Tips, func(v domain.Tip) bool { return mine(v.OwnerID) })
	out.MaterialOrders = keep(snap.MaterialOrders, func(v domain.MaterialOrder) bool { return mine(v.OwnerID) })
	out.StoreSettings = keep(snap.StoreSettings, func(v domain.StoreSettings) bool { return mine(v.OwnerID) })
	return out
}

func keep[T any](in []T, pred func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func publicUsers(in []domain.User) []domain.User {
	out := make([]domain.User, 0, len(in))
	for _, u := range in {
		out = append(out, u.Public())
	}
	return out
}

func scrubOrders(in []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(in))
	for _, o := range in {
		o.Customer = o.Customer.Public()
		out = append(out, o)
	}
	return out
}

func empty() store.Snapshot {
	return store.Snapshot{
		Users:             []domain.User{},
		Orders:            []domain.Order{},
		Services:          []domain.ServiceItem{},
		WashMethods:       []domain.WashMethod{},
		Inventory:         []domain.InventoryItem{},
		InventoryRequests: []domain.InventoryAdjustmentRequest{},
		Notifications:     []domain.Notification{},
		Promotions:        []domain.Promotion{},
		KPIs:              []domain.KPI{},
		VariableCosts:     []domain.VariableCost{},
		FixedCosts:        []domain.FixedCostItem{},
		FixedCostHistory:  []domain.FixedCostHistory{},
		ServiceRatings:    []domain.ServiceRating{},
		StaffRatings:      []domain.StaffRating{},
		Tips:              []domain.Tip{},
		MaterialItems:     []domain.MaterialItem{},
		MaterialOrders:    []domain.MaterialOrder{},
		StoreSettings:     []domain.StoreSettings{},
	}
}
