// Package store holds every entity collection in memory and writes each one
// back to the persistence adapter independently.
package store

import (
	"context"
	"time"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/persist"
)

// Collection names double as persistence keys (after persist.Namespace) and
// must not change.
const (
	CollUsers             = "users"
	CollOrders            = "orders"
	CollServices          = "services"
	CollWashMethods       = "wash_methods"
	CollInventory         = "inventory"
	CollInventoryRequests = "inventory_requests"
	CollNotifications     = "notifications"
	CollPromotions        = "promotions"
	CollKPIs              = "kpis"
	CollVariableCosts     = "variable_costs"
	CollFixedCosts        = "fixed_costs"
	CollFixedCostHistory  = "fixed_cost_history"
	CollServiceRatings    = "service_ratings"
	CollStaffRatings      = "staff_ratings"
	CollTips              = "tips"
	CollMaterialItems     = "material_items"
	CollMaterialOrders    = "material_orders"
	CollStoreSettings     = "store_settings"
)

const seededKey = "seeded"

type Store struct {
	Clock *Clock

	Users             *Collection[domain.User]
	Orders            *Collection[domain.Order]
	Services          *Collection[domain.ServiceItem]
	WashMethods       *Collection[domain.WashMethod]
	Inventory         *Collection[domain.InventoryItem]
	InventoryRequests *Collection[domain.InventoryAdjustmentRequest]
	Notifications     *Collection[domain.Notification]
	Promotions        *Collection[domain.Promotion]
	KPIs              *Collection[domain.KPI]
	VariableCosts     *Collection[domain.VariableCost]
	FixedCosts        *Collection[domain.FixedCostItem]
	FixedCostHistory  *Collection[domain.FixedCostHistory]
	ServiceRatings    *Collection[domain.ServiceRating]
	StaffRatings      *Collection[domain.StaffRating]
	Tips              *Collection[domain.Tip]
	MaterialItems     *Collection[domain.MaterialItem]
	MaterialOrders    *Collection[domain.MaterialOrder]
	StoreSettings     *Collection[domain.StoreSettings]

	all []flushable
}

type flushable interface {
	Name() string
	Dirty() (bool, time.Time)
	flush(ctx context.Context, adapter *persist.Adapter) error
	load(ctx context.Context, adapter *persist.Adapter)
}

func New(clock *Clock) *Store {
	if clock == nil {
		clock = NewClock()
	}
	s := &Store{
		Clock:             clock,
		Users:             NewCollection(CollUsers, "user", func(v domain.User) string { return v.ID }, clock),
		Orders:            NewCollection(CollOrders, "order", func(v domain.Order) string { return v.ID }, clock),
		Services:          NewCollection(CollServices, "", func(v domain.ServiceItem) string { return v.ID }, clock),
		WashMethods:       NewCollection(CollWashMethods, "", func(v domain.WashMethod) string { return v.ID }, clock),
		Inventory:         NewCollection(CollInventory, "inventory_item", func(v domain.InventoryItem) string { return v.ID }, clock),
		InventoryRequests: NewCollection(CollInventoryRequests, "inventory_request", func(v domain.InventoryAdjustmentRequest) string { return v.ID }, clock),
		Notifications:     NewCollection(CollNotifications, "notification", func(v domain.Notification) string { return v.ID }, clock),
		Promotions:        NewCollection(CollPromotions, "promotion", func(v domain.Promotion) string { return v.ID }, clock),
		KPIs:              NewCollection(CollKPIs, "kpi", func(v domain.KPI) string { return v.ID }, clock),
		VariableCosts:     NewCollection(CollVariableCosts, "variable_cost", func(v domain.VariableCost) string { return v.ID }, clock),
		FixedCosts:        NewCollection(CollFixedCosts, "fixed_cost", func(v domain.FixedCostItem) string { return v.ID }, clock),
		FixedCostHistory:  NewCollection(CollFixedCostHistory, "fixed_cost_history", func(v domain.FixedCostHistory) string { return v.ID }, clock),
		ServiceRatings:    NewCollection(CollServiceRatings, "service_rating", func(v domain.ServiceRating) string { return v.ID }, clock),
		StaffRatings:      NewCollection(CollStaffRatings, "staff_rating", func(v domain.StaffRating) string { return v.ID }, clock),
		Tips:              NewCollection(CollTips, "tip", func(v domain.Tip) string { return v.ID }, clock),
		MaterialItems:     NewCollection(CollMaterialItems, "material_item", func(v domain.MaterialItem) string { return v.ID }, clock),
		MaterialOrders:    NewCollection(CollMaterialOrders, "material_order", func(v domain.MaterialOrder) string { return v.ID }, clock),
		StoreSettings:     NewCollection(CollStoreSettings, "store_settings", func(v domain.StoreSettings) string { return v.OwnerID }, clock),
	}
	s.all = []flushable{
		s.Users, s.Orders, s.Services, s.WashMethods, s.Inventory, s.InventoryRequests,
		s.Notifications, s.Promotions, s.KPIs, s.VariableCosts, s.FixedCosts,
		s.FixedCostHistory, s.ServiceRatings, s.StaffRatings, s.Tips,
		s.MaterialItems, s.MaterialOrders, s.StoreSettings,
	}
	return s
}

// Names lists every collection name in a stable order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.all))
	for _, c := range s.all {
		names = append(names, c.Name())
	}
	return names
}

// Load hydrates every collection from the adapter. Missing or unreadable keys
// leave that collection empty.
func (s *Store) Load(ctx context.Context, adapter *persist.Adapter) {
	RegisterSchemas(adapter.Reviver())
	for _, c := range s.all {
		c.load(ctx, adapter)
	}
}

// Seeded reports whether the one-time seed routine already ran against this
// storage.
func Seeded(ctx context.Context, adapter *persist.Adapter) bool {
	return persist.Load(ctx, adapter, persist.Key(seededKey), false, "")
}

func MarkSeeded(ctx context.Context, adapter *persist.Adapter) error {
	return adapter.Save(ctx, persist.Key(seededKey), true)
}

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Users             []domain.User                       `json:"users"`
	Orders            []domain.Order                      `json:"orders"`
	Services          []domain.ServiceItem                `json:"services"`
	WashMethods       []domain.WashMethod                 `json:"wash_methods"`
	Inventory         []domain.InventoryItem              `json:"inventory"`
	InventoryRequests []domain.InventoryAdjustmentRequest `json:"inventory_requests"`
	Notifications     []domain.Notification               `json:"notifications"`
	Promotions        []domain.Promotion                  `json:"promotions"`
	KPIs              []domain.KPI                        `json:"kpis"`
	VariableCosts     []domain.VariableCost               `json:"variable_costs"`
	FixedCosts        []domain.FixedCostItem              `json:"fixed_costs"`
	FixedCostHistory  []domain.FixedCostHistory           `json:"fixed_cost_history"`
	ServiceRatings    []domain.ServiceRating              `json:"service_ratings"`
	StaffRatings      []domain.StaffRating                `json:"staff_ratings"`
	Tips              []domain.Tip                        `json:"tips"`
	MaterialItems     []domain.MaterialItem               `json:"material_items"`
	MaterialOrders    []domain.MaterialOrder              `json:"material_orders"`
	StoreSettings     []domain.StoreSettings              `json:"store_settings"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Users:             s.Users.List(),
		Orders:            s.Orders.List(),
		Services:          s.Services.List(),
		WashMethods:       s.WashMethods.List(),
		Inventory:         s.Inventory.List(),
		InventoryRequests: s.InventoryRequests.List(),
		Notifications:     s.Notifications.List(),
		Promotions:        s.Promotions.List(),
		KPIs:              s.KPIs.List(),
		VariableCosts:     s.VariableCosts.List(),
		FixedCosts:        s.FixedCosts.List(),
		FixedCostHistory:  s.FixedCostHistory.List(),
		ServiceRatings:    s.ServiceRatings.List(),
		StaffRatings:      s.StaffRatings.List(),
		Tips:              s.Tips.List(),
		MaterialItems:     s.MaterialItems.List(),
		MaterialOrders:    s.MaterialOrders.List(),
		StoreSettings:     s.StoreSettings.List(),
	}
}
