// Package seed loads the demo chain into an empty store exactly once per
// storage backend.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/logger"
	"giatla/backend/internal/persist"
	"giatla/backend/internal/service"
	"giatla/backend/internal/store"
	"giatla/backend/internal/xid"
)

//go:embed fixture.yaml
var defaultFixture []byte

type userFixture struct {
	ID           string      `yaml:"id"`
	Username     string      `yaml:"username"`
	Name         string      `yaml:"name"`
	Phone        string      `yaml:"phone"`
	Password     string      `yaml:"password"`
	Role         domain.Role `yaml:"role"`
	ManagedBy    string      `yaml:"managed_by"`
	StoreName    string      `yaml:"store_name"`
	ReferralCode string      `yaml:"referral_code"`
}

type serviceFixture struct {
	ID                  string                 `yaml:"id"`
	Name                string                 `yaml:"name"`
	Unit                string                 `yaml:"unit"`
	WashMethodID        string                 `yaml:"wash_method_id"`
	Price               int64                  `yaml:"price"`
	MinPrice            int64                  `yaml:"min_price"`
	ProcessingTimeHours float64                `yaml:"processing_time_hours"`
	ReturnTimeHours     float64                `yaml:"return_time_hours"`
	Materials           []domain.MaterialUsage `yaml:"materials"`
}

type inventoryFixture struct {
	OwnerID           string  `yaml:"owner_id"`
	Name              string  `yaml:"name"`
	Unit              string  `yaml:"unit"`
	Quantity          float64 `yaml:"quantity"`
	LowStockThreshold float64 `yaml:"low_stock_threshold"`
}

type materialFixture struct {
	Name      string `yaml:"name"`
	Unit      string `yaml:"unit"`
	UnitPrice int64  `yaml:"unit_price"`
	Supplier  string `yaml:"supplier"`
}

type promotionFixture struct {
	OwnerID           string  `yaml:"owner_id"`
	SystemWide        bool    `yaml:"system_wide"`
	Name              string  `yaml:"name"`
	Code              string  `yaml:"code"`
	DiscountType      string  `yaml:"discount_type"`
	DiscountValue     float64 `yaml:"discount_value"`
	MaxDiscountAmount int64   `yaml:"max_discount_amount"`
}

type Fixture struct {
	Users           []userFixture       `yaml:"users"`
	WashMethods     []domain.WashMethod `yaml:"wash_methods"`
	Services        []serviceFixture    `yaml:"services"`
	Inventory       []inventoryFixture  `yaml:"inventory"`
	MaterialItems   []materialFixture   `yaml:"material_items"`
	Promotions      []promotionFixture  `yaml:"promotions"`
	PickupLocations map[string][]string `yaml:"pickup_locations"`
}

func Parse(raw []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse seed fixture: %w", err)
	}
	return f, nil
}

// Default returns the embedded demo fixture.
func Default() (Fixture, error) {
	return Parse(defaultFixture)
}

// Apply fills st from f unless the storage behind adapter was seeded before.
// It reports whether anything was written.
func Apply(ctx context.Context, st *store.Store, adapter *persist.Adapter, f Fixture) (bool, error) {
	if store.Seeded(ctx, adapter) || st.Users.Len() > 0 {
		return false, nil
	}
	now := st.Clock.Now()

	users := make([]domain.User, 0, len(f.Users))
	for _, u := range f.Users {
		hash, err := service.HashPassword(u.Password)
		if err != nil {
			return false, fmt.Errorf("hash password for %s: %w", u.ID, err)
		}
		referral := u.ReferralCode
		if referral == "" {
			referral = xid.ReferralCode()
		}
		users = append(users, domain.User{
			ID:           u.ID,
			Username:     u.Username,
			Name:         u.Name,
			Phone:        u.Phone,
			PasswordHash: hash,
			Role:         u.Role,
			ManagedBy:    u.ManagedBy,
			StoreName:    u.StoreName,
			ReferralCode: referral,
			CreatedAt:    now,
		})
	}
	st.Users.Replace(users)

	var settings []domain.StoreSettings
	for _, u := range users {
		if u.Role != domain.RoleOwner {
			continue
		}
		s := domain.DefaultStoreSettings(u.ID)
		s.PickupLocations = f.PickupLocations[u.ID]
		s.UpdatedAt = now
		settings = append(settings, s)
	}
	st.StoreSettings.Replace(settings)

	st.WashMethods.Replace(f.WashMethods)

	services := make([]domain.ServiceItem, 0, len(f.Services))
	for _, s := range f.Services {
		services = append(services, domain.ServiceItem{
			ID:                  s.ID,
			Name:                s.Name,
			Unit:                s.Unit,
			WashMethodID:        s.WashMethodID,
			Price:               s.Price,
			MinPrice:            s.MinPrice,
			ProcessingTimeHours: s.ProcessingTimeHours,
			ReturnTimeHours:     s.ReturnTimeHours,
			Materials:           s.Materials,
		})
	}
	st.Services.Replace(services)

	inventory := make([]domain.InventoryItem, 0, len(f.Inventory))
	for _, v := range f.Inventory {
		inventory = append(inventory, domain.InventoryItem{
			ID:                xid.New("inv"),
			OwnerID:           v.OwnerID,
			Name:              v.Name,
			Unit:              v.Unit,
			Quantity:          v.Quantity,
			LowStockThreshold: v.LowStockThreshold,
			UpdatedAt:         now,
		})
	}
	st.Inventory.Replace(inventory)

	materials := make([]domain.MaterialItem, 0, len(f.MaterialItems))
	for _, m := range f.MaterialItems {
		materials = append(materials, domain.MaterialItem{
			ID:        xid.New("mat"),
			Name:      m.Name,
			Unit:      m.Unit,
			UnitPrice: m.UnitPrice,
			Supplier:  m.Supplier,
			CreatedAt: now,
		})
	}
	st.MaterialItems.Replace(materials)

	promotions := make([]domain.Promotion, 0, len(f.Promotions))
	for _, p := range f.Promotions {
		promotions = append(promotions, domain.Promotion{
			ID:                xid.New("promo"),
			OwnerID:           p.OwnerID,
			IsSystemWide:      p.SystemWide,
			Name:              p.Name,
			Code:              p.Code,
			DiscountType:      p.DiscountType,
			DiscountValue:     p.DiscountValue,
			MaxDiscountAmount: p.MaxDiscountAmount,
			Status:            domain.PromotionActive,
			CreatedBy:         p.OwnerID,
			CreatedAt:         now,
		})
	}
	st.Promotions.Replace(promotions)

	if err := store.MarkSeeded(ctx, adapter); err != nil {
		return true, fmt.Errorf("mark seeded: %w", err)
	}
	logger.Get("app").WithField("users", len(users)).Info("seeded demo data")
	return true, nil
}
