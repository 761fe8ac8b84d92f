package domain

import "time"

type OrderLineRequest struct {
	ServiceID    string  `json:"service_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	WashMethodID string  `json:"wash_method_id,omitempty"`
	Notes        string  `json:"notes,omitempty" validate:"max=500"`
}

// CreateOrderRequest identifies the customer either by CustomerID or by phone.
// Unknown phones register a new Customer. OwnerID is ignored for store staff,
// whose own store is used.
type CreateOrderRequest struct {
	OwnerID        string             `json:"owner_id,omitempty"`
	CustomerID     string             `json:"customer_id,omitempty"`
	CustomerName   string             `json:"customer_name,omitempty" validate:"max=120"`
	CustomerPhone  string             `json:"customer_phone,omitempty" validate:"max=20"`
	ReferredByCode string             `json:"referred_by_code,omitempty"`
	Items          []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	Channel        string             `json:"channel,omitempty" validate:"omitempty,oneof=in_store online chat"`
	PromotionCode  string             `json:"promotion_code,omitempty"`
	PointsToRedeem int64              `json:"points_to_redeem,omitempty" validate:"gte=0"`
	PickupLocation string             `json:"pickup_location,omitempty"`
	Notes          string             `json:"notes,omitempty" validate:"max=1000"`
}

type TransitionInput struct {
	PickupLocation string `json:"pickup_location,omitempty"`
	Reason         string `json:"reason,omitempty" validate:"max=500"`
}

type InventoryItemRequest struct {
	OwnerID           string  `json:"owner_id,omitempty"`
	Name              string  `json:"name" validate:"required,max=120"`
	Unit              string  `json:"unit" validate:"required,max=30"`
	Quantity          float64 `json:"quantity" validate:"gte=0"`
	LowStockThreshold float64 `json:"low_stock_threshold" validate:"gte=0"`
}

type InventoryItemUpdate struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Unit              *string  `json:"unit,omitempty" validate:"omitempty,min=1,max=30"`
	LowStockThreshold *float64 `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

type InventoryAdjustmentInput struct {
	ItemID            string  `json:"item_id" validate:"required"`
	RequestedQuantity float64 `json:"requested_quantity" validate:"gte=0"`
	Reason            string  `json:"reason" validate:"required,max=500"`
}

type PromotionRequest struct {
	Name                    string         `json:"name" validate:"required,max=120"`
	Code                    string         `json:"code" validate:"required,alphanum,max=30"`
	DiscountType            string         `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue           float64        `json:"discount_value" validate:"gt=0"`
	MaxDiscountAmount       int64          `json:"max_discount_amount,omitempty" validate:"gte=0"`
	MinOrderAmount          int64          `json:"min_order_amount,omitempty" validate:"gte=0"`
	StartDate               *time.Time     `json:"start_date,omitempty"`
	EndDate                 *time.Time     `json:"end_date,omitempty"`
	ApplicableDaysOfWeek    []time.Weekday `json:"applicable_days_of_week,omitempty" validate:"dive,gte=0,lte=6"`
	ApplicableChannels      []string       `json:"applicable_channels,omitempty" validate:"dive,oneof=in_store online chat"`
	ApplicableServiceIDs    []string       `json:"applicable_service_ids,omitempty"`
	ApplicableWashMethodIDs []string       `json:"applicable_wash_method_ids,omitempty"`
	UsageLimit              int            `json:"usage_limit,omitempty" validate:"gte=0"`
	UsageLimitPerCustomer   int            `json:"usage_limit_per_customer,omitempty" validate:"gte=0"`
}

// PromotionQuery describes the order a promotion code is being checked
// against. Items may be empty when no line-level allow-list applies.
type PromotionQuery struct {
	Code       string
	StoreID    string
	Channel    string
	CustomerID string
	Subtotal   int64
	Items      []OrderItem
}

type VariableCostRequest struct {
	OwnerID     string     `json:"owner_id,omitempty"`
	Category    string     `json:"category" validate:"required,max=60"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Amount      int64      `json:"amount" validate:"gt=0"`
	IncurredAt  *time.Time `json:"incurred_at,omitempty"`
}

type FixedCostInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	MonthlyAmount int64  `json:"monthly_amount" validate:"gte=0"`
}

type FinancialSummary struct {
	OwnerID       string    `json:"owner_id"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	OrderCount    int       `json:"order_count"`
	Revenue       int64     `json:"revenue"`
	VariableCosts int64     `json:"variable_costs"`
	FixedCosts    int64     `json:"fixed_costs"`
	Profit        int64     `json:"profit"`
}

type ServiceRatingRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

type StaffRatingRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	StaffID string `json:"staff_id" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

type TipRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	StaffID string `json:"staff_id" validate:"required"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type RegisterCustomerRequest struct {
	Username       string `json:"username,omitempty" validate:"omitempty,min=3,max=40"`
	Name           string `json:"name" validate:"required,max=120"`
	Phone          string `json:"phone" validate:"required,min=6,max=20"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	ReferredByCode string `json:"referred_by_code,omitempty"`
}

type StaffUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=40"`
	Name      string `json:"name" validate:"required,max=120"`
	Phone     string `json:"phone,omitempty" validate:"max=20"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      Role   `json:"role" validate:"required,oneof=Owner Manager Staff"`
	ManagedBy string `json:"managed_by,omitempty"`
	StoreName string `json:"store_name,omitempty" validate:"max=120"`
}

type UserUpdate struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	StoreName *string `json:"store_name,omitempty" validate:"omitempty,max=120"`
}

type PasswordChange struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=6,max=72"`
}

type AddressRequest struct {
	Label     string `json:"label" validate:"required,max=60"`
	Street    string `json:"street" validate:"required,max=300"`
	IsDefault bool   `json:"is_default"`
}

type InteractionRequest struct {
	Kind    string `json:"kind" validate:"required,max=40"`
	Summary string `json:"summary" validate:"required,max=1000"`
	OrderID string `json:"order_id,omitempty"`
}

type StoreSettingsRequest struct {
	LoyaltyEnabled      bool          `json:"loyalty_enabled"`
	AccrualRate         int64         `json:"accrual_rate" validate:"gt=0"`
	RedemptionValue     int64         `json:"redemption_value" validate:"gte=0"`
	ReferralBonusPoints int64         `json:"referral_bonus_points" validate:"gte=0"`
	Tiers               []LoyaltyTier `json:"tiers,omitempty" validate:"dive"`
	PickupLocations     []string      `json:"pickup_locations,omitempty" validate:"dive,required,max=30"`
}

type StoreSummary struct {
	OwnerID   string `json:"owner_id"`
	StoreName string `json:"store_name"`
	Phone     string `json:"phone,omitempty"`
}

type MaterialItemRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Unit      string `json:"unit" validate:"required,max=30"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Supplier  string `json:"supplier,omitempty" validate:"max=120"`
}

type MaterialOrderLineRequest struct {
	MaterialID string  `json:"material_id" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
}

type MaterialOrderRequest struct {
	OwnerID string                     `json:"owner_id,omitempty"`
	Lines   []MaterialOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes   string                     `json:"notes,omitempty" validate:"max=1000"`
}

type WashMethodRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type ServiceRequest struct {
	Name                string          `json:"name" validate:"required,max=120"`
	Unit                string          `json:"unit" validate:"required,max=30"`
	WashMethodID        string          `json:"wash_method_id" validate:"required"`
	Price               int64           `json:"price" validate:"gte=0"`
	MinPrice            int64           `json:"min_price,omitempty" validate:"gte=0"`
	ProcessingTimeHours float64         `json:"processing_time_hours" validate:"gte=0"`
	ReturnTimeHours     float64         `json:"return_time_hours" validate:"gtefield=ProcessingTimeHours"`
	Materials           []MaterialUsage `json:"materials,omitempty" validate:"dive"`
}

type NotificationRequest struct {
	Type    string `json:"type" validate:"required,oneof=info success warning error"`
	Message string `json:"message" validate:"required,max=1000"`
	UserID  string `json:"user_id,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}
