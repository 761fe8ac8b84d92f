package domain

import (
	"math"
	"time"
)

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleStaff    Role = "Staff"
	RoleManager  Role = "Manager"
	RoleOwner    Role = "Owner"
	RoleChairman Role = "Chairman"
)

// IsStoreRole reports whether the role works inside a single store.
func (r Role) IsStoreRole() bool {
	return r == RoleOwner || r == RoleManager || r == RoleStaff
}

type Address struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Street    string `json:"street"`
	IsDefault bool   `json:"is_default"`
}

type LoyaltyEntry struct {
	ID        string    `json:"id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Interaction struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Summary   string    `json:"summary"`
	StaffID   string    `json:"staff_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID                       string         `json:"id"`
	Username                 string         `json:"username"`
	Name                     string         `json:"name"`
	Phone                    string         `json:"phone"`
	Email                    string         `json:"email,omitempty"`
	PasswordHash             string         `json:"password_hash,omitempty"`
	Role                     Role           `json:"role"`
	ManagedBy                string         `json:"managed_by,omitempty"`
	StoreName                string         `json:"store_name,omitempty"`
	LoyaltyPoints            int64          `json:"loyalty_points"`
	LoyaltyHistory           []LoyaltyEntry `json:"loyalty_history,omitempty"`
	LoyaltyTier              string         `json:"loyalty_tier,omitempty"`
	LifetimeValue            int64          `json:"lifetime_value"`
	Addresses                []Address      `json:"addresses,omitempty"`
	InteractionHistory       []Interaction  `json:"interaction_history,omitempty"`
	ReferralCode             string         `json:"referral_code,omitempty"`
	ReferredByCode           string         `json:"referred_by_code,omitempty"`
	HasReceivedReferralBonus bool           `json:"has_received_referral_bonus"`
	SuccessfulReferrals      int            `json:"successful_referrals"`
	CreatedAt                time.Time      `json:"created_at"`
}

// Public strips credentials before a user record leaves the core.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

type OrderStatus string

const (
	StatusWaitingForConfirmation OrderStatus = "WAITING_FOR_CONFIRMATION"
	StatusPending                OrderStatus = "PENDING"
	StatusProcessing             OrderStatus = "PROCESSING"
	StatusCompleted              OrderStatus = "COMPLETED"
	StatusReturned               OrderStatus = "RETURNED"
	StatusCancelled              OrderStatus = "CANCELLED"
	StatusDeletedByAdmin         OrderStatus = "DELETED_BY_ADMIN"
)

// IsTerminal reports whether no further transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusDeletedByAdmin
}

const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	ChannelInStore = "in_store"
	ChannelOnline  = "online"
	ChannelChat    = "chat"
)

const (
	ScanRoleIntake     = "intake"
	ScanRoleProcessing = "processing"
	ScanRoleReturn     = "return"
	ScanRoleCancel     = "cancel"
	ScanRoleAdmin      = "admin"
)

type ScanEntry struct {
	Timestamp    time.Time   `json:"timestamp"`
	Action       OrderStatus `json:"action"`
	StaffID      string      `json:"staff_id"`
	StaffName    string      `json:"staff_name,omitempty"`
	RoleInAction string      `json:"role_in_action"`
	Note         string      `json:"note,omitempty"`
}

type MaterialUsage struct {
	ItemName string  `json:"item_name" yaml:"item_name" validate:"required"`
	PerUnit  float64 `json:"per_unit" yaml:"per_unit" validate:"gt=0"`
}

type ServiceItem struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Unit                string          `json:"unit"`
	WashMethodID        string          `json:"wash_method_id"`
	Price               int64           `json:"price"`
	MinPrice            int64           `json:"min_price,omitempty"`
	ProcessingTimeHours float64         `json:"processing_time_hours"`
	ReturnTimeHours     float64         `json:"return_time_hours"`
	Materials           []MaterialUsage `json:"materials,omitempty"`
}

type WashMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type OrderItem struct {
	Service      ServiceItem `json:"service"`
	Quantity     float64     `json:"quantity"`
	WashMethodID string      `json:"wash_method_id"`
	Notes        string      `json:"notes,omitempty"`
}

// LineTotal applies the service minimum price floor to a single line.
func (i OrderItem) LineTotal() int64 {
	total := int64(math.Round(float64(i.Service.Price) * i.Quantity))
	if total < i.Service.MinPrice {
		return i.Service.MinPrice
	}
	return total
}

type Order struct {
	ID                      string      `json:"id"`
	OwnerID                 string      `json:"owner_id"`
	Customer                User        `json:"customer"`
	Items                   []OrderItem `json:"items"`
	Status                  OrderStatus `json:"status"`
	PaymentStatus           string      `json:"payment_status"`
	Channel                 string      `json:"channel"`
	Subtotal                int64       `json:"subtotal"`
	PromotionID             string      `json:"promotion_id,omitempty"`
	PromotionCode           string      `json:"promotion_code,omitempty"`
	PromotionDiscount       int64       `json:"promotion_discount"`
	LoyaltyPointsRedeemed   int64       `json:"loyalty_points_redeemed"`
	LoyaltyDiscount         int64       `json:"loyalty_discount"`
	TotalAmount             int64       `json:"total_amount"`
	PickupLocation          string      `json:"pickup_location,omitempty"`
	CancellationReason      string      `json:"cancellation_reason,omitempty"`
	Notes                   string      `json:"notes,omitempty"`
	ReceivedAt              time.Time   `json:"received_at"`
	EstimatedCompletionTime *time.Time  `json:"estimated_completion_time,omitempty"`
	CompletedAt             *time.Time  `json:"completed_at,omitempty"`
	ReturnedAt              *time.Time  `json:"returned_at,omitempty"`
	ScanHistory             []ScanEntry `json:"scan_history"`
}

// ComputeSubtotal sums every line with its minimum-price floor applied.
func ComputeSubtotal(items []OrderItem) int64 {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal()
	}
	return subtotal
}

type InventoryHistoryEntry struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id,omitempty"`
	PreviousQuantity float64   `json:"previous_quantity"`
	NewQuantity      float64   `json:"new_quantity"`
	Reason           string    `json:"reason,omitempty"`
	RequestedBy      string    `json:"requested_by"`
	ApprovedBy       string    `json:"approved_by,omitempty"`
	Status           string    `json:"status"`
	RejectionReason  string    `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type InventoryItem struct {
	ID                string                  `json:"id"`
	OwnerID           string                  `json:"owner_id"`
	Name              string                  `json:"name"`
	Unit              string                  `json:"unit"`
	Quantity          float64                 `json:"quantity"`
	LowStockThreshold float64                 `json:"low_stock_threshold"`
	History           []InventoryHistoryEntry `json:"history,omitempty"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type InventoryAdjustmentRequest struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	ItemID            string     `json:"item_id"`
	ItemName          string     `json:"item_name"`
	CurrentQuantity   float64    `json:"current_quantity"`
	RequestedQuantity float64    `json:"requested_quantity"`
	Reason            string     `json:"reason"`
	RequestedBy       string     `json:"requested_by"`
	Status            string     `json:"status"`
	ResolvedBy        string     `json:"resolved_by,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

const (
	PromotionPending  = "pending"
	PromotionActive   = "active"
	PromotionRejected = "rejected"
	PromotionInactive = "inactive"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type OptOutRequest struct {
	ID          string     `json:"id"`
	StoreID     string     `json:"store_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	RequestedAt time.Time  `json:"requested_at"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type CancellationRequest struct {
	ID          string     `json:"id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	RequestedAt time.Time  `json:"requested_at"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type Promotion struct {
	ID                      string               `json:"id"`
	OwnerID                 string               `json:"owner_id"`
	IsSystemWide            bool                 `json:"is_system_wide"`
	Name                    string               `json:"name"`
	Code                    string               `json:"code"`
	DiscountType            string               `json:"discount_type"`
	DiscountValue           float64              `json:"discount_value"`
	MaxDiscountAmount       int64                `json:"max_discount_amount,omitempty"`
	MinOrderAmount          int64                `json:"min_order_amount,omitempty"`
	Status                  string               `json:"status"`
	StartDate               *time.Time           `json:"start_date,omitempty"`
	EndDate                 *time.Time           `json:"end_date,omitempty"`
	ApplicableDaysOfWeek    []time.Weekday       `json:"applicable_days_of_week,omitempty"`
	ApplicableChannels      []string             `json:"applicable_channels,omitempty"`
	ApplicableServiceIDs    []string             `json:"applicable_service_ids,omitempty"`
	ApplicableWashMethodIDs []string             `json:"applicable_wash_method_ids,omitempty"`
	UsageLimit              int                  `json:"usage_limit,omitempty"`
	UsageLimitPerCustomer   int                  `json:"usage_limit_per_customer,omitempty"`
	TimesUsed               int                  `json:"times_used"`
	UsedByCustomerIDs       []string             `json:"used_by_customer_ids,omitempty"`
	AppliedOrderIDs         []string             `json:"applied_order_ids,omitempty"`
	OptOutRequests          []OptOutRequest      `json:"opt_out_requests,omitempty"`
	CancellationRequest     *CancellationRequest `json:"cancellation_request,omitempty"`
	CreatedBy               string               `json:"created_by"`
	CreatedAt               time.Time            `json:"created_at"`
}

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type KPI struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	OwnerID       string    `json:"owner_id,omitempty"`
	PeriodType    string    `json:"period_type"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	OrdersHandled int       `json:"orders_handled"`
	OnTimeRate    float64   `json:"on_time_rate"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	TotalTips     int64     `json:"total_tips"`
	CalculatedAt  time.Time `json:"calculated_at"`
}

type VariableCost struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      int64     `json:"amount"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type FixedCostItem struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	MonthlyAmount int64     `json:"monthly_amount"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type FixedCostHistory struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	PreviousItems []FixedCostItem `json:"previous_items"`
	ChangedBy     string          `json:"changed_by"`
	ChangedAt     time.Time       `json:"changed_at"`
}

type ServiceRating struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	OwnerID    string    `json:"owner_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type StaffRating struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	OwnerID    string    `json:"owner_id"`
	StaffID    string    `json:"staff_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tip struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	OwnerID    string    `json:"owner_id"`
	StaffID    string    `json:"staff_id"`
	CustomerID string    `json:"customer_id"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification addressing: UserID set targets one user, OwnerID alone targets
// a store's staff, neither set is public.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	UserID    string    `json:"user_id,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type LoyaltyTier struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	MinSpend int64  `json:"min_spend" yaml:"min_spend" validate:"gte=0"`
}

type StoreSettings struct {
	OwnerID             string        `json:"owner_id"`
	LoyaltyEnabled      bool          `json:"loyalty_enabled"`
	AccrualRate         int64         `json:"accrual_rate"`
	RedemptionValue     int64         `json:"redemption_value"`
	ReferralBonusPoints int64         `json:"referral_bonus_points"`
	Tiers               []LoyaltyTier `json:"tiers,omitempty"`
	PickupLocations     []string      `json:"pickup_locations,omitempty"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// DefaultStoreSettings applies to a store until its Owner saves settings.
// Accrual earns one point per 10,000 spent; a point redeems for 1,000.
func DefaultStoreSettings(ownerID string) StoreSettings {
	return StoreSettings{
		OwnerID:             ownerID,
		LoyaltyEnabled:      true,
		AccrualRate:         10000,
		RedemptionValue:     1000,
		ReferralBonusPoints: 50,
		Tiers: []LoyaltyTier{
			{Name: "Bronze", MinSpend: 0},
			{Name: "Silver", MinSpend: 2000000},
			{Name: "Gold", MinSpend: 5000000},
		},
	}
}

type MaterialItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	UnitPrice int64     `json:"unit_price"`
	Supplier  string    `json:"supplier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type MaterialOrderLine struct {
	MaterialID string  `json:"material_id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  int64   `json:"unit_price"`
}

const (
	MaterialOrderPending  = "pending"
	MaterialOrderApproved = "approved"
	MaterialOrderRejected = "rejected"
	MaterialOrderReceived = "received"
)

type MaterialOrder struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	Lines           []MaterialOrderLine `json:"lines"`
	TotalAmount     int64               `json:"total_amount"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes,omitempty"`
	RequestedBy     string              `json:"requested_by"`
	ResolvedBy      string              `json:"resolved_by,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
	ReceivedAt      *time.Time          `json:"received_at,omitempty"`
}

// Actor is the identity an action runs as. A zero Actor is an anonymous session.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) Anonymous() bool {
	return a.UserID == ""
}
