package service

import (
	"errors"
	"testing"

	"giatla/backend/internal/domain"
)

func TestPromotionDiscount(t *testing.T) {
	cases := []struct {
		name     string
		promo    domain.Promotion
		subtotal int64
		want     int64
	}{
		{"percentage", domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: 10}, 100000, 10000},
		{"percentage rounds down", domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: 15}, 99999, 14999},
		{"percentage capped", domain.Promotion{DiscountType: domain.DiscountPercentage, DiscountValue: 50, MaxDiscountAmount: 5000}, 100000, 5000},
		{"fixed", domain.Promotion{DiscountType: domain.DiscountFixed, DiscountValue: 15000}, 100000, 15000},
		{"fixed never exceeds subtotal", domain.Promotion{DiscountType: domain.DiscountFixed, DiscountValue: 200000}, 100000, 100000},
		{"empty order", domain.Promotion{DiscountType: domain.DiscountFixed, DiscountValue: 1000}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PromotionDiscount(tc.promo, tc.subtotal); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestStorePromotionNeedsApproval(t *testing.T) {
	svc, st := newTestService(t)
	p, err := svc.CreatePromotion(as("owner-a"), domain.PromotionRequest{
		Name: "Weekend", Code: "wknd", DiscountType: domain.DiscountFixed, DiscountValue: 5000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.PromotionPending || p.Code != "WKND" || p.IsSystemWide {
		t.Fatalf("unexpected promotion %+v", p)
	}
	if len(notificationsFor(st, "chair")) != 1 {
		t.Fatalf("chairman should be asked to approve")
	}
	q := domain.PromotionQuery{Code: "WKND", StoreID: "owner-a", Subtotal: 100000}
	if _, ok := svc.FindPromotionByCode(as("owner-a"), q); ok {
		t.Fatalf("pending promotion must not be usable")
	}
	if _, err := svc.ApprovePromotion(as("owner-a"), p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owners cannot approve, got %v", err)
	}
	if _, err := svc.ApprovePromotion(as("chair"), p.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, ok := svc.FindPromotionByCode(as("owner-a"), q); !ok {
		t.Fatalf("approved promotion should be usable at its store")
	}
	q.StoreID = "owner-b"
	if _, ok := svc.FindPromotionByCode(as("owner-b"), q); ok {
		t.Fatalf("store promotion must not leak to another store")
	}
	if _, err := svc.CreatePromotion(as("owner-a"), domain.PromotionRequest{
		Name: "Clash", Code: "WKND", DiscountType: domain.DiscountFixed, DiscountValue: 1000,
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for a duplicate code, got %v", err)
	}
}

func TestOptOutRemovesSystemPromotionFromStore(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.CreatePromotion(as("chair"), domain.PromotionRequest{
		Name: "Chain wide", Code: "ALL5", DiscountType: domain.DiscountFixed, DiscountValue: 5000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.PromotionActive || !p.IsSystemWide {
		t.Fatalf("chairman promotions are active and system-wide, got %+v", p)
	}

	if _, err := svc.RequestOptOut(as("owner-b"), p.ID, ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid without reason, got %v", err)
	}
	p, err = svc.RequestOptOut(as("owner-b"), p.ID, "margins too thin")
	if err != nil {
		t.Fatalf("request opt-out: %v", err)
	}
	if _, err := svc.RequestOptOut(as("owner-b"), p.ID, "again"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate opt-out should fail, got %v", err)
	}
	if _, err := svc.ResolveOptOut(as("chair"), p.ID, p.OptOutRequests[0].ID, true); err != nil {
		t.Fatalf("resolve opt-out: %v", err)
	}

	if got := svc.AvailablePromotions(as(""), "owner-b"); len(got) != 0 {
		t.Fatalf("owner-b opted out, got %d promotions", len(got))
	}
	if got := svc.AvailablePromotions(as(""), "owner-a"); len(got) != 1 {
		t.Fatalf("owner-a still has the promotion, got %d", len(got))
	}
	if _, err := svc.CreateOrder(as("staff-b"), domain.CreateOrderRequest{
		CustomerID:    "cus-1",
		Items:         []domain.OrderLineRequest{{ServiceID: "svc-suit", Quantity: 1}},
		PromotionCode: "ALL5",
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid at the opted-out store, got %v", err)
	}
}

func TestPromotionCancellationWorkflow(t *testing.T) {
	svc, _ := newTestService(t)
	p := approvedStorePromotion(t, svc, domain.PromotionRequest{
		Name: "Loss leader", Code: "HALF", DiscountType: domain.DiscountPercentage, DiscountValue: 50,
	})

	if _, err := svc.RequestPromotionCancellation(as("owner-a"), p.ID, "no"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("only the chairman requests cancellation, got %v", err)
	}
	if _, err := svc.RequestPromotionCancellation(as("chair"), p.ID, "undercuts the chain"); err != nil {
		t.Fatalf("request cancellation: %v", err)
	}
	if _, err := svc.ResolvePromotionCancellation(as("owner-b"), p.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("another owner cannot resolve, got %v", err)
	}
	out, err := svc.ResolvePromotionCancellation(as("owner-a"), p.ID, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Status != domain.PromotionInactive || out.CancellationRequest.Status != domain.RequestApproved {
		t.Fatalf("unexpected promotion after cancellation %+v", out)
	}
	if _, err := svc.ResolvePromotionCancellation(as("owner-a"), p.ID, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("nothing left to resolve, got %v", err)
	}
}

func TestApplyPromotionIsIdempotentPerOrder(t *testing.T) {
	svc, st := newTestService(t)
	p := approvedStorePromotion(t, svc, domain.PromotionRequest{
		Name: "Late", Code: "LATE", DiscountType: domain.DiscountFixed, DiscountValue: 1000,
	})
	order, err := svc.CreateOrder(as("staff-a"), domain.CreateOrderRequest{
		CustomerID: "cus-1",
		Items:      []domain.OrderLineRequest{{ServiceID: "svc-suit", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.ApplyPromotion(as("staff-a"), p.ID, order.ID); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}
	got, _ := st.Promotions.Get(p.ID)
	if got.TimesUsed != 1 {
		t.Fatalf("expected a single use, got %d", got.TimesUsed)
	}
}
