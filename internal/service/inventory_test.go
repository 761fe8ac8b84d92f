package service

import (
	"errors"
	"testing"

	"giatla/backend/internal/domain"
)

func addDetergent(t *testing.T, svc *Service, qty float64) domain.InventoryItem {
	t.Helper()
	item, err := svc.AddInventoryItem(as("owner-a"), domain.InventoryItemRequest{
		Name: "Detergent", Unit: "kg", Quantity: qty, LowStockThreshold: 10,
	})
	if err != nil {
		t.Fatalf("add inventory item: %v", err)
	}
	return item
}

func TestRejectedAdjustmentKeepsQuantity(t *testing.T) {
	svc, st := newTestService(t)
	item := addDetergent(t, svc, 50)

	req, err := svc.RequestInventoryAdjustment(as("staff-a"), domain.InventoryAdjustmentInput{
		ItemID: item.ID, RequestedQuantity: 40, Reason: "recount",
	})
	if err != nil {
		t.Fatalf("request adjustment: %v", err)
	}
	if req.CurrentQuantity != 50 || req.Status != domain.RequestPending {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, err := svc.RejectInventoryAdjustment(as("mgr-a"), req.ID, " "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid without a reason, got %v", err)
	}
	rejected, err := svc.RejectInventoryAdjustment(as("mgr-a"), req.ID, "miscount")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.RequestRejected || rejected.RejectionReason != "miscount" {
		t.Fatalf("unexpected rejected request %+v", rejected)
	}

	got, _ := st.Inventory.Get(item.ID)
	if got.Quantity != 50 {
		t.Fatalf("quantity must stay 50, got %v", got.Quantity)
	}
	if len(got.History) != 1 || got.History[0].Status != domain.RequestRejected || got.History[0].RejectionReason != "miscount" {
		t.Fatalf("expected one rejected history entry, got %+v", got.History)
	}

	if _, err := svc.ApproveInventoryAdjustment(as("owner-a"), req.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolved requests cannot be approved, got %v", err)
	}
}

func TestApprovedAdjustmentOverwritesAndWarns(t *testing.T) {
	svc, st := newTestService(t)
	item := addDetergent(t, svc, 50)

	req, err := svc.RequestInventoryAdjustment(as("staff-a"), domain.InventoryAdjustmentInput{
		ItemID: item.ID, RequestedQuantity: 9, Reason: "spill",
	})
	if err != nil {
		t.Fatalf("request adjustment: %v", err)
	}
	if _, err := svc.ApproveInventoryAdjustment(as("staff-a"), req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff cannot approve, got %v", err)
	}
	before := len(st.Notifications.Filter(func(n domain.Notification) bool { return n.Type == domain.NotifyWarning }))
	if _, err := svc.ApproveInventoryAdjustment(as("owner-a"), req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, _ := st.Inventory.Get(item.ID)
	if got.Quantity != 9 || len(got.History) != 1 || got.History[0].PreviousQuantity != 50 {
		t.Fatalf("unexpected item after approval %+v", got)
	}
	after := len(st.Notifications.Filter(func(n domain.Notification) bool { return n.Type == domain.NotifyWarning }))
	if after != before+1 {
		t.Fatalf("expected one low-stock warning, got %d new", after-before)
	}
}

func TestAdjustmentStaysInsideTenant(t *testing.T) {
	svc, st := newTestService(t)
	item := addDetergent(t, svc, 50)

	if _, err := svc.RequestInventoryAdjustment(as("staff-b"), domain.InventoryAdjustmentInput{
		ItemID: item.ID, RequestedQuantity: 1, Reason: "sabotage",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden from another store, got %v", err)
	}
	if st.InventoryRequests.Len() != 0 {
		t.Fatalf("no request should be stored")
	}
	if got := svc.ListInventoryRequests(as("owner-b"), ""); len(got) != 0 {
		t.Fatalf("owner-b should see no requests, got %d", len(got))
	}
}

func TestDeleteInventoryItemRefusedWhilePending(t *testing.T) {
	svc, st := newTestService(t)
	item := addDetergent(t, svc, 50)
	req, err := svc.RequestInventoryAdjustment(as("staff-a"), domain.InventoryAdjustmentInput{
		ItemID: item.ID, RequestedQuantity: 45, Reason: "recount",
	})
	if err != nil {
		t.Fatalf("request adjustment: %v", err)
	}
	if err := svc.DeleteInventoryItem(as("owner-a"), item.ID); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid with pending request, got %v", err)
	}
	if _, err := svc.ApproveInventoryAdjustment(as("mgr-a"), req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.DeleteInventoryItem(as("owner-a"), item.ID); err != nil {
		t.Fatalf("delete after resolution: %v", err)
	}
	if st.Inventory.Len() != 0 {
		t.Fatalf("item should be gone")
	}
}

func TestAddInventoryItemRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	addDetergent(t, svc, 5)
	if _, err := svc.AddInventoryItem(as("mgr-a"), domain.InventoryItemRequest{Name: "detergent", Unit: "kg"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for duplicate name, got %v", err)
	}
	if _, err := svc.AddInventoryItem(as("owner-b"), domain.InventoryItemRequest{Name: "Detergent", Unit: "kg"}); err != nil {
		t.Fatalf("another store may stock the same name: %v", err)
	}
}
