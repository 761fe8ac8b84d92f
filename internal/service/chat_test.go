package service

import (
	"errors"
	"testing"

	"giatla/backend/internal/domain"
)

func TestParseChatIntentDispatchesOnKind(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"kind":"lookup","phone":"0911000001"}`, ChatLookup},
		{`{"kind":"create_order","customer_name":"Lan","customer_phone":"0922000002","items":[{"service_name":"Suit","quantity":1}]}`, ChatCreateOrder},
		{`{"kind":"free_text","text":"We open at 7am"}`, ChatFreeText},
	}
	for _, tc := range cases {
		intent, err := ParseChatIntent([]byte(tc.raw))
		if err != nil {
			t.Fatalf("parse %s: %v", tc.raw, err)
		}
		if intent.Kind() != tc.want {
			t.Fatalf("got kind %s, want %s", intent.Kind(), tc.want)
		}
	}

	for _, raw := range []string{`{"kind":"refund"}`, `not json`, `{}`} {
		if _, err := ParseChatIntent([]byte(raw)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %s, got %v", raw, err)
		}
	}
}

func TestChatCreateOrderWaitsForConfirmation(t *testing.T) {
	svc, st := newTestService(t)
	raw := `{"kind":"create_order","store_name":"store a","customer_name":"Lan","customer_phone":"0922000002",
		"items":[{"service_name":"wash & fold","quantity":4}],"notes":"no softener"}`

	res, err := svc.HandleChatRequest(as(""), []byte(raw))
	if err != nil {
		t.Fatalf("chat order: %v", err)
	}
	if res.Kind != ChatCreateOrder || res.Order == nil {
		t.Fatalf("expected an order result, got %+v", res)
	}
	o := res.Order
	if o.OwnerID != "owner-a" || o.Channel != domain.ChannelChat || o.Status != domain.StatusWaitingForConfirmation {
		t.Fatalf("unexpected chat order: owner=%s channel=%s status=%s", o.OwnerID, o.Channel, o.Status)
	}
	if o.Subtotal != 40000 || o.Notes != "no softener" {
		t.Fatalf("unexpected chat order content: subtotal=%d notes=%q", o.Subtotal, o.Notes)
	}
	if _, ok := st.Users.Find(func(u domain.User) bool { return u.Phone == "0922000002" }); !ok {
		t.Fatalf("chat order should register the new customer")
	}

	staffRes, err := svc.HandleChatRequest(as("staff-a"), []byte(raw))
	if err != nil {
		t.Fatalf("staff chat order: %v", err)
	}
	if staffRes.Order.Status != domain.StatusWaitingForConfirmation {
		t.Fatalf("chat orders always wait, got %s", staffRes.Order.Status)
	}
}

func TestChatRejectsUnknownReferences(t *testing.T) {
	svc, st := newTestService(t)
	cases := []string{
		`{"kind":"create_order","store_name":"Store Z","customer_name":"Lan","customer_phone":"0922000002","items":[{"service_name":"Suit","quantity":1}]}`,
		`{"kind":"create_order","store_id":"owner-a","customer_name":"Lan","customer_phone":"0922000002","items":[{"service_name":"Carpet","quantity":1}]}`,
	}
	for _, raw := range cases {
		if _, err := svc.HandleChatRequest(as(""), []byte(raw)); !errors.Is(err, ErrBrokenReference) {
			t.Fatalf("expected ErrBrokenReference for %s, got %v", raw, err)
		}
	}
	if _, err := svc.HandleChatRequest(as(""), []byte(`{"kind":"create_order","store_id":"owner-a","items":[]}`)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for an incomplete intent, got %v", err)
	}
	if st.Orders.Len() != 0 {
		t.Fatalf("no order should be stored")
	}
}

func TestChatLookupAndFreeText(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.CreateOrder(as("staff-a"), domain.CreateOrderRequest{
		CustomerID: "cus-1",
		Items:      []domain.OrderLineRequest{{ServiceID: "svc-suit", Quantity: 1}},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	res, err := svc.HandleChatRequest(as(""), []byte(`{"kind":"lookup","phone":"0911000001"}`))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(res.Orders) != 1 || res.Orders[0].ID != "DH-001" {
		t.Fatalf("unexpected lookup result %+v", res.Orders)
	}

	res, err = svc.HandleChatRequest(as(""), []byte(`{"kind":"free_text","text":"  We open at 7am "}`))
	if err != nil || res.Reply != "We open at 7am" {
		t.Fatalf("unexpected free text reply %q err=%v", res.Reply, err)
	}
}
