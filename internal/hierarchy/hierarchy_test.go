package hierarchy

import (
	"testing"

	"giatla/backend/internal/domain"
)

func chainUsers() []domain.User {
	return []domain.User{
		{ID: "chair", Role: domain.RoleChairman},
		{ID: "owner", Role: domain.RoleOwner, ManagedBy: "chair"},
		{ID: "manager", Role: domain.RoleManager, ManagedBy: "owner"},
		{ID: "staff", Role: domain.RoleStaff, ManagedBy: "manager"},
		{ID: "orphan", Role: domain.RoleManager},
		{ID: "lost", Role: domain.RoleStaff, ManagedBy: "ghost"},
		{ID: "loop-a", Role: domain.RoleStaff, ManagedBy: "loop-b"},
		{ID: "loop-b", Role: domain.RoleManager, ManagedBy: "loop-a"},
		{ID: "cust", Role: domain.RoleCustomer},
	}
}

func TestResolveOwnerID(t *testing.T) {
	idx := NewIndex(chainUsers())
	cases := []struct {
		user string
		want string
	}{
		{user: "staff", want: "owner"},
		{user: "manager", want: "owner"},
		{user: "owner", want: "owner"},
		{user: "chair", want: ""},
		{user: "orphan", want: ""},
		{user: "lost", want: ""},
		{user: "loop-a", want: ""},
		{user: "cust", want: ""},
		{user: "nobody", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.user, func(t *testing.T) {
			if got := ResolveOwnerID(idx, tc.user); got != tc.want {
				t.Fatalf("ResolveOwnerID(%q) = %q, want %q", tc.user, got, tc.want)
			}
		})
	}
}

func TestSubordinatesIsRecursiveAndCycleSafe(t *testing.T) {
	users := chainUsers()
	subs := Subordinates(users, "owner")
	if len(subs) != 2 || !subs["manager"] || !subs["staff"] {
		t.Fatalf("unexpected subordinates: %v", subs)
	}
	loop := Subordinates(users, "loop-a")
	if len(loop) != 1 || !loop["loop-b"] {
		t.Fatalf("cycle should terminate with the other member only, got %v", loop)
	}
}

func TestChainAndManages(t *testing.T) {
	idx := NewIndex(chainUsers())
	chain := Chain(idx, "staff")
	if len(chain) != 4 || chain[3].ID != "chair" {
		t.Fatalf("unexpected chain: %+v", chain)
	}
	if !Manages(idx, "owner", "staff") || Manages(idx, "staff", "owner") {
		t.Fatalf("unexpected manages result")
	}
	if got := len(Chain(idx, "loop-a")); got != 2 {
		t.Fatalf("cyclic chain should stop after 2 users, got %d", got)
	}
}
