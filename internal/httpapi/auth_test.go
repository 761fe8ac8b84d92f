package httpapi

import (
	"context"
	"testing"
	"time"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/service"
)

type authenticatorStub struct {
	user domain.User
}

func (s authenticatorStub) Login(_ context.Context, identifier string, password string) (domain.User, error) {
	if identifier != s.user.Username || password != testPassword {
		return domain.User{}, service.ErrUnauthenticated
	}
	return s.user, nil
}

func TestAuthManagerIssuesParsableToken(t *testing.T) {
	manager := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, authenticatorStub{
		user: domain.User{ID: "owner-a", Username: "owner.a", Role: domain.RoleOwner},
	})

	resp, err := manager.Login(context.Background(), LoginRequest{Identifier: "owner.a", Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Fatalf("expires_at is not RFC 3339: %q", resp.ExpiresAt)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor != (domain.Actor{UserID: "owner-a", Role: domain.RoleOwner}) {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestAuthManagerRejectsBadCredentials(t *testing.T) {
	manager := NewAuthManager("", 0, authenticatorStub{user: domain.User{ID: "u1", Username: "u1"}})
	if _, err := manager.Login(context.Background(), LoginRequest{Identifier: "u1", Password: "wrong"}); err == nil {
		t.Fatalf("expected login failure")
	}
}

func TestParseTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	manager := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, authenticatorStub{})
	actor := domain.Actor{UserID: "staff-a", Role: domain.RoleStaff}

	expired, err := manager.Sign(actor, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewAuthManager("ffffffffffffffffffffffffffffffff", time.Hour, authenticatorStub{})
	foreign, err := other.Sign(actor, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(foreign); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	valid, err := manager.Sign(domain.Actor{Role: domain.RoleStaff}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(valid); err == nil {
		t.Fatalf("expected token without subject to be rejected")
	}
}
