package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"giatla/backend/internal/domain"
)

// HashPassword returns the one-way digest stored on a user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login matches identifier against usernames (case-insensitive) first and
// only then against the phone numbers of users that have a password, and
// checks password against the stored digest.
func (s *Service) Login(ctx context.Context, identifier string, password string) (out domain.User, err error) {
	err = s.do(ctx, "session.login", func(domain.Actor) error {
		identifier = strings.TrimSpace(identifier)
		if identifier == "" || password == "" {
			return fmt.Errorf("%w: identifier and password are required", ErrUnauthenticated)
		}
		u, ok := s.store.Users.Find(func(u domain.User) bool {
			return u.Username != "" && strings.EqualFold(u.Username, identifier)
		})
		if !ok {
			if phone := normalizePhone(identifier); len(phone) >= 6 {
				u, ok = s.store.Users.Find(func(u domain.User) bool {
					return u.PasswordHash != "" && normalizePhone(u.Phone) == phone
				})
			}
		}
		if !ok || !verifyPassword(u.PasswordHash, password) {
			return ErrUnauthenticated
		}
		out = u.Public()
		return nil
	})
	return out, err
}
