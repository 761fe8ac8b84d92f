// Package service is the action layer over the store. Every exported method
// runs under one lock, validates its whole input before the first write, and
// reports a declined action both as a returned error and as an error
// notification to the acting user.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/hierarchy"
	"giatla/backend/internal/logger"
	"giatla/backend/internal/metrics"
	"giatla/backend/internal/store"
	"giatla/backend/internal/view"
)

const DefaultNotificationLimit = 200

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	NotificationLimit int
	Metrics           *metrics.Metrics
}

type Service struct {
	mu                sync.Mutex
	store             *store.Store
	metrics           *metrics.Metrics
	validate          *validator.Validate
	notificationLimit int
	log               *logrus.Entry
}

func New(st *store.Store, opts Options) *Service {
	if opts.NotificationLimit < 1 {
		opts.NotificationLimit = DefaultNotificationLimit
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Service{
		store:             st,
		metrics:           opts.Metrics,
		validate:          v,
		notificationLimit: opts.NotificationLimit,
		log:               logger.Get("service"),
	}
}

// View returns the slice of every collection the calling session may see.
func (s *Service) View(ctx context.Context) store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewOf(actorOf(ctx))
}

func (s *Service) viewOf(actor domain.Actor) store.Snapshot {
	return view.Filter(actor, s.store.Snapshot())
}

func (s *Service) now() time.Time {
	return s.store.Clock.Now()
}

// Now reports the store clock, which tests may pin.
func (s *Service) Now() time.Time { return s.now() }

// do runs fn as one atomic action. A returned error is logged, counted, and
// echoed to the actor as an error notification.
func (s *Service) do(ctx context.Context, action string, fn func(actor domain.Actor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor := actorOf(ctx)
	if err := fn(actor); err != nil {
		s.decline(actor, action, err)
		return err
	}
	s.metrics.Action(action, metrics.OutcomeOK)
	return nil
}

func (s *Service) decline(actor domain.Actor, action string, err error) {
	s.log.WithFields(logrus.Fields{
		"action": action,
		"actor":  actor.UserID,
		"reason": err.Error(),
	}).Info("action declined")
	s.metrics.Action(action, metrics.OutcomeDeclined)
	if actor.Anonymous() {
		return
	}
	s.notify(domain.Notification{
		Type:    domain.NotifyError,
		Message: declineMessage(err),
		UserID:  actor.UserID,
	})
}

func declineMessage(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "Permission denied: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return "Not found: " + err.Error()
	default:
		return err.Error()
	}
}

func actorOf(ctx context.Context) domain.Actor {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}
	}
	return actor
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

type userDirectory struct {
	users *store.Collection[domain.User]
}

func (d userDirectory) User(id string) (domain.User, bool) {
	return d.users.Get(id)
}

func (s *Service) users() hierarchy.Directory {
	return userDirectory{users: s.store.Users}
}

func (s *Service) ownerOf(userID string) string {
	return hierarchy.ResolveOwnerID(s.users(), userID)
}

// member loads the acting user and requires one of roles. The role on record
// wins over the role the session claims.
func (s *Service) member(actor domain.Actor, roles ...domain.Role) (domain.User, error) {
	if actor.Anonymous() {
		return domain.User{}, fmt.Errorf("%w: sign in required", ErrForbidden)
	}
	u, ok := s.store.Users.Get(actor.UserID)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: unknown session user", ErrForbidden)
	}
	if len(roles) == 0 {
		return u, nil
	}
	for _, r := range roles {
		if u.Role == r {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: role %s may not do this", ErrForbidden, u.Role)
}

// tenantOf returns the store the user acts for. Chairman acts for the store
// named by requested; everyone else acts for the store they belong to.
func (s *Service) tenantOf(u domain.User, requested string) (string, error) {
	if u.Role == domain.RoleChairman {
		if requested == "" {
			return "", fmt.Errorf("%w: owner_id is required", ErrInvalid)
		}
		if _, err := s.storeOwner(requested); err != nil {
			return "", err
		}
		return requested, nil
	}
	ownerID := s.ownerOf(u.ID)
	if ownerID == "" {
		return "", fmt.Errorf("%w: %s does not belong to a store", ErrForbidden, u.ID)
	}
	if requested != "" && requested != ownerID {
		return "", fmt.Errorf("%w: store %s belongs to another tenant", ErrForbidden, requested)
	}
	return ownerID, nil
}

// inTenant requires u to be the Chairman or to work in ownerID's store.
func (s *Service) inTenant(u domain.User, ownerID string) error {
	if u.Role == domain.RoleChairman {
		return nil
	}
	if ownerID == "" || s.ownerOf(u.ID) != ownerID {
		return fmt.Errorf("%w: record belongs to another store", ErrForbidden)
	}
	return nil
}

func (s *Service) storeOwner(ownerID string) (domain.User, error) {
	u, ok := s.store.Users.Get(ownerID)
	if !ok || u.Role != domain.RoleOwner {
		return domain.User{}, fmt.Errorf("%w: store %s does not exist", ErrBrokenReference, ownerID)
	}
	return u, nil
}

func (s *Service) chairmen() []domain.User {
	return s.store.Users.Filter(func(u domain.User) bool { return u.Role == domain.RoleChairman })
}

func (s *Service) settingsFor(ownerID string) domain.StoreSettings {
	if settings, ok := s.store.StoreSettings.Get(ownerID); ok {
		return settings
	}
	return domain.DefaultStoreSettings(ownerID)
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ptr[T any](v T) *T { return &v }
