package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/policy"
)

var (
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenBound       = errors.New("token already linked to another account")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Store interface {
	FindByToken(ctx context.Context, token string) (*policy.Grant, error)
	FindBestByUser(ctx context.Context, userID string, at time.Time) (*policy.Grant, error)
	// BindUser sets the owner of an unbound grant. It reports false when the
	// grant is missing or already owned.
	BindUser(ctx context.Context, token, userID string) (bool, error)
}

// Status is the account view: the best active grant, if any.
type Status struct {
	UserID string
	Best   *policy.Grant
	Limits *policy.Limits
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	out := &Status{UserID: userID}

	g, err := s.store.FindBestByUser(ctx, userID, s.now())
	switch {
	case errors.Is(err, policy.ErrGrantNotFound):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if g.Active(s.now()) {
		limits := policy.LimitsFor(g)
		out.Best = g
		out.Limits = &limits
	}
	return out, nil
}

// LinkToken binds a tier token to userID. Linking a token the user already
// owns succeeds.
func (s *Service) LinkToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}

	g, err := s.store.FindByToken(ctx, token)
	switch {
	case errors.Is(err, policy.ErrGrantNotFound):
		return ErrTokenInvalid
	case err != nil:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if g.ExpiresAt != nil && g.ExpiresAt.Before(s.now()) {
		return ErrTokenExpired
	}
	if g.UserID == userID {
		return nil
	}
	if g.UserID != "" {
		return ErrTokenBound
	}

	bound, err := s.store.BindUser(ctx, token, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !bound {
		return ErrTokenBound
	}
	return nil
}
