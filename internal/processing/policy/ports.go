package policy

import (
	"context"
	"errors"
	"time"
)

var ErrGrantNotFound = errors.New("grant not found")

type GrantStore interface {
	// FindActiveByToken returns the grant for token if it is active at the
	// given instant, or ErrGrantNotFound.
	FindActiveByToken(ctx context.Context, token string, at time.Time) (*Grant, error)
	// FindBestByUser returns the highest active grant bound to userID, or
	// ErrGrantNotFound.
	FindBestByUser(ctx context.Context, userID string, at time.Time) (*Grant, error)
}
