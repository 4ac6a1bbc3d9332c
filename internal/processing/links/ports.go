package links

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/identifier"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
)

var (
	ErrNotFound             = errors.New("link not found")
	ErrExpired              = errors.New("link expired")
	ErrInvalidDestination   = identifier.ErrInvalidDestination
	ErrInvalidLifetime      = identifier.ErrInvalidLifetime
	ErrInvalidRange         = errors.New("invalid date range")
	ErrInvalidUpload        = errors.New("invalid upload")
	ErrFeatureRequiresProof = errors.New("feature requires a paid tier")
	ErrPaymentRequired      = errors.New("payment required")
	ErrDailyLimitExceeded   = errors.New("daily limit exceeded")
	ErrFileTooLarge         = errors.New("file too large")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

type PolicyResolver interface {
	Resolve(ctx context.Context, proof policy.Proof) policy.Allowance
}

// DailyCounter increments a per-day usage counter and returns the new value.
type DailyCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

type ObjectStore interface {
	PresignGet(ctx context.Context, req ObjectRequest) (string, error)
	PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error)
}

type ResolutionPublisher interface {
	PublishResolved(ctx context.Context, fingerprint string, at time.Time) error
}

type StatsRepository interface {
	IncDaily(ctx context.Context, fingerprint string, at time.Time) error
	GetDaily(ctx context.Context, fingerprint string, from, to time.Time) ([]DailyCount, error)
}

type KeyGenerator interface {
	Generate(folder, filename string, at time.Time) (string, error)
}
