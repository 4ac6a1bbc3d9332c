package policy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/pkg/breaker"
	"go.uber.org/zap"
)

// Resolver turns a request's proof into limits. An explicit tier token
// takes precedence over the account; anything that does not resolve,
// including store failures, degrades to the free plan.
type Resolver struct {
	store   GrantStore
	free    Limits
	breaker *breaker.Breaker
	now     func() time.Time
}

type ResolverOption func(*Resolver)

func WithBreaker(b *breaker.Breaker) ResolverOption {
	return func(r *Resolver) { r.breaker = b }
}

func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(store GrantStore, free Limits, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store: store,
		free:  free,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Free() Allowance {
	return Allowance{Limits: r.free, Source: SourceNone}
}

func (r *Resolver) Resolve(ctx context.Context, proof Proof) Allowance {
	if r.store == nil || proof.Empty() {
		return r.Free()
	}
	now := r.now()

	if token := strings.TrimSpace(proof.Token); token != "" {
		g, ok := r.lookup(ctx, "token", func() (*Grant, error) {
			return r.store.FindActiveByToken(ctx, token, now)
		})
		if ok && g.Active(now) {
			return Allowance{Limits: LimitsFor(g), Source: SourceToken, Subject: token}
		}
	}

	if userID := strings.TrimSpace(proof.UserID); userID != "" {
		g, ok := r.lookup(ctx, "account", func() (*Grant, error) {
			return r.store.FindBestByUser(ctx, userID, now)
		})
		if ok && g.Active(now) {
			return Allowance{Limits: LimitsFor(g), Source: SourceAccount, Subject: userID}
		}
	}

	return r.Free()
}

func (r *Resolver) lookup(ctx context.Context, kind string, find func() (*Grant, error)) (*Grant, bool) {
	var g *Grant
	call := func() error {
		var err error
		g, err = find()
		return err
	}

	var err error
	if r.breaker != nil {
		err = r.breaker.Do(call, isNotFound)
	} else {
		err = call()
	}

	switch {
	case err == nil:
		return g, g != nil
	case isNotFound(err):
		return nil, false
	case errors.Is(err, breaker.ErrOpen):
		logger.Debug("grant lookup skipped, store circuit open", zap.String("kind", kind))
		return nil, false
	default:
		if ctx.Err() == nil {
			logger.Warn("grant lookup failed, degrading to free plan",
				zap.String("kind", kind),
				zap.Error(err),
			)
		}
		return nil, false
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrGrantNotFound)
}
