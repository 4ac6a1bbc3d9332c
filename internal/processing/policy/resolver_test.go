package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IgorGrieder/tempqr/pkg/breaker"
)

type mockGrantStore struct {
	byTokenFn func(ctx context.Context, token string, at time.Time) (*Grant, error)
	byUserFn  func(ctx context.Context, userID string, at time.Time) (*Grant, error)
}

func (m *mockGrantStore) FindActiveByToken(ctx context.Context, token string, at time.Time) (*Grant, error) {
	if m.byTokenFn == nil {
		return nil, ErrGrantNotFound
	}
	return m.byTokenFn(ctx, token, at)
}

func (m *mockGrantStore) FindBestByUser(ctx context.Context, userID string, at time.Time) (*Grant, error) {
	if m.byUserFn == nil {
		return nil, ErrGrantNotFound
	}
	return m.byUserFn(ctx, userID, at)
}

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver(store GrantStore, opts ...ResolverOption) *Resolver {
	opts = append(opts, WithResolverClock(func() time.Time { return fixedNow }))
	return NewResolver(store, Free(DefaultFreeMaxMinutes, DefaultFreeDailyLimit), opts...)
}

func TestResolve_NoProofIsFree(t *testing.T) {
	r := newTestResolver(&mockGrantStore{
		byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
			t.Fatal("store must not be consulted without proof")
			return nil, nil
		},
	})

	got := r.Resolve(context.Background(), Proof{})
	if got.Plan != PlanFree || got.MaxMinutes != 60 || got.DailyLimit != 5 {
		t.Fatalf("unexpected free limits: %+v", got)
	}
	if got.SVGExport || got.IndirectPayloads {
		t.Fatal("free plan must not unlock paid features")
	}
	if got.Source != SourceNone || got.Subject != "" {
		t.Fatalf("unexpected source %q subject %q", got.Source, got.Subject)
	}
}

func TestResolve_TokenTiers(t *testing.T) {
	tests := []struct {
		name           string
		grant          Grant
		wantMaxMinutes int64
		wantDaily      int64
	}{
		{"tier 1", Grant{Plan: PlanPro, Tier: 1}, 1440, 5},
		{"tier 2", Grant{Plan: PlanPro, Tier: 2}, 10080, 0},
		{"tier 3", Grant{Plan: PlanPro, Tier: 3}, 43200, 0},
		{"stored overrides", Grant{Plan: PlanPro, Tier: 1, MaxMinutes: 2000, DailyLimit: 50}, 2000, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.grant
			r := newTestResolver(&mockGrantStore{
				byTokenFn: func(_ context.Context, token string, _ time.Time) (*Grant, error) {
					if token != "tok" {
						t.Fatalf("unexpected token %q", token)
					}
					return &g, nil
				},
			})

			got := r.Resolve(context.Background(), Proof{Token: "tok"})
			if got.Plan != PlanPro || got.Tier != g.Tier {
				t.Fatalf("unexpected plan/tier: %+v", got)
			}
			if got.MaxMinutes != tt.wantMaxMinutes || got.DailyLimit != tt.wantDaily {
				t.Fatalf("got max=%d daily=%d, want %d/%d", got.MaxMinutes, got.DailyLimit, tt.wantMaxMinutes, tt.wantDaily)
			}
			if !got.SVGExport || !got.IndirectPayloads {
				t.Fatal("paid tier must unlock features")
			}
			if got.Source != SourceToken || got.Subject != "tok" {
				t.Fatalf("unexpected source %q subject %q", got.Source, got.Subject)
			}
		})
	}
}

func TestResolve_TokenWinsOverAccount(t *testing.T) {
	r := newTestResolver(&mockGrantStore{
		byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
			return &Grant{Plan: PlanPro, Tier: 1}, nil
		},
		byUserFn: func(context.Context, string, time.Time) (*Grant, error) {
			return &Grant{Plan: PlanPro, Tier: 3}, nil
		},
	})

	got := r.Resolve(context.Background(), Proof{Token: "tok", UserID: "u1"})
	if got.Tier != 1 || got.Source != SourceToken {
		t.Fatalf("expected explicit token to win, got %+v", got)
	}
}

func TestResolve_InvalidTokenFallsBackToAccount(t *testing.T) {
	r := newTestResolver(&mockGrantStore{
		byUserFn: func(_ context.Context, userID string, _ time.Time) (*Grant, error) {
			return &Grant{Plan: PlanPro, Tier: 2, UserID: userID}, nil
		},
	})

	got := r.Resolve(context.Background(), Proof{Token: "bogus", UserID: "u1"})
	if got.Tier != 2 || got.Source != SourceAccount || got.Subject != "u1" {
		t.Fatalf("unexpected allowance %+v", got)
	}
}

func TestResolve_DegradesToFree(t *testing.T) {
	expired := fixedNow.Add(-time.Minute)

	tests := []struct {
		name  string
		store *mockGrantStore
	}{
		{"unknown token", &mockGrantStore{}},
		{"expired grant", &mockGrantStore{
			byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
				return &Grant{Plan: PlanPro, Tier: 3, ExpiresAt: &expired}, nil
			},
		}},
		{"non pro plan", &mockGrantStore{
			byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
				return &Grant{Plan: PlanFree, Tier: 3}, nil
			},
		}},
		{"store failure", &mockGrantStore{
			byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
				return nil, errors.New("connection refused")
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestResolver(tt.store).Resolve(context.Background(), Proof{Token: "tok"})
			if got.Plan != PlanFree || got.Source != SourceNone {
				t.Fatalf("expected free, got %+v", got)
			}
		})
	}
}

func TestResolve_OpenBreakerSkipsStore(t *testing.T) {
	calls := 0
	store := &mockGrantStore{
		byTokenFn: func(context.Context, string, time.Time) (*Grant, error) {
			calls++
			return nil, errors.New("down")
		},
	}
	r := newTestResolver(store, WithBreaker(breaker.New("grants", 1, time.Hour)))

	r.Resolve(context.Background(), Proof{Token: "tok"})
	r.Resolve(context.Background(), Proof{Token: "tok"})

	if calls != 1 {
		t.Fatalf("expected store to be called once, got %d", calls)
	}
}
