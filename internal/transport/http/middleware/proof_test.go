package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IgorGrieder/tempqr/internal/processing/policy"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func captureProof(got *policy.Proof) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = ProofFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestProofMiddleware(t *testing.T) {
	verifier := stubVerifier{"good-jwt": "user-1"}

	tests := []struct {
		name  string
		token string
		auth  string
		want  policy.Proof
	}{
		{"nothing presented", "", "", policy.Proof{}},
		{"tier token", " tok-1 ", "", policy.Proof{Token: "tok-1"}},
		{"valid bearer", "", "Bearer good-jwt", policy.Proof{UserID: "user-1"}},
		{"lowercase scheme", "", "bearer good-jwt", policy.Proof{UserID: "user-1"}},
		{"invalid bearer ignored", "", "Bearer forged", policy.Proof{}},
		{"both", "tok-1", "Bearer good-jwt", policy.Proof{Token: "tok-1", UserID: "user-1"}},
		{"basic auth ignored", "", "Basic abc", policy.Proof{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got policy.Proof
			h := ProofMiddleware(verifier)(captureProof(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set(TierTokenHeader, tt.token)
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("got status %d, want 200", rec.Code)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequireAccount(t *testing.T) {
	h := ProofMiddleware(stubVerifier{"good-jwt": "user-1"})(RequireAccount(okHandler()))

	t.Run("missing bearer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("got %d, want 401", rec.Code)
		}
	})

	t.Run("tier token alone is not an account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set(TierTokenHeader, "tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("got %d, want 401", rec.Code)
		}
	})

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer good-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("got %d, want 200", rec.Code)
		}
	})
}
