package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/IgorGrieder/tempqr/internal/constants"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
)

const TierTokenHeader = "X-Tier-Token"

type proofKey struct{}

// AccountVerifier maps a bearer token to a user id.
type AccountVerifier interface {
	Verify(token string) (string, error)
}

// ProofMiddleware collects whatever the caller presented to claim a paid
// tier: an X-Tier-Token header and/or a verified bearer token. Invalid
// bearers are ignored so the request degrades to the free plan.
func ProofMiddleware(verifier AccountVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proof := policy.Proof{Token: strings.TrimSpace(r.Header.Get(TierTokenHeader))}

			if bearer := BearerToken(r); bearer != "" && verifier != nil {
				if userID, err := verifier.Verify(bearer); err == nil {
					proof.UserID = userID
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), proofKey{}, proof)))
		})
	}
}

// RequireAccount rejects requests without a verified bearer token.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ProofFromContext(r.Context()).UserID == "" {
			httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ProofFromContext(ctx context.Context) policy.Proof {
	p, _ := ctx.Value(proofKey{}).(policy.Proof)
	return p
}

func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
