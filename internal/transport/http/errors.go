package http

import (
	"errors"
	"net/http"

	"github.com/IgorGrieder/tempqr/internal/constants"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/processing/accounts"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/IgorGrieder/tempqr/pkg/httputils"
	"go.uber.org/zap"
)

// apiErrorFor maps domain errors to the response catalog. Unknown errors
// are internal; the caller logs them.
func apiErrorFor(err error) (constants.APIError, bool) {
	switch {
	case errors.Is(err, links.ErrInvalidDestination):
		return constants.ErrInvalidDestination, true
	case errors.Is(err, links.ErrInvalidLifetime):
		return constants.ErrInvalidLifetime, true
	case errors.Is(err, links.ErrInvalidRange):
		return constants.ErrInvalidRange, true
	case errors.Is(err, links.ErrNotFound):
		return constants.ErrLinkNotFound, true
	case errors.Is(err, links.ErrExpired):
		return constants.ErrLinkExpired, true
	case errors.Is(err, links.ErrFeatureRequiresProof):
		return constants.ErrFeatureRequiresTier, true
	case errors.Is(err, links.ErrPaymentRequired):
		return constants.ErrPaymentRequired, true
	case errors.Is(err, links.ErrDailyLimitExceeded):
		return constants.ErrDailyLimitExceeded, true
	case errors.Is(err, links.ErrInvalidUpload):
		return constants.ErrInvalidUpload, true
	case errors.Is(err, links.ErrFileTooLarge):
		return constants.ErrFileTooLarge, true
	case errors.Is(err, accounts.ErrTokenInvalid):
		return constants.ErrInvalidToken, true
	case errors.Is(err, accounts.ErrTokenExpired):
		return constants.ErrTokenExpired, true
	case errors.Is(err, accounts.ErrTokenBound):
		return constants.ErrTokenBound, true
	}
	return constants.ErrInternalError, false
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	apiErr, known := apiErrorFor(err)
	if !known {
		logger.Error(op+" failed",
			zap.Error(err),
			zap.String("correlation_id", httputils.GetCorrelationID(r)),
		)
	}
	httputils.WriteAPIError(w, r, apiErr)
}
