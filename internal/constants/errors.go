package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUnauthorized,
		Status:  http.StatusUnauthorized,
	}
	ErrRateLimited = APIError{
		Code:    CodeRateLimited,
		Message: MsgRateLimited,
		Status:  http.StatusTooManyRequests,
	}
)

// Link errors
var (
	ErrInvalidDestination = APIError{
		Code:    CodeInvalidDestination,
		Message: MsgInvalidDestination,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidLifetime = APIError{
		Code:    CodeInvalidLifetime,
		Message: MsgInvalidLifetime,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidRange = APIError{
		Code:    CodeInvalidRange,
		Message: MsgInvalidRange,
		Status:  http.StatusBadRequest,
	}
	ErrLinkNotFound = APIError{
		Code:    CodeLinkNotFound,
		Message: MsgLinkNotFound,
		Status:  http.StatusNotFound,
	}
	ErrLinkExpired = APIError{
		Code:    CodeLinkExpired,
		Message: MsgLinkExpired,
		Status:  http.StatusGone,
	}
	ErrFeatureRequiresTier = APIError{
		Code:    CodeFeatureRequiresTier,
		Message: MsgFeatureRequiresTier,
		Status:  http.StatusUnauthorized,
	}
	ErrPaymentRequired = APIError{
		Code:    CodePaymentRequired,
		Message: MsgPaymentRequired,
		Status:  http.StatusPaymentRequired,
	}
	ErrDailyLimitExceeded = APIError{
		Code:    CodeDailyLimitExceeded,
		Message: MsgDailyLimitExceeded,
		Status:  http.StatusTooManyRequests,
	}
)

// Upload errors
var (
	ErrInvalidUpload = APIError{
		Code:    CodeInvalidUpload,
		Message: MsgInvalidUpload,
		Status:  http.StatusBadRequest,
	}
	ErrFileTooLarge = APIError{
		Code:    CodeFileTooLarge,
		Message: MsgFileTooLarge,
		Status:  http.StatusRequestEntityTooLarge,
	}
	ErrUploadsUnavailable = APIError{
		Code:    CodeUploadsOff,
		Message: MsgUploadsOff,
		Status:  http.StatusServiceUnavailable,
	}
)

// Account errors
var (
	ErrInvalidToken = APIError{
		Code:    CodeInvalidToken,
		Message: MsgInvalidToken,
		Status:  http.StatusBadRequest,
	}
	ErrTokenExpired = APIError{
		Code:    CodeTokenExpired,
		Message: MsgTokenExpired,
		Status:  http.StatusBadRequest,
	}
	ErrTokenBound = APIError{
		Code:    CodeTokenBound,
		Message: MsgTokenBound,
		Status:  http.StatusConflict,
	}
)
