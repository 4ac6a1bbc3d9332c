package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Link codes
	CodeInvalidDestination  = "INVALID_DESTINATION"
	CodeInvalidLifetime     = "INVALID_LIFETIME"
	CodeInvalidRange        = "INVALID_RANGE"
	CodeLinkExpired         = "LINK_EXPIRED"
	CodeLinkNotFound        = "LINK_NOT_FOUND"
	CodeFeatureRequiresTier = "FEATURE_REQUIRES_TIER"
	CodePaymentRequired     = "PAYMENT_REQUIRED"
	CodeDailyLimitExceeded  = "DAILY_LIMIT_EXCEEDED"

	// Upload codes
	CodeInvalidUpload = "INVALID_UPLOAD"
	CodeFileTooLarge  = "FILE_TOO_LARGE"
	CodeUploadsOff    = "UPLOADS_UNAVAILABLE"

	// Account codes
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenBound   = "TOKEN_ALREADY_LINKED"

	// Success codes
	CodeLinkCreated    = "LINK_CREATED"
	CodeLinkFound      = "LINK_FOUND"
	CodeStatsFound     = "STATS_FOUND"
	CodeUploadPrepared = "UPLOAD_PREPARED"
	CodeAccountFound   = "ACCOUNT_FOUND"
	CodeTokenLinked    = "TOKEN_LINKED"
)
