package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgRateLimited        = "Too many requests, slow down"

	// Link messages
	MsgInvalidDestination  = "Destination must be an http(s) URL or an uploaded object reference"
	MsgInvalidLifetime     = "Minutes must be a positive number"
	MsgInvalidRange        = "Invalid date range (use YYYY-MM-DD, from <= to, at most one year)"
	MsgLinkExpired         = "This link has expired"
	MsgLinkNotFound        = "Link not found"
	MsgFeatureRequiresTier = "This feature requires a paid tier"
	MsgPaymentRequired     = "Files and texts require a paid tier"
	MsgDailyLimitExceeded  = "Daily link limit reached"

	// Upload messages
	MsgInvalidUpload = "Missing or invalid size"
	MsgFileTooLarge  = "File too large"
	MsgUploadsOff    = "Uploads are not configured"

	// Account messages
	MsgInvalidToken = "Invalid token"
	MsgTokenExpired = "Token expired"
	MsgTokenBound   = "Token already linked to another account"
)
