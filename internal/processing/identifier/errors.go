package identifier

import "errors"

var (
	ErrInvalidDestination   = errors.New("invalid destination")
	ErrInvalidLifetime      = errors.New("invalid lifetime")
	ErrMalformed            = errors.New("malformed identifier")
	ErrInvalidSignature     = errors.New("invalid identifier signature")
	ErrSigningSecretMissing = errors.New("signing secret missing")
)
