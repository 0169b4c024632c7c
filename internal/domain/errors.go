package domain

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMalformedRecord  = errors.New("malformed qualification record")

	// ErrDraftNotFound is returned for unknown or expired assignment drafts.
	ErrDraftNotFound = errors.New("assignment draft not found")
)
