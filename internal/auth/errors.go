package auth

import "errors"

var (
	// ErrForbidden covers every verification failure. Expired and tampered
	// tokens are intentionally not distinguished.
	ErrForbidden = errors.New("auth: forbidden token")

	ErrMissingEmail = errors.New("auth: email is required")

	ErrNoIdentity = errors.New("auth: identity not in context")
)
