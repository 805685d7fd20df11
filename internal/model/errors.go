package model

import "errors"

// Sentinel errors for the three outward failure kinds plus the single
// duplicate-email case. Handlers translate these to HTTP status codes at the
// boundary; everything below the handlers speaks in these errors only.
var (
	// ErrNotFound covers both "no such row" and "row owned by someone else".
	// The two causes must stay indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized covers every authentication failure: missing header,
	// malformed token, bad signature, expired token, unusable subject claim,
	// and bad login credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput marks field-level validation failures. Wrap it with
	// %w and a message specific enough for a per-field client display.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account (case-insensitive).
	ErrDuplicateEmail = errors.New("email already registered")
)
