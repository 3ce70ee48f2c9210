package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrValidation covers malformed input and every recovery-flow failure:
	// wrong code, unknown identity and restricted principal are deliberately
	// indistinguishable at the boundary so responses carry no enumeration oracle.
	ErrValidation = errors.New("validation error")

	// ErrInvalidToken is returned by the token codec before any store lookup.
	ErrInvalidToken = errors.New("invalid token")

	// Session validation outcomes. Both map to UNAUTHORIZED at the boundary;
	// the split exists so expiry can trigger lazy row deletion.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)
