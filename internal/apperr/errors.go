// Package apperr defines the error kinds shared by the engine's components.
package apperr

import "errors"

var (
	// ErrInsufficientData means there is not enough history to produce a
	// result. Callers surface it as "not yet available" and never substitute
	// a numeric default.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidQuality means a review quality outside [0,5] was submitted.
	ErrInvalidQuality = errors.New("invalid review quality")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an optimistic write lost against a concurrent writer.
	ErrConflict = errors.New("concurrent update conflict")
)
