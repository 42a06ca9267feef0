package apperr

import (
	"errors"
	"fmt"
)

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// NotFound indicates that the referenced resource does not exist (or is soft-deleted).
var NotFound = errors.New("not found")

// Conflict indicates a state or uniqueness conflict: driver not active,
// vehicle not active, assignment already held.
var Conflict = errors.New("conflict")

// Unavailable indicates that a dependency (database, shared store) is
// unreachable or timed out. Callers may retry with backoff; the service
// itself never retries.
var Unavailable = errors.New("dependency unavailable")

// WithMessage attaches a human-readable reason to a sentinel so that
// errors.Is(err, sentinel) still matches.
func WithMessage(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, msg)
}
