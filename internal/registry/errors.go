package registry

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for registry calls.
type Category string

const (
	// CategoryNotFound indicates the requested record does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryStaleSession indicates the portal rejected the call with an
	// authorization-adjacent error, usually because the session expired.
	// The retry policy re-authenticates once on this category.
	CategoryStaleSession Category = "stale_session"

	// CategoryTimeout indicates the portal took too long to respond.
	CategoryTimeout Category = "timeout"

	// CategoryBadData indicates the portal returned a payload we could not parse.
	CategoryBadData Category = "bad_data"

	// CategoryOutage indicates the portal is unavailable.
	CategoryOutage Category = "outage"

	// CategoryInternal indicates an unexpected internal error.
	CategoryInternal Category = "internal"
)

// Error wraps registry failures with a normalized category so callers can
// apply the retry policy without inspecting transport details.
type Error struct {
	Category Category
	Op       string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a categorized registry error.
func NewError(category Category, op, message string, err error) *Error {
	return &Error{Category: category, Op: op, Message: message, Err: err}
}

// CategoryOf extracts the category from an error chain, defaulting to internal.
func CategoryOf(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return CategoryInternal
}

// Retryable reports whether a later attempt may succeed without intervention.
func (e *Error) Retryable() bool {
	switch e.Category {
	case CategoryStaleSession, CategoryTimeout, CategoryOutage:
		return true
	}
	return false
}

// IsNotFound reports whether the error chain carries a not_found category.
func IsNotFound(err error) bool {
	return CategoryOf(err) == CategoryNotFound
}

// IsStaleSession reports whether the error chain carries a stale_session category.
func IsStaleSession(err error) bool {
	return CategoryOf(err) == CategoryStaleSession
}
