package query

import (
	"errors"
	"fmt"

	"github.com/roach88/climaql/internal/predicate"
)

// Request field names reported by ValidationError, in validation order.
const (
	FieldCollection     = "collection"
	FieldMapCollection  = "map_collection"
	FieldGeometry       = "geometry"
	FieldPredicate      = "predicate"
	FieldDistanceBounds = "distance_bounds"
	FieldMode           = "mode"
	FieldPageStart      = "page_start"
	FieldPageLimit      = "page_limit"
)

// ValidationError reports a malformed request. No query is built for a
// request that fails validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a request error: a
// *ValidationError or a *predicate.InvalidRangeError, which callers handle
// the same way.
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return predicate.IsInvalidRangeError(err)
}

// ErrorField returns the request field an error names, or "" when err is not
// a request error.
func ErrorField(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	if predicate.IsInvalidRangeError(err) {
		return FieldDistanceBounds
	}
	return ""
}
