package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/query"
	"github.com/roach88/climaql/internal/registry"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric      = "E201" // Generic/unknown error
	ErrCodeNotFound     = "E202" // Path not found
	ErrCodeReadFailed   = "E203" // File read error
	ErrCodeWriteFailed  = "E204" // File write error
	ErrCodeConfig       = "E205" // Config load failed
	ErrCodeSchema       = "E206" // Variable catalog schema error
	ErrCodeJournal      = "E207" // Journal open/read/write error
	ErrCodeDecode       = "E208" // Malformed request or record document
	ErrCodeUnknownKey   = "E209" // Flat key not in the registry
	ErrCodeInvalidRange = "E210" // Distance min > max

	// Request validation, one code per field.
	ErrCodeCollection     = "E211"
	ErrCodeMapCollection  = "E212"
	ErrCodeGeometry       = "E213"
	ErrCodePredicate      = "E214"
	ErrCodeDistanceBounds = "E215"
	ErrCodeMode           = "E216"
	ErrCodePageStart      = "E217"
	ErrCodePageLimit      = "E218"
)

// MapFieldToErrorCode maps a request field to its error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case query.FieldCollection:
		return ErrCodeCollection
	case query.FieldMapCollection:
		return ErrCodeMapCollection
	case query.FieldGeometry:
		return ErrCodeGeometry
	case query.FieldPredicate:
		return ErrCodePredicate
	case query.FieldDistanceBounds:
		return ErrCodeDistanceBounds
	case query.FieldMode:
		return ErrCodeMode
	case query.FieldPageStart:
		return ErrCodePageStart
	case query.FieldPageLimit:
		return ErrCodePageLimit
	default:
		return ErrCodeGeneric
	}
}

// classify returns the error code, the request field (if any) and the exit
// code for err.
func classify(err error) (code, field string, exit int) {
	switch {
	case predicate.IsInvalidRangeError(err):
		return ErrCodeInvalidRange, query.FieldDistanceBounds, ExitFailure
	case query.IsValidationError(err):
		field = query.ErrorField(err)
		return MapFieldToErrorCode(field), field, ExitFailure
	case registry.IsSchemaError(err):
		return ErrCodeSchema, "", ExitCommandError
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound, "", ExitCommandError
	default:
		return ErrCodeGeneric, "", ExitCommandError
	}
}

// fail reports err through the formatter and returns the matching
// ExitError. code overrides the classified code when non-empty.
func fail(f *OutputFormatter, code string, err error) error {
	c, field, exit := classify(err)
	if code == "" {
		code = c
	}
	_ = f.FieldError(code, field, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

func failf(f *OutputFormatter, code string, exit int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_ = f.Error(code, msg, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, msg))
}
