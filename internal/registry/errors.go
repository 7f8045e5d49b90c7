package registry

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// SchemaError reports an inconsistency in the variable catalog.
//
// Schema errors are fatal at process startup. A registry that fails to load
// must never be used to compile queries.
type SchemaError struct {
	// Path is the node path where the problem was detected.
	Path []string

	// Message describes the problem.
	Message string

	// Pos is the CUE source position when the catalog came from CUE.
	Pos token.Pos
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	where := "variables"
	if len(e.Path) > 0 {
		where = "variables." + strings.Join(e.Path, ".")
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: schema error at %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), where, e.Message)
	}
	return fmt.Sprintf("schema error at %s: %s", where, e.Message)
}

// IsSchemaError reports whether err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func schemaErr(path []string, pos token.Pos, format string, args ...any) *SchemaError {
	return &SchemaError{
		Path:    append([]string(nil), path...),
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
