package predicate

import (
	"errors"
	"fmt"
)

// InvalidRangeError reports distance bounds with Min greater than Max.
type InvalidRangeError struct {
	Min float64
	Max float64
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid distance range: min %g > max %g", e.Min, e.Max)
}

// IsInvalidRangeError reports whether err is or wraps an *InvalidRangeError.
func IsInvalidRangeError(err error) bool {
	var re *InvalidRangeError
	return errors.As(err, &re)
}
