package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile is returned when a predicate does not parse or type-check.
	ErrCompile = errors.New("predicate does not compile")

	// ErrOutputType is returned when a predicate yields neither a bool nor a string.
	ErrOutputType = errors.New("predicate must evaluate to bool or string")

	// ErrEval is returned when a predicate fails at evaluation time.
	ErrEval = errors.New("predicate evaluation failed")
)

// ConversionError reports a predicate that cannot be turned into a verdict.
// It is a schema defect, distinct from a violation of the predicate.
type ConversionError struct {
	PredicateID string
	Expression  string
	Err         error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("predicate %q (%s): %v", e.PredicateID, e.Expression, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsConversionError reports whether err carries a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
