package validator

import "errors"

var (
	// ErrValidationFailed matches every ValidationErrors value via errors.Is.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownField is returned when a message-level rule names a field the
	// message does not have.
	ErrUnknownField = errors.New("unknown field")
)
