package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a single rule violation. It carries the path of the
// failing value, the identifier of the failed rule and translation metadata.
type ValidationError struct {
	Path              FieldPath
	Field             string
	RuleID            string
	Message           string
	ForKey            bool
	TranslationKey    string
	TranslationValues map[string]any
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s [%s]", e.Message, e.RuleID)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Field, e.Message, e.RuleID)
}

// ValidationErrors represents a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, err.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) hold for any violation report.
func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

func (ve *ValidationErrors) Add(err ValidationError) {
	*ve = append(*ve, err)
}

func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (ve ValidationErrors) Get(field string) []string {
	var messages []string
	for _, err := range ve {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

func (ve ValidationErrors) GetErrors(field string) []ValidationError {
	var errs []ValidationError
	for _, err := range ve {
		if err.Field == field {
			errs = append(errs, err)
		}
	}
	return errs
}

func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

// RuleIDs lists the rule identifiers of all violations in report order.
func (ve ValidationErrors) RuleIDs() []string {
	ids := make([]string, len(ve))
	for i, err := range ve {
		ids[i] = err.RuleID
	}
	return ids
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// Accumulator collects the violations of one top-level validation call.
// In fail-fast mode the first violation requests a stop.
type Accumulator struct {
	errs     ValidationErrors
	failFast bool
	stop     bool
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(failFast bool) *Accumulator {
	return &Accumulator{failFast: failFast}
}

// Add records a violation and reports whether validation must stop.
func (a *Accumulator) Add(err ValidationError) bool {
	a.errs = append(a.errs, err)
	if a.failFast {
		a.stop = true
	}
	return a.stop
}

// Stopped reports whether a stop has been requested.
func (a *Accumulator) Stopped() bool {
	return a.stop
}

// FailFast reports whether the accumulator stops at the first violation.
func (a *Accumulator) FailFast() bool {
	return a.failFast
}

// Violations returns the recorded violations.
func (a *Accumulator) Violations() ValidationErrors {
	return a.errs
}

func (a *Accumulator) reset(failFast bool) {
	clear(a.errs)
	a.errs = a.errs[:0]
	a.failFast = failFast
	a.stop = false
}

// ExtractValidationErrors extracts ValidationErrors from an error.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	var validationErr ValidationErrors
	return errors.As(err, &validationErr)
}
