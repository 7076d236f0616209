package tagalloc

import "errors"

var (
	// ErrExhausted is returned when no field number is left to allocate.
	ErrExhausted = errors.New("tagalloc: field numbers exhausted")

	// ErrInvalidRange is returned for ranges outside 1..MaxValidNumber or
	// with an end before their start.
	ErrInvalidRange = errors.New("tagalloc: invalid reserved range")
)
