package schema

import "errors"

var (
	// ErrInvalidSchema wraps every problem found while loading a schema.
	ErrInvalidSchema = errors.New("schema: invalid schema")

	// ErrUnknownReference is returned when a field names a message or enum
	// the schema does not declare.
	ErrUnknownReference = errors.New("schema: unknown reference")

	// ErrUnknownMessage is returned when a registry lookup names a message
	// the schema does not declare.
	ErrUnknownMessage = errors.New("schema: unknown message")

	// ErrInvalidRules is returned when a rules block cannot be turned into a
	// rule set for the field kind.
	ErrInvalidRules = errors.New("schema: invalid rules")

	// ErrDescriptor is returned when the schema cannot be expressed as a
	// protobuf file descriptor.
	ErrDescriptor = errors.New("schema: descriptor export failed")
)
