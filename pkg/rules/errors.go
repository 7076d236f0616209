package rules

import "errors"

var (
	// ErrRuleAlreadySet is returned when a builder sets the same rule twice.
	ErrRuleAlreadySet = errors.New("rule already set")

	// ErrMutuallyExclusive is returned when a builder combines rules that cannot coexist.
	ErrMutuallyExclusive = errors.New("rules are mutually exclusive")

	// ErrInvalidPattern is returned when a pattern rule does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidRule is returned when a rule value is unusable, e.g. an empty predicate.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownKind is returned when a kind name cannot be resolved.
	ErrUnknownKind = errors.New("unknown field kind")

	// ErrUnknownIgnore is returned when an ignore policy name cannot be resolved.
	ErrUnknownIgnore = errors.New("unknown ignore policy")

	// ErrUnknownFormat is returned when a well-known format name cannot be resolved.
	ErrUnknownFormat = errors.New("unknown well-known format")
)
