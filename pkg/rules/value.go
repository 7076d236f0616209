package rules

import "slices"

// Number is the constraint satisfied by every numeric rule value type.
type Number interface {
	~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Opt holds a rule value that may or may not be declared.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some declares a rule value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// Get returns the declared value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.ok
}

// IsSet reports whether the value is declared.
func (o Opt[T]) IsSet() bool {
	return o.ok
}

// Value returns the declared value or the zero value.
func (o Opt[T]) Value() T {
	return o.v
}

// Predicate is an opaque custom rule evaluated by an expression evaluator.
// The expression sees the validated value as `this` and must produce a bool,
// or a string where the empty string means success.
type Predicate struct {
	ID         string
	Message    string
	Expression string
}

// Common holds the rules every field kind supports.
type Common struct {
	Required bool
	Ignore   Ignore
	CEL      []Predicate
}

// CommonRules returns the shared rules of a rule set.
func (c Common) CommonRules() Common {
	return c
}

func (c Common) clone() Common {
	c.CEL = slices.Clone(c.CEL)
	return c
}

func (c Common) declared(names []string) []string {
	if c.Required {
		names = append(names, "required")
	}
	if c.Ignore != IgnoreUnspecified {
		names = append(names, "ignore")
	}
	if len(c.CEL) > 0 {
		names = append(names, "cel")
	}
	return names
}

// RuleSet is implemented by every immutable rule bundle.
type RuleSet interface {
	// Kind is the field kind family the rules apply to.
	Kind() Kind
	// CommonRules returns required/ignore/cel rules.
	CommonRules() Common
	// Declared lists the names of the rules that are set, in evaluation order.
	Declared() []string
}
