package validator

import (
	"reflect"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Checker applies the rule set of one field kind to a value of type T.
// Checkers are created once at schema-build time and are safe for
// concurrent use.
type Checker[T any] interface {
	// Kind is the field kind the checker validates.
	Kind() rules.Kind
	// Rules returns the rule set the checker applies.
	Rules() rules.RuleSet
	check(st *state, v T, present bool)
}

// equaler is implemented by checkers that define value equality for the
// unique rule of a repeated field.
type equaler[T any] interface {
	equal(a, b T) bool
}

// hasher is implemented by checkers whose values can be bucketed by hash
// before pairwise comparison. ok is false when the checker's equality
// cannot be expressed as hash equality.
type hasher[T any] interface {
	hash(v T) (h uint64, ok bool)
}

// describer is implemented by checkers that wrap other checkers.
type describer interface {
	describe(info *FieldInfo)
}

// Converter turns a dynamically typed value into the checker's value type.
type Converter[T any] func(v any) (T, bool)

type converted[T any] struct {
	inner Checker[T]
	conv  Converter[T]
}

// Convert adapts c to values of unknown Go type, such as decoded JSON or
// YAML documents. A value conv rejects yields a "<kind>.type" violation.
func Convert[T any](c Checker[T], conv Converter[T]) Checker[any] {
	return &converted[T]{inner: c, conv: conv}
}

func (c *converted[T]) Kind() rules.Kind     { return c.inner.Kind() }
func (c *converted[T]) Rules() rules.RuleSet { return c.inner.Rules() }

func (c *converted[T]) check(st *state, v any, present bool) {
	if !present || v == nil {
		var zero T
		c.inner.check(st, zero, false)
		return
	}
	tv, ok := c.conv(v)
	if !ok {
		if c.inner.Rules().CommonRules().Ignore == rules.IgnoreAlways {
			return
		}
		st.failf(c.Kind().String()+".type", nil, "value must be of kind %s, got %T", c.Kind(), v)
		return
	}
	c.inner.check(st, tv, true)
}

func (c *converted[T]) equal(a, b any) bool {
	ta, okA := c.conv(a)
	tb, okB := c.conv(b)
	if !okA || !okB {
		return reflect.DeepEqual(a, b)
	}
	if e, ok := c.inner.(equaler[T]); ok {
		return e.equal(ta, tb)
	}
	return reflect.DeepEqual(ta, tb)
}

func (c *converted[T]) describe(info *FieldInfo) {
	if d, ok := c.inner.(describer); ok {
		d.describe(info)
	}
}

func (c *converted[T]) zero() any {
	return zeroOf(c.inner)
}

// zeroer is implemented by checkers whose default value differs from the
// zero value of their Go type.
type zeroer interface {
	zero() any
}

func zeroOf[T any](c Checker[T]) any {
	if z, ok := c.(zeroer); ok {
		return z.zero()
	}
	var zero T
	return zero
}
