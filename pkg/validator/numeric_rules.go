package validator

import (
	"math"
	"slices"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

type numericIDs struct {
	constID, lt, lte, gt, gte, in, notIn, finite string
}

func newNumericIDs(k rules.Kind) numericIDs {
	p := k.String() + "."
	return numericIDs{
		constID: p + "const",
		lt:      p + "lt",
		lte:     p + "lte",
		gt:      p + "gt",
		gte:     p + "gte",
		in:      p + "in",
		notIn:   p + "not_in",
		finite:  p + "finite",
	}
}

// Numeric validates integer and floating point fields.
type Numeric[T rules.Number] struct {
	r    rules.NumericRules[T]
	kind rules.Kind
	tol  T
	ids  numericIDs
}

// NewNumeric creates a checker for r. When r carries no kind, the kind is
// inferred from T.
func NewNumeric[T rules.Number](r rules.NumericRules[T]) *Numeric[T] {
	kind := r.Kind()
	if kind == rules.KindUnspecified {
		kind = numericKindOf[T]()
	}
	c := &Numeric[T]{r: r.Clone(), kind: kind, ids: newNumericIDs(kind)}
	if kind.IsFloat() {
		c.tol = r.Tolerance.Value()
	}
	return c
}

func numericKindOf[T rules.Number]() rules.Kind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return rules.KindInt32
	case uint32:
		return rules.KindUint32
	case uint64:
		return rules.KindUint64
	case float32:
		return rules.KindFloat
	case float64:
		return rules.KindDouble
	}
	return rules.KindInt64
}

func (c *Numeric[T]) Kind() rules.Kind     { return c.kind }
func (c *Numeric[T]) Rules() rules.RuleSet { return c.r }

func (c *Numeric[T]) equal(a, b T) bool { return c.r.Equal(a, b) }

// hash declines tolerance-aware comparisons, which cannot be bucketed.
func (c *Numeric[T]) hash(v T) (uint64, bool) {
	if c.tol != 0 {
		return 0, false
	}
	if c.kind.IsFloat() {
		f := float64(v)
		if f == 0 {
			f = 0 // -0 and +0 share a bucket
		}
		return math.Float64bits(f), true
	}
	return uint64(v), true
}

func (c *Numeric[T]) check(st *state, v T, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, v == 0) {
		return
	}

	if want, ok := r.Const.Get(); ok && !r.Equal(v, want) {
		st.failf(c.ids.constID, want, "must equal %v", want)
		return
	}

	if r.Finite && c.kind.IsFloat() {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			if st.fail(c.ids.finite, nil, "must be finite") {
				return
			}
		}
	}

	if bound, ok := r.Lt.Get(); ok && !(v < bound-c.tol) {
		if st.failf(c.ids.lt, bound, "must be less than %v", bound) {
			return
		}
	}
	if bound, ok := r.Lte.Get(); ok && !(v <= bound+c.tol) {
		if st.failf(c.ids.lte, bound, "must be at most %v", bound) {
			return
		}
	}
	if bound, ok := r.Gt.Get(); ok && !(v > bound+c.tol) {
		if st.failf(c.ids.gt, bound, "must be greater than %v", bound) {
			return
		}
	}
	if bound, ok := r.Gte.Get(); ok && !(v >= bound-c.tol) {
		if st.failf(c.ids.gte, bound, "must be at least %v", bound) {
			return
		}
	}

	if len(r.In) > 0 && !slices.ContainsFunc(r.In, func(x T) bool { return r.Equal(v, x) }) {
		if st.failf(c.ids.in, r.In, "must be one of %v", r.In) {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.ContainsFunc(r.NotIn, func(x T) bool { return r.Equal(v, x) }) {
		if st.failf(c.ids.notIn, r.NotIn, "must not be one of %v", r.NotIn) {
			return
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}
