package rules

import (
	"fmt"
	"slices"
)

// NumericRules is the immutable rule set of an integer or floating point field.
type NumericRules[T Number] struct {
	Common
	kind      Kind
	Const     Opt[T]
	Lt        Opt[T]
	Lte       Opt[T]
	Gt        Opt[T]
	Gte       Opt[T]
	In        []T
	NotIn     []T
	Finite    bool
	Tolerance Opt[T]
}

func (r NumericRules[T]) Kind() Kind { return r.kind }

// Clone returns a copy that shares no slices with r.
func (r NumericRules[T]) Clone() NumericRules[T] {
	r.Common = r.Common.clone()
	r.In = slices.Clone(r.In)
	r.NotIn = slices.Clone(r.NotIn)
	return r
}

func (r NumericRules[T]) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.Lt.IsSet(), "lt")
	names = appendIf(names, r.Lte.IsSet(), "lte")
	names = appendIf(names, r.Gt.IsSet(), "gt")
	names = appendIf(names, r.Gte.IsSet(), "gte")
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	names = appendIf(names, r.Finite, "finite")
	names = appendIf(names, r.Tolerance.IsSet(), "tolerance")
	return names
}

// Equal compares two values, honoring the declared absolute tolerance.
func (r NumericRules[T]) Equal(a, b T) bool {
	tol, ok := r.Tolerance.Get()
	if !ok {
		return a == b
	}
	d := a - b
	if a < b {
		d = b - a
	}
	return d <= tol
}

const (
	numConst uint = bitKind + iota
	numLt
	numLte
	numGt
	numGte
	numIn
	numNotIn
	numFinite
	numTolerance
)

// NumericBuilder accumulates numeric rules for one numeric kind.
type NumericBuilder[T Number] struct {
	t tracker
	r NumericRules[T]
}

// Numeric starts a rule set for kind, which must be one of the numeric kinds.
func Numeric[T Number](kind Kind) NumericBuilder[T] {
	b := NumericBuilder[T]{t: tracker{kind: kind}, r: NumericRules[T]{kind: kind}}
	if !kind.IsNumeric() {
		b.t = b.t.fail(fmt.Errorf("%w: %s is not a numeric kind", ErrInvalidRule, kind))
	}
	return b
}

// Int32 starts an int32 rule set.
func Int32() NumericBuilder[int32] { return Numeric[int32](KindInt32) }

// Int64 starts an int64 rule set.
func Int64() NumericBuilder[int64] { return Numeric[int64](KindInt64) }

// Uint32 starts a uint32 rule set.
func Uint32() NumericBuilder[uint32] { return Numeric[uint32](KindUint32) }

// Uint64 starts a uint64 rule set.
func Uint64() NumericBuilder[uint64] { return Numeric[uint64](KindUint64) }

// Sint32 starts a sint32 rule set.
func Sint32() NumericBuilder[int32] { return Numeric[int32](KindSint32) }

// Sint64 starts a sint64 rule set.
func Sint64() NumericBuilder[int64] { return Numeric[int64](KindSint64) }

// Fixed32 starts a fixed32 rule set.
func Fixed32() NumericBuilder[uint32] { return Numeric[uint32](KindFixed32) }

// Fixed64 starts a fixed64 rule set.
func Fixed64() NumericBuilder[uint64] { return Numeric[uint64](KindFixed64) }

// Sfixed32 starts a sfixed32 rule set.
func Sfixed32() NumericBuilder[int32] { return Numeric[int32](KindSfixed32) }

// Sfixed64 starts a sfixed64 rule set.
func Sfixed64() NumericBuilder[int64] { return Numeric[int64](KindSfixed64) }

// Float starts a float rule set.
func Float() NumericBuilder[float32] { return Numeric[float32](KindFloat) }

// Double starts a double rule set.
func Double() NumericBuilder[float64] { return Numeric[float64](KindDouble) }

// Required reports an absent value as a violation.
func (b NumericBuilder[T]) Required() NumericBuilder[T] {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b NumericBuilder[T]) Ignore(policy Ignore) NumericBuilder[T] {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b NumericBuilder[T]) CEL(preds ...Predicate) NumericBuilder[T] {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b NumericBuilder[T]) Const(v T) NumericBuilder[T] {
	b.t, b.r.Const = setOpt(b.t, numConst, "const", b.r.Const, v)
	return b
}

// Lt declares an exclusive upper bound. It cannot be combined with Lte.
func (b NumericBuilder[T]) Lt(v T) NumericBuilder[T] {
	b.t, b.r.Lt = setExclusive(b.t, numLt, "lt", map[uint]string{numLte: "lte"}, b.r.Lt, v)
	return b
}

// Lte declares an inclusive upper bound. It cannot be combined with Lt.
func (b NumericBuilder[T]) Lte(v T) NumericBuilder[T] {
	b.t, b.r.Lte = setExclusive(b.t, numLte, "lte", map[uint]string{numLt: "lt"}, b.r.Lte, v)
	return b
}

// Gt declares an exclusive lower bound. It cannot be combined with Gte.
func (b NumericBuilder[T]) Gt(v T) NumericBuilder[T] {
	b.t, b.r.Gt = setExclusive(b.t, numGt, "gt", map[uint]string{numGte: "gte"}, b.r.Gt, v)
	return b
}

// Gte declares an inclusive lower bound. It cannot be combined with Gt.
func (b NumericBuilder[T]) Gte(v T) NumericBuilder[T] {
	b.t, b.r.Gte = setExclusive(b.t, numGte, "gte", map[uint]string{numGt: "gt"}, b.r.Gte, v)
	return b
}

// In restricts the value to one of values.
func (b NumericBuilder[T]) In(values ...T) NumericBuilder[T] {
	b.t, b.r.In = setList(b.t, numIn, "in", b.r.In, values)
	return b
}

// NotIn rejects every one of values.
func (b NumericBuilder[T]) NotIn(values ...T) NumericBuilder[T] {
	b.t, b.r.NotIn = setList(b.t, numNotIn, "not_in", b.r.NotIn, values)
	return b
}

// Finite rejects NaN and infinities. Meaningful for float and double only.
func (b NumericBuilder[T]) Finite() NumericBuilder[T] {
	if t, ok := b.t.mark(numFinite, "finite"); ok {
		b.t, b.r.Finite = t, true
	} else {
		b.t = t
	}
	return b
}

// Tolerance makes equality and ordering checks use an absolute tolerance.
// Integer kinds reject it.
func (b NumericBuilder[T]) Tolerance(abs T) NumericBuilder[T] {
	if !b.r.kind.IsFloat() {
		b.t = b.t.fail(fmt.Errorf("%w: %s.tolerance only applies to float and double", ErrInvalidRule, b.r.kind))
		return b
	}
	b.t, b.r.Tolerance = setOpt(b.t, numTolerance, "tolerance", b.r.Tolerance, abs)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b NumericBuilder[T]) Build() (NumericRules[T], error) {
	if err := b.t.err(); err != nil {
		return NumericRules[T]{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b NumericBuilder[T]) MustBuild() NumericRules[T] {
	return mustBuild(b.Build())
}

func setExclusive[T any](t tracker, bit uint, name string, conflicts map[uint]string, cur Opt[T], v T) (tracker, Opt[T]) {
	t, ok := t.exclusive(bit, name, conflicts)
	if !ok {
		return t, cur
	}
	return t, Some(v)
}
