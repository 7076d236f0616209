package rules

import "slices"

// BoolRules is the immutable rule set of a bool field.
type BoolRules struct {
	Common
	Const Opt[bool]
}

func (BoolRules) Kind() Kind { return KindBool }

// Clone returns a copy that shares no slices with r.
func (r BoolRules) Clone() BoolRules {
	r.Common = r.Common.clone()
	return r
}

func (r BoolRules) Declared() []string {
	return appendIf(r.Common.declared(nil), r.Const.IsSet(), "const")
}

const boolConst uint = bitKind

// BoolBuilder accumulates bool rules.
type BoolBuilder struct {
	t tracker
	r BoolRules
}

// Bool starts a bool rule set.
func Bool() BoolBuilder {
	return BoolBuilder{t: tracker{kind: KindBool}}
}

// Required reports an absent value as a violation.
func (b BoolBuilder) Required() BoolBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b BoolBuilder) Ignore(policy Ignore) BoolBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b BoolBuilder) CEL(preds ...Predicate) BoolBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b BoolBuilder) Const(v bool) BoolBuilder {
	b.t, b.r.Const = setOpt(b.t, boolConst, "const", b.r.Const, v)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b BoolBuilder) Build() (BoolRules, error) {
	if err := b.t.err(); err != nil {
		return BoolRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b BoolBuilder) MustBuild() BoolRules {
	return mustBuild(b.Build())
}

// EnumRules is the immutable rule set of an enum field. Enum values are
// carried as their int32 numbers.
type EnumRules struct {
	Common
	Const       Opt[int32]
	DefinedOnly bool
	Defined     []int32
	In          []int32
	NotIn       []int32
}

func (EnumRules) Kind() Kind { return KindEnum }

// Clone returns a copy that shares no slices with r.
func (r EnumRules) Clone() EnumRules {
	r.Common = r.Common.clone()
	r.Defined = slices.Clone(r.Defined)
	r.In = slices.Clone(r.In)
	r.NotIn = slices.Clone(r.NotIn)
	return r
}

func (r EnumRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.DefinedOnly, "defined_only")
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	return names
}

const (
	enumConst uint = bitKind + iota
	enumDefinedOnly
	enumIn
	enumNotIn
)

// EnumBuilder accumulates enum rules.
type EnumBuilder struct {
	t tracker
	r EnumRules
}

// Enum starts an enum rule set.
func Enum() EnumBuilder {
	return EnumBuilder{t: tracker{kind: KindEnum}}
}

// Required reports an absent value as a violation.
func (b EnumBuilder) Required() EnumBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b EnumBuilder) Ignore(policy Ignore) EnumBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b EnumBuilder) CEL(preds ...Predicate) EnumBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b EnumBuilder) Const(v int32) EnumBuilder {
	b.t, b.r.Const = setOpt(b.t, enumConst, "const", b.r.Const, v)
	return b
}

// DefinedOnly restricts the value to the numbers declared by the enum type.
func (b EnumBuilder) DefinedOnly(defined ...int32) EnumBuilder {
	t, ok := b.t.mark(enumDefinedOnly, "defined_only")
	b.t = t
	if ok {
		b.r.DefinedOnly = true
		b.r.Defined = slices.Clone(defined)
	}
	return b
}

// In restricts the value to one of values.
func (b EnumBuilder) In(values ...int32) EnumBuilder {
	b.t, b.r.In = setList(b.t, enumIn, "in", b.r.In, values)
	return b
}

// NotIn rejects every one of values.
func (b EnumBuilder) NotIn(values ...int32) EnumBuilder {
	b.t, b.r.NotIn = setList(b.t, enumNotIn, "not_in", b.r.NotIn, values)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b EnumBuilder) Build() (EnumRules, error) {
	if err := b.t.err(); err != nil {
		return EnumRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b EnumBuilder) MustBuild() EnumRules {
	return mustBuild(b.Build())
}

// AnyRules is the immutable rule set of a google.protobuf.Any field,
// constraining its type URL.
type AnyRules struct {
	Common
	In    []string
	NotIn []string
}

func (AnyRules) Kind() Kind { return KindAny }

// Clone returns a copy that shares no slices with r.
func (r AnyRules) Clone() AnyRules {
	r.Common = r.Common.clone()
	r.In = slices.Clone(r.In)
	r.NotIn = slices.Clone(r.NotIn)
	return r
}

func (r AnyRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	return names
}

const (
	anyIn uint = bitKind + iota
	anyNotIn
)

type AnyBuilder struct {
	t tracker
	r AnyRules
}

// Any starts a google.protobuf.Any rule set.
func Any() AnyBuilder {
	return AnyBuilder{t: tracker{kind: KindAny}}
}

// Required reports an absent value as a violation.
func (b AnyBuilder) Required() AnyBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b AnyBuilder) Ignore(policy Ignore) AnyBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// In restricts the value to one of typeURLs.
func (b AnyBuilder) In(typeURLs ...string) AnyBuilder {
	b.t, b.r.In = setList(b.t, anyIn, "in", b.r.In, typeURLs)
	return b
}

// NotIn rejects every one of typeURLs.
func (b AnyBuilder) NotIn(typeURLs ...string) AnyBuilder {
	b.t, b.r.NotIn = setList(b.t, anyNotIn, "not_in", b.r.NotIn, typeURLs)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b AnyBuilder) Build() (AnyRules, error) {
	if err := b.t.err(); err != nil {
		return AnyRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b AnyBuilder) MustBuild() AnyRules {
	return mustBuild(b.Build())
}
