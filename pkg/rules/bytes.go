package rules

import (
	"fmt"
	"regexp"
	"slices"
)

// BytesRules is the immutable rule set of a bytes field.
type BytesRules struct {
	Common
	Const     Opt[[]byte]
	Len       Opt[uint64]
	MinLen    Opt[uint64]
	MaxLen    Opt[uint64]
	Pattern   *regexp.Regexp
	Prefix    Opt[[]byte]
	Suffix    Opt[[]byte]
	Contains  Opt[[]byte]
	In        [][]byte
	NotIn     [][]byte
	WellKnown WellKnown
}

func (BytesRules) Kind() Kind { return KindBytes }

// Clone returns a deep copy.
func (r BytesRules) Clone() BytesRules {
	r.Common = r.Common.clone()
	r.Const = cloneBytesOpt(r.Const)
	r.Prefix = cloneBytesOpt(r.Prefix)
	r.Suffix = cloneBytesOpt(r.Suffix)
	r.Contains = cloneBytesOpt(r.Contains)
	r.In = cloneBytesList(r.In)
	r.NotIn = cloneBytesList(r.NotIn)
	return r
}

func (r BytesRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.Len.IsSet(), "len")
	names = appendIf(names, r.MinLen.IsSet(), "min_len")
	names = appendIf(names, r.MaxLen.IsSet(), "max_len")
	names = appendIf(names, r.Pattern != nil, "pattern")
	names = appendIf(names, r.Prefix.IsSet(), "prefix")
	names = appendIf(names, r.Suffix.IsSet(), "suffix")
	names = appendIf(names, r.Contains.IsSet(), "contains")
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	names = appendIf(names, r.WellKnown != WellKnownNone, r.WellKnown.String())
	return names
}

const (
	bytesConst uint = bitKind + iota
	bytesLen
	bytesMinLen
	bytesMaxLen
	bytesPattern
	bytesPrefix
	bytesSuffix
	bytesContains
	bytesIn
	bytesNotIn
	bytesWellKnown
)

// BytesBuilder accumulates bytes rules.
type BytesBuilder struct {
	t       tracker
	r       BytesRules
	pattern string
}

// Bytes starts a bytes rule set.
func Bytes() BytesBuilder {
	return BytesBuilder{t: tracker{kind: KindBytes}}
}

// Required reports an absent value as a violation.
func (b BytesBuilder) Required() BytesBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b BytesBuilder) Ignore(policy Ignore) BytesBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b BytesBuilder) CEL(preds ...Predicate) BytesBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b BytesBuilder) Const(v []byte) BytesBuilder {
	b.t, b.r.Const = setOpt(b.t, bytesConst, "const", b.r.Const, slices.Clone(v))
	return b
}

// Len requires exactly n bytes.
func (b BytesBuilder) Len(n uint64) BytesBuilder {
	b.t, b.r.Len = setOpt(b.t, bytesLen, "len", b.r.Len, n)
	return b
}

// MinLen requires at least n bytes.
func (b BytesBuilder) MinLen(n uint64) BytesBuilder {
	b.t, b.r.MinLen = setOpt(b.t, bytesMinLen, "min_len", b.r.MinLen, n)
	return b
}

// MaxLen allows at most n bytes.
func (b BytesBuilder) MaxLen(n uint64) BytesBuilder {
	b.t, b.r.MaxLen = setOpt(b.t, bytesMaxLen, "max_len", b.r.MaxLen, n)
	return b
}

// Pattern requires a match of the RE2 expression expr. An invalid expression fails Build.
func (b BytesBuilder) Pattern(expr string) BytesBuilder {
	if t, ok := b.t.mark(bytesPattern, "pattern"); ok {
		b.t, b.pattern = t, expr
	} else {
		b.t = t
	}
	return b
}

// Prefix requires the value to start with p.
func (b BytesBuilder) Prefix(p []byte) BytesBuilder {
	b.t, b.r.Prefix = setOpt(b.t, bytesPrefix, "prefix", b.r.Prefix, slices.Clone(p))
	return b
}

// Suffix requires the value to end with s.
func (b BytesBuilder) Suffix(s []byte) BytesBuilder {
	b.t, b.r.Suffix = setOpt(b.t, bytesSuffix, "suffix", b.r.Suffix, slices.Clone(s))
	return b
}

// Contains requires s to occur in the value.
func (b BytesBuilder) Contains(s []byte) BytesBuilder {
	b.t, b.r.Contains = setOpt(b.t, bytesContains, "contains", b.r.Contains, slices.Clone(s))
	return b
}

// In restricts the value to one of values.
func (b BytesBuilder) In(values ...[]byte) BytesBuilder {
	b.t, b.r.In = setList(b.t, bytesIn, "in", b.r.In, cloneBytesList(values))
	return b
}

// NotIn rejects every one of values.
func (b BytesBuilder) NotIn(values ...[]byte) BytesBuilder {
	b.t, b.r.NotIn = setList(b.t, bytesNotIn, "not_in", b.r.NotIn, cloneBytesList(values))
	return b
}

// WellKnown declares an address format; only ip, ipv4 and ipv6 apply to bytes.
func (b BytesBuilder) WellKnown(format WellKnown) BytesBuilder {
	if !format.AppliesToBytes() {
		b.t = b.t.fail(fmt.Errorf("%w: bytes.%s is not a bytes format", ErrInvalidRule, format))
		return b
	}
	if t, ok := b.t.mark(bytesWellKnown, "well_known"); ok {
		b.t, b.r.WellKnown = t, format
	} else {
		b.t = t
	}
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b BytesBuilder) Build() (BytesRules, error) {
	r := b.r.Clone()
	t := b.t
	if t.has(bytesPattern) {
		re, err := regexp.Compile(b.pattern)
		if err != nil {
			t = t.fail(fmt.Errorf("%w: bytes.pattern %q: %w", ErrInvalidPattern, b.pattern, err))
		}
		r.Pattern = re
	}
	if err := t.err(); err != nil {
		return BytesRules{}, err
	}
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b BytesBuilder) MustBuild() BytesRules {
	return mustBuild(b.Build())
}

func cloneBytesOpt(o Opt[[]byte]) Opt[[]byte] {
	if v, ok := o.Get(); ok {
		return Some(slices.Clone(v))
	}
	return o
}

func cloneBytesList(in [][]byte) [][]byte {
	if in == nil {
		return nil
	}
	out := make([][]byte, len(in))
	for i, v := range in {
		out[i] = slices.Clone(v)
	}
	return out
}
