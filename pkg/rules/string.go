package rules

import (
	"fmt"
	"regexp"
	"slices"
)

// StringRules is the immutable rule set of a string field.
type StringRules struct {
	Common
	Const       Opt[string]
	Len         Opt[uint64]
	MinLen      Opt[uint64]
	MaxLen      Opt[uint64]
	LenBytes    Opt[uint64]
	MinBytes    Opt[uint64]
	MaxBytes    Opt[uint64]
	Pattern     *regexp.Regexp
	Prefix      Opt[string]
	Suffix      Opt[string]
	Contains    Opt[string]
	NotContains Opt[string]
	In          []string
	NotIn       []string
	WellKnown   WellKnown
}

func (StringRules) Kind() Kind { return KindString }

// Clone returns a deep copy.
func (r StringRules) Clone() StringRules {
	r.Common = r.Common.clone()
	r.In = slices.Clone(r.In)
	r.NotIn = slices.Clone(r.NotIn)
	return r
}

func (r StringRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.Len.IsSet(), "len")
	names = appendIf(names, r.MinLen.IsSet(), "min_len")
	names = appendIf(names, r.MaxLen.IsSet(), "max_len")
	names = appendIf(names, r.LenBytes.IsSet(), "len_bytes")
	names = appendIf(names, r.MinBytes.IsSet(), "min_bytes")
	names = appendIf(names, r.MaxBytes.IsSet(), "max_bytes")
	names = appendIf(names, r.Pattern != nil, "pattern")
	names = appendIf(names, r.Prefix.IsSet(), "prefix")
	names = appendIf(names, r.Suffix.IsSet(), "suffix")
	names = appendIf(names, r.Contains.IsSet(), "contains")
	names = appendIf(names, r.NotContains.IsSet(), "not_contains")
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	names = appendIf(names, r.WellKnown != WellKnownNone, r.WellKnown.String())
	return names
}

const (
	strConst uint = bitKind + iota
	strLen
	strMinLen
	strMaxLen
	strLenBytes
	strMinBytes
	strMaxBytes
	strPattern
	strPrefix
	strSuffix
	strContains
	strNotContains
	strIn
	strNotIn
	strWellKnown
)

// StringBuilder accumulates string rules. Each setter returns a new builder.
type StringBuilder struct {
	t       tracker
	r       StringRules
	pattern string
}

// String starts a string rule set.
func String() StringBuilder {
	return StringBuilder{t: tracker{kind: KindString}}
}

// Required reports an absent value as a violation.
func (b StringBuilder) Required() StringBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b StringBuilder) Ignore(policy Ignore) StringBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b StringBuilder) CEL(preds ...Predicate) StringBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b StringBuilder) Const(v string) StringBuilder {
	b.t, b.r.Const = setOpt(b.t, strConst, "const", b.r.Const, v)
	return b
}

// Len requires exactly n characters.
func (b StringBuilder) Len(n uint64) StringBuilder {
	b.t, b.r.Len = setOpt(b.t, strLen, "len", b.r.Len, n)
	return b
}

// MinLen requires at least n characters.
func (b StringBuilder) MinLen(n uint64) StringBuilder {
	b.t, b.r.MinLen = setOpt(b.t, strMinLen, "min_len", b.r.MinLen, n)
	return b
}

// MaxLen allows at most n characters.
func (b StringBuilder) MaxLen(n uint64) StringBuilder {
	b.t, b.r.MaxLen = setOpt(b.t, strMaxLen, "max_len", b.r.MaxLen, n)
	return b
}

// LenBytes requires exactly n bytes of UTF-8.
func (b StringBuilder) LenBytes(n uint64) StringBuilder {
	b.t, b.r.LenBytes = setOpt(b.t, strLenBytes, "len_bytes", b.r.LenBytes, n)
	return b
}

// MinBytes requires at least n bytes of UTF-8.
func (b StringBuilder) MinBytes(n uint64) StringBuilder {
	b.t, b.r.MinBytes = setOpt(b.t, strMinBytes, "min_bytes", b.r.MinBytes, n)
	return b
}

// MaxBytes allows at most n bytes of UTF-8.
func (b StringBuilder) MaxBytes(n uint64) StringBuilder {
	b.t, b.r.MaxBytes = setOpt(b.t, strMaxBytes, "max_bytes", b.r.MaxBytes, n)
	return b
}

// Pattern declares an RE2 expression the value must match. It is compiled by Build.
func (b StringBuilder) Pattern(expr string) StringBuilder {
	if t, ok := b.t.mark(strPattern, "pattern"); ok {
		b.t, b.pattern = t, expr
	} else {
		b.t = t
	}
	return b
}

// Prefix requires the value to start with s.
func (b StringBuilder) Prefix(s string) StringBuilder {
	b.t, b.r.Prefix = setOpt(b.t, strPrefix, "prefix", b.r.Prefix, s)
	return b
}

// Suffix requires the value to end with s.
func (b StringBuilder) Suffix(s string) StringBuilder {
	b.t, b.r.Suffix = setOpt(b.t, strSuffix, "suffix", b.r.Suffix, s)
	return b
}

// Contains requires s to occur in the value.
func (b StringBuilder) Contains(s string) StringBuilder {
	b.t, b.r.Contains = setOpt(b.t, strContains, "contains", b.r.Contains, s)
	return b
}

// NotContains rejects values containing s.
func (b StringBuilder) NotContains(s string) StringBuilder {
	b.t, b.r.NotContains = setOpt(b.t, strNotContains, "not_contains", b.r.NotContains, s)
	return b
}

// In restricts the value to one of values.
func (b StringBuilder) In(values ...string) StringBuilder {
	b.t, b.r.In = setList(b.t, strIn, "in", b.r.In, values)
	return b
}

// NotIn rejects every one of values.
func (b StringBuilder) NotIn(values ...string) StringBuilder {
	b.t, b.r.NotIn = setList(b.t, strNotIn, "not_in", b.r.NotIn, values)
	return b
}

// WellKnown declares a predefined format. Only one format can be declared.
func (b StringBuilder) WellKnown(format WellKnown) StringBuilder {
	if t, ok := b.t.mark(strWellKnown, "well_known"); ok {
		b.t, b.r.WellKnown = t, format
	} else {
		b.t = t
	}
	return b
}

// Email requires an email address.
func (b StringBuilder) Email() StringBuilder { return b.WellKnown(WellKnownEmail) }

// Hostname requires an RFC 1123 host name.
func (b StringBuilder) Hostname() StringBuilder { return b.WellKnown(WellKnownHostname) }

// IP requires an IPv4 or IPv6 address.
func (b StringBuilder) IP() StringBuilder { return b.WellKnown(WellKnownIP) }

// URI requires an absolute URI.
func (b StringBuilder) URI() StringBuilder { return b.WellKnown(WellKnownURI) }

// UUID requires a UUID in its canonical text form.
func (b StringBuilder) UUID() StringBuilder { return b.WellKnown(WellKnownUUID) }

// Build finalizes the rule set.
func (b StringBuilder) Build() (StringRules, error) {
	r := b.r.Clone()
	t := b.t
	if t.has(strPattern) {
		re, err := regexp.Compile(b.pattern)
		if err != nil {
			t = t.fail(fmt.Errorf("%w: string.pattern %q: %w", ErrInvalidPattern, b.pattern, err))
		}
		r.Pattern = re
	}
	if err := t.err(); err != nil {
		return StringRules{}, err
	}
	return r, nil
}

// MustBuild is like Build but panics on an invalid rule set.
func (b StringBuilder) MustBuild() StringRules {
	return mustBuild(b.Build())
}

func setOpt[T any](t tracker, bit uint, name string, cur Opt[T], v T) (tracker, Opt[T]) {
	t, ok := t.mark(bit, name)
	if !ok {
		return t, cur
	}
	return t, Some(v)
}

func setList[T any](t tracker, bit uint, name string, cur, values []T) (tracker, []T) {
	t, ok := t.mark(bit, name)
	if !ok {
		return t, cur
	}
	return t, slices.Clone(values)
}

func appendIf(names []string, cond bool, name string) []string {
	if cond {
		return append(names, name)
	}
	return names
}
