package rules

import (
	"slices"
	"time"
)

// DurationRules is the immutable rule set of a duration field.
type DurationRules struct {
	Common
	Const Opt[time.Duration]
	Lt    Opt[time.Duration]
	Lte   Opt[time.Duration]
	Gt    Opt[time.Duration]
	Gte   Opt[time.Duration]
	In    []time.Duration
	NotIn []time.Duration
}

func (DurationRules) Kind() Kind { return KindDuration }

// Clone returns a copy that shares no slices with r.
func (r DurationRules) Clone() DurationRules {
	r.Common = r.Common.clone()
	r.In = slices.Clone(r.In)
	r.NotIn = slices.Clone(r.NotIn)
	return r
}

func (r DurationRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.Lt.IsSet(), "lt")
	names = appendIf(names, r.Lte.IsSet(), "lte")
	names = appendIf(names, r.Gt.IsSet(), "gt")
	names = appendIf(names, r.Gte.IsSet(), "gte")
	names = appendIf(names, len(r.In) > 0, "in")
	names = appendIf(names, len(r.NotIn) > 0, "not_in")
	return names
}

const (
	durConst uint = bitKind + iota
	durLt
	durLte
	durGt
	durGte
	durIn
	durNotIn
)

// DurationBuilder accumulates duration rules.
type DurationBuilder struct {
	t tracker
	r DurationRules
}

// Duration starts a duration rule set.
func Duration() DurationBuilder {
	return DurationBuilder{t: tracker{kind: KindDuration}}
}

// Required reports an absent value as a violation.
func (b DurationBuilder) Required() DurationBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b DurationBuilder) Ignore(policy Ignore) DurationBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b DurationBuilder) CEL(preds ...Predicate) DurationBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b DurationBuilder) Const(v time.Duration) DurationBuilder {
	b.t, b.r.Const = setOpt(b.t, durConst, "const", b.r.Const, v)
	return b
}

// Lt declares an exclusive upper bound. It cannot be combined with Lte.
func (b DurationBuilder) Lt(v time.Duration) DurationBuilder {
	b.t, b.r.Lt = setExclusive(b.t, durLt, "lt", map[uint]string{durLte: "lte"}, b.r.Lt, v)
	return b
}

// Lte declares an inclusive upper bound. It cannot be combined with Lt.
func (b DurationBuilder) Lte(v time.Duration) DurationBuilder {
	b.t, b.r.Lte = setExclusive(b.t, durLte, "lte", map[uint]string{durLt: "lt"}, b.r.Lte, v)
	return b
}

// Gt declares an exclusive lower bound. It cannot be combined with Gte.
func (b DurationBuilder) Gt(v time.Duration) DurationBuilder {
	b.t, b.r.Gt = setExclusive(b.t, durGt, "gt", map[uint]string{durGte: "gte"}, b.r.Gt, v)
	return b
}

// Gte declares an inclusive lower bound. It cannot be combined with Gt.
func (b DurationBuilder) Gte(v time.Duration) DurationBuilder {
	b.t, b.r.Gte = setExclusive(b.t, durGte, "gte", map[uint]string{durGt: "gt"}, b.r.Gte, v)
	return b
}

// In restricts the value to one of values.
func (b DurationBuilder) In(values ...time.Duration) DurationBuilder {
	b.t, b.r.In = setList(b.t, durIn, "in", b.r.In, values)
	return b
}

// NotIn rejects every one of values.
func (b DurationBuilder) NotIn(values ...time.Duration) DurationBuilder {
	b.t, b.r.NotIn = setList(b.t, durNotIn, "not_in", b.r.NotIn, values)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b DurationBuilder) Build() (DurationRules, error) {
	if err := b.t.err(); err != nil {
		return DurationRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b DurationBuilder) MustBuild() DurationRules {
	return mustBuild(b.Build())
}

// TimestampRules is the immutable rule set of a timestamp field.
// LtNow, GtNow and Within compare against the clock reading taken when
// validation runs, widened by NowTolerance.
type TimestampRules struct {
	Common
	Const        Opt[time.Time]
	Lt           Opt[time.Time]
	Lte          Opt[time.Time]
	Gt           Opt[time.Time]
	Gte          Opt[time.Time]
	LtNow        bool
	GtNow        bool
	Within       Opt[time.Duration]
	NowTolerance Opt[time.Duration]
}

func (TimestampRules) Kind() Kind { return KindTimestamp }

// Clone returns a copy that shares no slices with r.
func (r TimestampRules) Clone() TimestampRules {
	r.Common = r.Common.clone()
	return r
}

func (r TimestampRules) Declared() []string {
	names := r.Common.declared(nil)
	names = appendIf(names, r.Const.IsSet(), "const")
	names = appendIf(names, r.Lt.IsSet(), "lt")
	names = appendIf(names, r.Lte.IsSet(), "lte")
	names = appendIf(names, r.LtNow, "lt_now")
	names = appendIf(names, r.Gt.IsSet(), "gt")
	names = appendIf(names, r.Gte.IsSet(), "gte")
	names = appendIf(names, r.GtNow, "gt_now")
	names = appendIf(names, r.Within.IsSet(), "within")
	names = appendIf(names, r.NowTolerance.IsSet(), "now_tolerance")
	return names
}

const (
	tsConst uint = bitKind + iota
	tsLt
	tsLte
	tsLtNow
	tsGt
	tsGte
	tsGtNow
	tsWithin
	tsNowTolerance
)

// TimestampBuilder accumulates timestamp rules.
type TimestampBuilder struct {
	t tracker
	r TimestampRules
}

// Timestamp starts a timestamp rule set.
func Timestamp() TimestampBuilder {
	return TimestampBuilder{t: tracker{kind: KindTimestamp}}
}

// Required reports an absent value as a violation.
func (b TimestampBuilder) Required() TimestampBuilder {
	b.t, b.r.Common = b.t.required(b.r.Common)
	return b
}

// Ignore sets when the rules of the field are skipped.
func (b TimestampBuilder) Ignore(policy Ignore) TimestampBuilder {
	b.t, b.r.Common = b.t.ignore(b.r.Common, policy)
	return b
}

// CEL appends custom predicates, evaluated after the built-in rules.
func (b TimestampBuilder) CEL(preds ...Predicate) TimestampBuilder {
	b.t, b.r.Common = b.t.cel(b.r.Common, preds)
	return b
}

// Const requires the value to equal v.
func (b TimestampBuilder) Const(v time.Time) TimestampBuilder {
	b.t, b.r.Const = setOpt(b.t, tsConst, "const", b.r.Const, v)
	return b
}

// Lt declares an exclusive upper bound. It cannot be combined with Lte.
func (b TimestampBuilder) Lt(v time.Time) TimestampBuilder {
	b.t, b.r.Lt = setExclusive(b.t, tsLt, "lt", map[uint]string{tsLte: "lte", tsLtNow: "lt_now"}, b.r.Lt, v)
	return b
}

// Lte declares an inclusive upper bound. It cannot be combined with Lt.
func (b TimestampBuilder) Lte(v time.Time) TimestampBuilder {
	b.t, b.r.Lte = setExclusive(b.t, tsLte, "lte", map[uint]string{tsLt: "lt", tsLtNow: "lt_now"}, b.r.Lte, v)
	return b
}

// LtNow requires the value to be in the past.
func (b TimestampBuilder) LtNow() TimestampBuilder {
	if t, ok := b.t.exclusive(tsLtNow, "lt_now", map[uint]string{tsLt: "lt", tsLte: "lte", tsGtNow: "gt_now"}); ok {
		b.t, b.r.LtNow = t, true
	} else {
		b.t = t
	}
	return b
}

// Gt declares an exclusive lower bound. It cannot be combined with Gte.
func (b TimestampBuilder) Gt(v time.Time) TimestampBuilder {
	b.t, b.r.Gt = setExclusive(b.t, tsGt, "gt", map[uint]string{tsGte: "gte", tsGtNow: "gt_now"}, b.r.Gt, v)
	return b
}

// Gte declares an inclusive lower bound. It cannot be combined with Gt.
func (b TimestampBuilder) Gte(v time.Time) TimestampBuilder {
	b.t, b.r.Gte = setExclusive(b.t, tsGte, "gte", map[uint]string{tsGt: "gt", tsGtNow: "gt_now"}, b.r.Gte, v)
	return b
}

// GtNow requires the value to be in the future.
func (b TimestampBuilder) GtNow() TimestampBuilder {
	if t, ok := b.t.exclusive(tsGtNow, "gt_now", map[uint]string{tsGt: "gt", tsGte: "gte", tsLtNow: "lt_now"}); ok {
		b.t, b.r.GtNow = t, true
	} else {
		b.t = t
	}
	return b
}

// Within requires the value to be at most d away from now.
func (b TimestampBuilder) Within(d time.Duration) TimestampBuilder {
	b.t, b.r.Within = setOpt(b.t, tsWithin, "within", b.r.Within, d)
	return b
}

// NowTolerance widens lt_now, gt_now and within by d.
func (b TimestampBuilder) NowTolerance(d time.Duration) TimestampBuilder {
	b.t, b.r.NowTolerance = setOpt(b.t, tsNowTolerance, "now_tolerance", b.r.NowTolerance, d)
	return b
}

// Build returns the rule set, or every error recorded while building it.
func (b TimestampBuilder) Build() (TimestampRules, error) {
	if err := b.t.err(); err != nil {
		return TimestampRules{}, err
	}
	return b.r.Clone(), nil
}

// MustBuild is like Build but panics on error.
func (b TimestampBuilder) MustBuild() TimestampRules {
	return mustBuild(b.Build())
}
