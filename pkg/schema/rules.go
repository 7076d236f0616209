package schema

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// args reads typed rule values out of a rules block and remembers which
// keys were consumed and which values did not fit.
type args struct {
	kind rules.Kind
	m    Rules
	used map[string]bool
	errs *multierror.Error
}

func newArgs(kind rules.Kind, m Rules) *args {
	return &args{kind: kind, m: m, used: make(map[string]bool, len(m))}
}

func (a *args) get(key string) (any, bool) {
	v, ok := a.m[key]
	if ok {
		a.used[key] = true
	}
	return v, ok && v != nil
}

func (a *args) bad(key string, v any, want string) {
	a.errs = multierror.Append(a.errs, fmt.Errorf("%w: %s.%s: expected %s, got %T", ErrInvalidRules, a.kind, key, want, v))
}

func (a *args) flag(key string) bool {
	v, ok := a.get(key)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	if !isBool {
		a.bad(key, v, "a bool")
	}
	return b
}

func (a *args) str(key string) (string, bool) {
	v, ok := a.get(key)
	if !ok {
		return "", false
	}
	s, isStr := v.(string)
	if !isStr {
		a.bad(key, v, "a string")
		return "", false
	}
	return s, true
}

func (a *args) list(key string) ([]any, bool) {
	v, ok := a.get(key)
	if !ok {
		return nil, false
	}
	l, isList := v.([]any)
	if !isList || len(l) == 0 {
		a.bad(key, v, "a non-empty list")
		return nil, false
	}
	return l, true
}

func (a *args) strs(key string) ([]string, bool) {
	l, ok := a.list(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, v := range l {
		s, isStr := v.(string)
		if !isStr {
			a.bad(key, v, "a list of strings")
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (a *args) count(key string) (uint64, bool) {
	v, ok := a.get(key)
	if !ok {
		return 0, false
	}
	n, isNum := toNumber[uint64](v)
	if !isNum {
		a.bad(key, v, "a non-negative integer")
	}
	return n, isNum
}

// scalar reads one value with conv.
func scalar[T any](a *args, key string, conv func(any) (T, bool), want string) (T, bool) {
	v, ok := a.get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, fits := conv(v)
	if !fits {
		a.bad(key, v, want)
	}
	return t, fits
}

// many reads a non-empty list of values with conv.
func many[T any](a *args, key string, conv func(any) (T, bool), want string) ([]T, bool) {
	l, ok := a.list(key)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(l))
	for _, v := range l {
		t, fits := conv(v)
		if !fits {
			a.bad(key, v, "a list of "+want)
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// common reads required, ignore and cel and returns them for the builder
// to apply.
func (a *args) common() (required bool, ignore rules.Ignore, hasIgnore bool, preds []rules.Predicate) {
	required = a.flag("required")
	if name, ok := a.str("ignore"); ok {
		policy, err := rules.ParseIgnore(name)
		if err != nil {
			a.errs = multierror.Append(a.errs, err)
		} else {
			ignore, hasIgnore = policy, true
		}
	}
	if l, ok := a.list("cel"); ok {
		for _, v := range l {
			p, ok := toPredicate(v)
			if !ok {
				a.bad("cel", v, "a list of {id, expression, message}")
				continue
			}
			preds = append(preds, p)
		}
	}
	return required, ignore, hasIgnore, preds
}

// finish reports unused keys and any collected error, then the build error.
func (a *args) finish(rs rules.RuleSet, buildErr error) (rules.RuleSet, error) {
	for _, key := range slices.Sorted(maps.Keys(a.m)) {
		if !a.used[key] {
			a.errs = multierror.Append(a.errs, fmt.Errorf("%w: %s does not support %q", ErrInvalidRules, a.kind, key))
		}
	}
	a.errs = multierror.Append(a.errs, buildErr)
	if err := a.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return rs, nil
}

func toPredicate(v any) (rules.Predicate, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return rules.Predicate{}, false
	}
	var p rules.Predicate
	for k, val := range m {
		s, ok := val.(string)
		if !ok {
			return rules.Predicate{}, false
		}
		switch k {
		case "id":
			p.ID = s
		case "expression":
			p.Expression = s
		case "message":
			p.Message = s
		default:
			return rules.Predicate{}, false
		}
	}
	return p, true
}

// ruleBuilder is the surface every rules builder shares.
type ruleBuilder[B any] interface {
	Required() B
	Ignore(rules.Ignore) B
}

func applyCommon[B ruleBuilder[B]](a *args, b B, cel func(B, ...rules.Predicate) B) B {
	required, ignore, hasIgnore, preds := a.common()
	if required {
		b = b.Required()
	}
	if hasIgnore {
		b = b.Ignore(ignore)
	}
	if len(preds) > 0 {
		b = cel(b, preds...)
	}
	return b
}

// buildRules turns a rules block into the rule set for kind. enum resolves
// value names on enum fields.
func buildRules(kind rules.Kind, m Rules, enum *Enum) (rules.RuleSet, error) {
	a := newArgs(kind, m)
	switch kind {
	case rules.KindString:
		return a.finish(stringRules(a))
	case rules.KindBytes:
		return a.finish(bytesRules(a))
	case rules.KindBool:
		b := applyCommon(a, rules.Bool(), rules.BoolBuilder.CEL)
		if v, ok := scalar(a, "const", asBool, "a bool"); ok {
			b = b.Const(v)
		}
		return a.finish(b.Build())
	case rules.KindEnum:
		return a.finish(enumRules(a, enum))
	case rules.KindInt32, rules.KindSint32, rules.KindSfixed32:
		return a.finish(numericRules(a, rules.Numeric[int32](kind)))
	case rules.KindInt64, rules.KindSint64, rules.KindSfixed64:
		return a.finish(numericRules(a, rules.Numeric[int64](kind)))
	case rules.KindUint32, rules.KindFixed32:
		return a.finish(numericRules(a, rules.Numeric[uint32](kind)))
	case rules.KindUint64, rules.KindFixed64:
		return a.finish(numericRules(a, rules.Numeric[uint64](kind)))
	case rules.KindFloat:
		return a.finish(numericRules(a, rules.Float()))
	case rules.KindDouble:
		return a.finish(numericRules(a, rules.Double()))
	case rules.KindDuration:
		return a.finish(durationRules(a))
	case rules.KindTimestamp:
		return a.finish(timestampRules(a))
	case rules.KindAny:
		b := applyCommon(a, rules.Any(), func(b rules.AnyBuilder, _ ...rules.Predicate) rules.AnyBuilder {
			a.errs = multierror.Append(a.errs, fmt.Errorf("%w: any does not support cel", ErrInvalidRules))
			return b
		})
		if v, ok := a.strs("in"); ok {
			b = b.In(v...)
		}
		if v, ok := a.strs("not_in"); ok {
			b = b.NotIn(v...)
		}
		return a.finish(b.Build())
	case rules.KindMessage:
		return a.finish(applyCommon(a, rules.Message(), rules.MessageBuilder.CEL).Build())
	case rules.KindRepeated:
		b := applyCommon(a, rules.Repeated(), rules.RepeatedBuilder.CEL)
		if n, ok := a.count("min_items"); ok {
			b = b.MinItems(n)
		}
		if n, ok := a.count("max_items"); ok {
			b = b.MaxItems(n)
		}
		if a.flag("unique") {
			b = b.Unique()
		}
		return a.finish(b.Build())
	case rules.KindMap:
		b := applyCommon(a, rules.Map(), rules.MapBuilder.CEL)
		if n, ok := a.count("min_pairs"); ok {
			b = b.MinPairs(n)
		}
		if n, ok := a.count("max_pairs"); ok {
			b = b.MaxPairs(n)
		}
		return a.finish(b.Build())
	}
	return nil, fmt.Errorf("%w: no rules for %s", ErrInvalidRules, kind)
}

func stringRules(a *args) (rules.StringRules, error) {
	b := applyCommon(a, rules.String(), rules.StringBuilder.CEL)
	if v, ok := a.str("const"); ok {
		b = b.Const(v)
	}
	lengths := []struct {
		key string
		set func(rules.StringBuilder, uint64) rules.StringBuilder
	}{
		{"len", rules.StringBuilder.Len},
		{"min_len", rules.StringBuilder.MinLen},
		{"max_len", rules.StringBuilder.MaxLen},
		{"len_bytes", rules.StringBuilder.LenBytes},
		{"min_bytes", rules.StringBuilder.MinBytes},
		{"max_bytes", rules.StringBuilder.MaxBytes},
	}
	for _, l := range lengths {
		if n, ok := a.count(l.key); ok {
			b = l.set(b, n)
		}
	}
	texts := []struct {
		key string
		set func(rules.StringBuilder, string) rules.StringBuilder
	}{
		{"pattern", rules.StringBuilder.Pattern},
		{"prefix", rules.StringBuilder.Prefix},
		{"suffix", rules.StringBuilder.Suffix},
		{"contains", rules.StringBuilder.Contains},
		{"not_contains", rules.StringBuilder.NotContains},
	}
	for _, t := range texts {
		if s, ok := a.str(t.key); ok {
			b = t.set(b, s)
		}
	}
	if v, ok := a.strs("in"); ok {
		b = b.In(v...)
	}
	if v, ok := a.strs("not_in"); ok {
		b = b.NotIn(v...)
	}
	if name, ok := a.str("well_known"); ok {
		w, err := rules.ParseWellKnown(name)
		if err != nil {
			a.errs = multierror.Append(a.errs, err)
		} else {
			b = b.WellKnown(w)
		}
	}
	return b.Build()
}

func bytesRules(a *args) (rules.BytesRules, error) {
	b := applyCommon(a, rules.Bytes(), rules.BytesBuilder.CEL)
	if v, ok := scalar(a, "const", asBytesLiteral, "a string"); ok {
		b = b.Const(v)
	}
	if n, ok := a.count("len"); ok {
		b = b.Len(n)
	}
	if n, ok := a.count("min_len"); ok {
		b = b.MinLen(n)
	}
	if n, ok := a.count("max_len"); ok {
		b = b.MaxLen(n)
	}
	if s, ok := a.str("pattern"); ok {
		b = b.Pattern(s)
	}
	if v, ok := scalar(a, "prefix", asBytesLiteral, "a string"); ok {
		b = b.Prefix(v)
	}
	if v, ok := scalar(a, "suffix", asBytesLiteral, "a string"); ok {
		b = b.Suffix(v)
	}
	if v, ok := scalar(a, "contains", asBytesLiteral, "a string"); ok {
		b = b.Contains(v)
	}
	if v, ok := many(a, "in", asBytesLiteral, "strings"); ok {
		b = b.In(v...)
	}
	if v, ok := many(a, "not_in", asBytesLiteral, "strings"); ok {
		b = b.NotIn(v...)
	}
	if name, ok := a.str("well_known"); ok {
		w, err := rules.ParseWellKnown(name)
		if err != nil {
			a.errs = multierror.Append(a.errs, err)
		} else {
			b = b.WellKnown(w)
		}
	}
	return b.Build()
}

func enumRules(a *args, enum *Enum) (rules.EnumRules, error) {
	conv := func(v any) (int32, bool) { return asEnum(enum, v) }
	b := applyCommon(a, rules.Enum(), rules.EnumBuilder.CEL)
	if v, ok := scalar(a, "const", conv, "an enum value"); ok {
		b = b.Const(v)
	}
	if a.flag("defined_only") {
		var defined []int32
		if enum != nil {
			defined = enum.Numbers()
		}
		b = b.DefinedOnly(defined...)
	}
	if v, ok := many(a, "in", conv, "enum values"); ok {
		b = b.In(v...)
	}
	if v, ok := many(a, "not_in", conv, "enum values"); ok {
		b = b.NotIn(v...)
	}
	return b.Build()
}

func numericRules[T rules.Number](a *args, b rules.NumericBuilder[T]) (rules.NumericRules[T], error) {
	conv := func(v any) (T, bool) { return toNumber[T](v) }
	want := "a " + a.kind.String()
	b = applyCommon(a, b, rules.NumericBuilder[T].CEL)
	bounds := []struct {
		key string
		set func(rules.NumericBuilder[T], T) rules.NumericBuilder[T]
	}{
		{"const", rules.NumericBuilder[T].Const},
		{"lt", rules.NumericBuilder[T].Lt},
		{"lte", rules.NumericBuilder[T].Lte},
		{"gt", rules.NumericBuilder[T].Gt},
		{"gte", rules.NumericBuilder[T].Gte},
		{"tolerance", rules.NumericBuilder[T].Tolerance},
	}
	for _, bd := range bounds {
		if v, ok := scalar(a, bd.key, conv, want); ok {
			b = bd.set(b, v)
		}
	}
	if v, ok := many(a, "in", conv, a.kind.String()+" values"); ok {
		b = b.In(v...)
	}
	if v, ok := many(a, "not_in", conv, a.kind.String()+" values"); ok {
		b = b.NotIn(v...)
	}
	if a.flag("finite") {
		b = b.Finite()
	}
	return b.Build()
}

func durationRules(a *args) (rules.DurationRules, error) {
	b := applyCommon(a, rules.Duration(), rules.DurationBuilder.CEL)
	bounds := []struct {
		key string
		set func(rules.DurationBuilder, time.Duration) rules.DurationBuilder
	}{
		{"const", rules.DurationBuilder.Const},
		{"lt", rules.DurationBuilder.Lt},
		{"lte", rules.DurationBuilder.Lte},
		{"gt", rules.DurationBuilder.Gt},
		{"gte", rules.DurationBuilder.Gte},
	}
	for _, bd := range bounds {
		if v, ok := scalar(a, bd.key, asDuration, "a duration"); ok {
			b = bd.set(b, v)
		}
	}
	if v, ok := many(a, "in", asDuration, "durations"); ok {
		b = b.In(v...)
	}
	if v, ok := many(a, "not_in", asDuration, "durations"); ok {
		b = b.NotIn(v...)
	}
	return b.Build()
}

func timestampRules(a *args) (rules.TimestampRules, error) {
	b := applyCommon(a, rules.Timestamp(), rules.TimestampBuilder.CEL)
	bounds := []struct {
		key string
		set func(rules.TimestampBuilder, time.Time) rules.TimestampBuilder
	}{
		{"const", rules.TimestampBuilder.Const},
		{"lt", rules.TimestampBuilder.Lt},
		{"lte", rules.TimestampBuilder.Lte},
		{"gt", rules.TimestampBuilder.Gt},
		{"gte", rules.TimestampBuilder.Gte},
	}
	for _, bd := range bounds {
		if v, ok := scalar(a, bd.key, asTimestamp, "an RFC 3339 timestamp"); ok {
			b = bd.set(b, v)
		}
	}
	if a.flag("lt_now") {
		b = b.LtNow()
	}
	if a.flag("gt_now") {
		b = b.GtNow()
	}
	if v, ok := scalar(a, "within", asDuration, "a duration"); ok {
		b = b.Within(v)
	}
	if v, ok := scalar(a, "now_tolerance", asDuration, "a duration"); ok {
		b = b.NowTolerance(v)
	}
	return b.Build()
}

// asBytesLiteral reads bytes rule values, which are written as plain
// strings in YAML.
func asBytesLiteral(v any) ([]byte, bool) {
	switch b := v.(type) {
	case string:
		return []byte(b), true
	case []byte:
		return b, true
	}
	return nil, false
}
