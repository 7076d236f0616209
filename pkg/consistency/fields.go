package consistency

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

func (c *Checker) checkField(rep *Report, path string, f validator.FieldInfo) {
	if f.Rules == nil {
		return
	}
	add := func(rule, format string, args ...any) {
		rep.add(path, rule, format, args...)
	}

	declared := f.Rules.Declared()
	common := f.Rules.CommonRules()
	if common.Ignore == rules.IgnoreAlways && len(declared) > 1 {
		add("ignore", "field is always ignored, so %s are never applied", strings.Join(without(declared, "ignore"), ", "))
	}
	if slices.Contains(declared, "const") {
		if others := without(declared, "const", "required", "ignore", "cel"); len(others) > 0 {
			add("const", "const makes %s redundant", strings.Join(others, ", "))
		}
	}

	switch r := f.Rules.(type) {
	case rules.StringRules:
		checkString(add, r)
	case rules.BytesRules:
		checkBytes(add, r)
	case rules.NumericRules[int32]:
		checkNumeric(add, f.Kind, r)
	case rules.NumericRules[int64]:
		checkNumeric(add, f.Kind, r)
	case rules.NumericRules[uint32]:
		checkNumeric(add, f.Kind, r)
	case rules.NumericRules[uint64]:
		checkNumeric(add, f.Kind, r)
	case rules.NumericRules[float32]:
		checkNumeric(add, f.Kind, r)
	case rules.NumericRules[float64]:
		checkNumeric(add, f.Kind, r)
	case rules.EnumRules:
		checkEnum(add, r)
	case rules.DurationRules:
		checkDuration(add, r)
	case rules.TimestampRules:
		checkTimestamp(add, r)
	case rules.AnyRules:
		checkMembership(add, r.In, r.NotIn, nil, func(a, b string) bool { return a == b })
	case rules.RepeatedRules:
		checkRange(add, "min_items", "max_items", r.MinItems, r.MaxItems, false)
		if n, ok := r.MinItems.Get(); ok && n > 0 && r.Required {
			add("required", "min_items %d already rejects empty lists", n)
		}
	case rules.MapRules:
		checkRange(add, "min_pairs", "max_pairs", r.MinPairs, r.MaxPairs, false)
		if n, ok := r.MinPairs.Get(); ok && n > 0 && r.Required {
			add("required", "min_pairs %d already rejects empty maps", n)
		}
	}

	c.checkPredicates(rep, path, common.CEL, f.Zero)

	if f.Items != nil {
		c.checkField(rep, path+".items", *f.Items)
	}
	if f.Key != nil {
		c.checkField(rep, path+".keys", *f.Key)
	}
	if f.Value != nil {
		c.checkField(rep, path+".values", *f.Value)
	}
}

type addFunc func(rule, format string, args ...any)

func without(names []string, drop ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(drop, n) {
			out = append(out, n)
		}
	}
	return out
}

// checkRange reports min above max and, when exact is set, min equal to
// max, which is better written as an exact rule.
func checkRange(add addFunc, minName, maxName string, lo, hi rules.Opt[uint64], exact bool) {
	minV, okMin := lo.Get()
	maxV, okMax := hi.Get()
	if !okMin || !okMax {
		return
	}
	switch {
	case minV > maxV:
		add(minName, "%s %d is greater than %s %d", minName, minV, maxName, maxV)
	case exact && minV == maxV:
		add(minName, "%s and %s are both %d, use an exact length instead", minName, maxName, minV)
	}
}

func checkLen(add addFunc, lenName, minName, maxName string, exact, lo, hi rules.Opt[uint64]) {
	if exact.IsSet() && lo.IsSet() {
		add(minName, "%s makes %s redundant", lenName, minName)
	}
	if exact.IsSet() && hi.IsSet() {
		add(maxName, "%s makes %s redundant", lenName, maxName)
	}
	checkRange(add, minName, maxName, lo, hi, true)
}

// checkMembership reports values both allowed and disallowed, and a const
// value the membership rules exclude.
func checkMembership[T any](add addFunc, in, notIn []T, constV *T, eq func(a, b T) bool) {
	for _, v := range in {
		if slices.ContainsFunc(notIn, func(x T) bool { return eq(v, x) }) {
			add("not_in", "%v is listed in both in and not_in", v)
		}
	}
	if constV == nil {
		return
	}
	if len(in) > 0 && !slices.ContainsFunc(in, func(x T) bool { return eq(*constV, x) }) {
		add("const", "const %v is not listed in in", *constV)
	}
	if slices.ContainsFunc(notIn, func(x T) bool { return eq(*constV, x) }) {
		add("const", "const %v is listed in not_in", *constV)
	}
}

func constOf[T any](o rules.Opt[T]) *T {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

type bounds[T any] struct {
	lt, lte, gt, gte rules.Opt[T]
}

// checkBounds reports lower bounds that meet or pass upper bounds.
func checkBounds[T any](add addFunc, b bounds[T], compare func(a, b T) int, format func(T) string) {
	lowName, low, lowIncl := "gt", b.gt, false
	if b.gte.IsSet() {
		lowName, low, lowIncl = "gte", b.gte, true
	}
	highName, high, highIncl := "lt", b.lt, false
	if b.lte.IsSet() {
		highName, high, highIncl = "lte", b.lte, true
	}
	lo, okLo := low.Get()
	hi, okHi := high.Get()
	if !okLo || !okHi {
		return
	}
	switch c := compare(lo, hi); {
	case c > 0:
		add(lowName, "%s %s is above %s %s, no value can satisfy both", lowName, format(lo), highName, format(hi))
	case c == 0 && lowIncl && highIncl:
		add(lowName, "%s and %s are both %s, use const instead", lowName, highName, format(lo))
	case c == 0:
		add(lowName, "%s %s and %s %s leave no valid value", lowName, format(lo), highName, format(hi))
	}
}

func checkString(add addFunc, r rules.StringRules) {
	checkLen(add, "len", "min_len", "max_len", r.Len, r.MinLen, r.MaxLen)
	checkLen(add, "len_bytes", "min_bytes", "max_bytes", r.LenBytes, r.MinBytes, r.MaxBytes)

	if minLen, ok := r.MinLen.Get(); ok {
		if maxBytes, ok := r.MaxBytes.Get(); ok && maxBytes < minLen {
			add("min_len", "min_len %d needs at least %d bytes but max_bytes is %d", minLen, minLen, maxBytes)
		}
	}
	if maxLen, ok := r.MaxLen.Get(); ok {
		if minBytes, ok := r.MinBytes.Get(); ok && maxLen*utf8.UTFMax < minBytes {
			add("min_bytes", "max_len %d allows at most %d bytes but min_bytes is %d", maxLen, maxLen*utf8.UTFMax, minBytes)
		}
	}

	for _, sub := range []struct {
		name  string
		value rules.Opt[string]
	}{
		{"prefix", r.Prefix},
		{"suffix", r.Suffix},
		{"contains", r.Contains},
	} {
		s, ok := sub.value.Get()
		if !ok {
			continue
		}
		if maxLen, ok := r.MaxLen.Get(); ok && uint64(utf8.RuneCountInString(s)) > maxLen {
			add(sub.name, "%s %q is longer than max_len %d", sub.name, s, maxLen)
		}
		if maxBytes, ok := r.MaxBytes.Get(); ok && uint64(len(s)) > maxBytes {
			add(sub.name, "%s %q is longer than max_bytes %d", sub.name, s, maxBytes)
		}
		if nc, ok := r.NotContains.Get(); ok && strings.Contains(s, nc) {
			add(sub.name, "%s %q contains not_contains %q", sub.name, s, nc)
		}
	}

	checkMembership(add, r.In, r.NotIn, constOf(r.Const), func(a, b string) bool { return a == b })
}

func checkBytes(add addFunc, r rules.BytesRules) {
	checkLen(add, "len", "min_len", "max_len", r.Len, r.MinLen, r.MaxLen)

	for _, sub := range []struct {
		name  string
		value rules.Opt[[]byte]
	}{
		{"prefix", r.Prefix},
		{"suffix", r.Suffix},
		{"contains", r.Contains},
	} {
		b, ok := sub.value.Get()
		if !ok {
			continue
		}
		if maxLen, ok := r.MaxLen.Get(); ok && uint64(len(b)) > maxLen {
			add(sub.name, "%s of %d bytes is longer than max_len %d", sub.name, len(b), maxLen)
		}
	}

	checkMembership(add, r.In, r.NotIn, constOf(r.Const), bytes.Equal)
}

func checkNumeric[T rules.Number](add addFunc, kind rules.Kind, r rules.NumericRules[T]) {
	if !kind.IsFloat() {
		if r.Finite {
			add("finite", "finite only applies to float and double fields")
		}
	} else if tol, ok := r.Tolerance.Get(); ok && tol < 0 {
		add("tolerance", "tolerance %v is negative", tol)
	}

	checkBounds(add, bounds[T]{lt: r.Lt, lte: r.Lte, gt: r.Gt, gte: r.Gte}, cmp.Compare[T], func(v T) string {
		return fmt.Sprint(v)
	})
	checkMembership(add, r.In, r.NotIn, constOf(r.Const), r.Equal)
}

func checkEnum(add addFunc, r rules.EnumRules) {
	if r.DefinedOnly {
		for _, v := range r.In {
			if !slices.Contains(r.Defined, v) {
				add("in", "value %d is not a defined enum value", v)
			}
		}
		if v, ok := r.Const.Get(); ok && !slices.Contains(r.Defined, v) {
			add("const", "const %d is not a defined enum value", v)
		}
	}
	checkMembership(add, r.In, r.NotIn, constOf(r.Const), func(a, b int32) bool { return a == b })
}

func checkDuration(add addFunc, r rules.DurationRules) {
	checkBounds(add, bounds[time.Duration]{lt: r.Lt, lte: r.Lte, gt: r.Gt, gte: r.Gte}, cmp.Compare[time.Duration], time.Duration.String)
	checkMembership(add, r.In, r.NotIn, constOf(r.Const), func(a, b time.Duration) bool { return a == b })
}

func checkTimestamp(add addFunc, r rules.TimestampRules) {
	checkBounds(add, bounds[time.Time]{lt: r.Lt, lte: r.Lte, gt: r.Gt, gte: r.Gte}, time.Time.Compare, func(t time.Time) string {
		return t.Format(time.RFC3339Nano)
	})

	if r.LtNow && r.GtNow {
		add("lt_now", "lt_now and gt_now cannot both hold")
	}
	if r.LtNow && (r.Lt.IsSet() || r.Lte.IsSet()) {
		add("lt_now", "lt_now is combined with an absolute upper bound, one of them is redundant")
	}
	if r.GtNow && (r.Gt.IsSet() || r.Gte.IsSet()) {
		add("gt_now", "gt_now is combined with an absolute lower bound, one of them is redundant")
	}
	if d, ok := r.Within.Get(); ok && d <= 0 {
		add("within", "within must be positive, got %s", d)
	}
	if d, ok := r.NowTolerance.Get(); ok {
		if d < 0 {
			add("now_tolerance", "now_tolerance must not be negative, got %s", d)
		}
		if !r.LtNow && !r.GtNow && !r.Within.IsSet() {
			add("now_tolerance", "now_tolerance has no effect without lt_now, gt_now or within")
		}
	}
}
