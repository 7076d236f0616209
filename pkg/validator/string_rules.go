package validator

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// String validates string fields.
type String struct {
	r rules.StringRules
}

func NewString(r rules.StringRules) *String {
	return &String{r: r.Clone()}
}

func (c *String) Kind() rules.Kind     { return rules.KindString }
func (c *String) Rules() rules.RuleSet { return c.r }

func (c *String) equal(a, b string) bool { return a == b }
func (c *String) hash(v string) (uint64, bool) { return xxhash.Sum64String(v), true }

func (c *String) check(st *state, v string, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, v == "") {
		return
	}

	if want, ok := r.Const.Get(); ok && v != want {
		st.failf("string.const", want, "must equal `%s`", want)
		return
	}

	if r.Len.IsSet() || r.MinLen.IsSet() || r.MaxLen.IsSet() {
		n := uint64(utf8.RuneCountInString(v))
		if want, ok := r.Len.Get(); ok && n != want {
			if st.failf("string.len", want, "must be exactly %d characters long", want) {
				return
			}
		}
		if lo, ok := r.MinLen.Get(); ok && n < lo {
			if st.failf("string.min_len", lo, "must be at least %d characters long", lo) {
				return
			}
		}
		if hi, ok := r.MaxLen.Get(); ok && n > hi {
			if st.failf("string.max_len", hi, "must be at most %d characters long", hi) {
				return
			}
		}
	}

	n := uint64(len(v))
	if want, ok := r.LenBytes.Get(); ok && n != want {
		if st.failf("string.len_bytes", want, "must be exactly %d bytes long", want) {
			return
		}
	}
	if lo, ok := r.MinBytes.Get(); ok && n < lo {
		if st.failf("string.min_bytes", lo, "must be at least %d bytes long", lo) {
			return
		}
	}
	if hi, ok := r.MaxBytes.Get(); ok && n > hi {
		if st.failf("string.max_bytes", hi, "must be at most %d bytes long", hi) {
			return
		}
	}

	if r.Pattern != nil && !r.Pattern.MatchString(v) {
		if st.failf("string.pattern", r.Pattern.String(), "does not match pattern `%s`", r.Pattern) {
			return
		}
	}
	if p, ok := r.Prefix.Get(); ok && !strings.HasPrefix(v, p) {
		if st.failf("string.prefix", p, "must start with `%s`", p) {
			return
		}
	}
	if s, ok := r.Suffix.Get(); ok && !strings.HasSuffix(v, s) {
		if st.failf("string.suffix", s, "must end with `%s`", s) {
			return
		}
	}
	if s, ok := r.Contains.Get(); ok && !strings.Contains(v, s) {
		if st.failf("string.contains", s, "must contain `%s`", s) {
			return
		}
	}
	if s, ok := r.NotContains.Get(); ok && strings.Contains(v, s) {
		if st.failf("string.not_contains", s, "must not contain `%s`", s) {
			return
		}
	}
	if len(r.In) > 0 && !slices.Contains(r.In, v) {
		if st.failf("string.in", r.In, "must be one of %v", r.In) {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.Contains(r.NotIn, v) {
		if st.failf("string.not_in", r.NotIn, "must not be one of %v", r.NotIn) {
			return
		}
	}

	if r.WellKnown != rules.WellKnownNone && !matchWellKnown(r.WellKnown, v) {
		if st.fail("string."+r.WellKnown.String(), nil, wellKnownMessage(r.WellKnown)) {
			return
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}
