package validator

import (
	"bytes"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Bytes validates bytes fields.
type Bytes struct {
	r rules.BytesRules
}

func NewBytes(r rules.BytesRules) *Bytes {
	return &Bytes{r: r.Clone()}
}

func (c *Bytes) Kind() rules.Kind     { return rules.KindBytes }
func (c *Bytes) Rules() rules.RuleSet { return c.r }

func (c *Bytes) equal(a, b []byte) bool { return bytes.Equal(a, b) }
func (c *Bytes) hash(v []byte) (uint64, bool) { return xxhash.Sum64(v), true }

func (c *Bytes) check(st *state, v []byte, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, len(v) == 0) {
		return
	}

	if want, ok := r.Const.Get(); ok && !bytes.Equal(v, want) {
		st.failf("bytes.const", want, "must equal %x", want)
		return
	}

	n := uint64(len(v))
	if want, ok := r.Len.Get(); ok && n != want {
		if st.failf("bytes.len", want, "must be exactly %d bytes long", want) {
			return
		}
	}
	if lo, ok := r.MinLen.Get(); ok && n < lo {
		if st.failf("bytes.min_len", lo, "must be at least %d bytes long", lo) {
			return
		}
	}
	if hi, ok := r.MaxLen.Get(); ok && n > hi {
		if st.failf("bytes.max_len", hi, "must be at most %d bytes long", hi) {
			return
		}
	}
	if r.Pattern != nil && !r.Pattern.Match(v) {
		if st.failf("bytes.pattern", r.Pattern.String(), "does not match pattern `%s`", r.Pattern) {
			return
		}
	}
	if p, ok := r.Prefix.Get(); ok && !bytes.HasPrefix(v, p) {
		if st.failf("bytes.prefix", p, "must start with %x", p) {
			return
		}
	}
	if s, ok := r.Suffix.Get(); ok && !bytes.HasSuffix(v, s) {
		if st.failf("bytes.suffix", s, "must end with %x", s) {
			return
		}
	}
	if s, ok := r.Contains.Get(); ok && !bytes.Contains(v, s) {
		if st.failf("bytes.contains", s, "must contain %x", s) {
			return
		}
	}
	if len(r.In) > 0 && !slices.ContainsFunc(r.In, func(b []byte) bool { return bytes.Equal(b, v) }) {
		if st.fail("bytes.in", nil, "must be one of the allowed values") {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.ContainsFunc(r.NotIn, func(b []byte) bool { return bytes.Equal(b, v) }) {
		if st.fail("bytes.not_in", nil, "must not be one of the disallowed values") {
			return
		}
	}

	if r.WellKnown != rules.WellKnownNone && !matchIPBytes(r.WellKnown, v) {
		if st.fail("bytes."+r.WellKnown.String(), nil, wellKnownMessage(r.WellKnown)) {
			return
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

func matchIPBytes(w rules.WellKnown, v []byte) bool {
	switch w {
	case rules.WellKnownIP:
		return len(v) == 4 || len(v) == 16
	case rules.WellKnownIPv4:
		return len(v) == 4
	case rules.WellKnownIPv6:
		return len(v) == 16
	}
	return true
}
