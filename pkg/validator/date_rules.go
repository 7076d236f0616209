package validator

import (
	"slices"
	"time"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Duration validates duration fields.
type Duration struct {
	r rules.DurationRules
}

func NewDuration(r rules.DurationRules) *Duration {
	return &Duration{r: r.Clone()}
}

func (c *Duration) Kind() rules.Kind     { return rules.KindDuration }
func (c *Duration) Rules() rules.RuleSet { return c.r }

func (c *Duration) equal(a, b time.Duration) bool { return a == b }

func (c *Duration) hash(v time.Duration) (uint64, bool) { return uint64(v), true }

func (c *Duration) check(st *state, v time.Duration, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, v == 0) {
		return
	}

	if want, ok := r.Const.Get(); ok && v != want {
		st.failf("duration.const", want, "must equal %s", want)
		return
	}
	if bound, ok := r.Lt.Get(); ok && v >= bound {
		if st.failf("duration.lt", bound, "must be shorter than %s", bound) {
			return
		}
	}
	if bound, ok := r.Lte.Get(); ok && v > bound {
		if st.failf("duration.lte", bound, "must be at most %s", bound) {
			return
		}
	}
	if bound, ok := r.Gt.Get(); ok && v <= bound {
		if st.failf("duration.gt", bound, "must be longer than %s", bound) {
			return
		}
	}
	if bound, ok := r.Gte.Get(); ok && v < bound {
		if st.failf("duration.gte", bound, "must be at least %s", bound) {
			return
		}
	}
	if len(r.In) > 0 && !slices.Contains(r.In, v) {
		if st.failf("duration.in", r.In, "must be one of %v", r.In) {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.Contains(r.NotIn, v) {
		if st.failf("duration.not_in", r.NotIn, "must not be one of %v", r.NotIn) {
			return
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

// Timestamp validates timestamp fields. Rules relative to now read the
// validation clock once per top-level call.
// Both the zero time.Time and the Unix epoch count as zero for
// rules.IgnoreIfZeroValue.
type Timestamp struct {
	r rules.TimestampRules
}

func NewTimestamp(r rules.TimestampRules) *Timestamp {
	return &Timestamp{r: r.Clone()}
}

func (c *Timestamp) Kind() rules.Kind     { return rules.KindTimestamp }
func (c *Timestamp) Rules() rules.RuleSet { return c.r }

func (c *Timestamp) equal(a, b time.Time) bool { return a.Equal(b) }

func (c *Timestamp) hash(v time.Time) (uint64, bool) { return uint64(v.UnixNano()), true }

func (c *Timestamp) check(st *state, v time.Time, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, zeroTimestamp(v)) {
		return
	}

	if want, ok := r.Const.Get(); ok && !v.Equal(want) {
		st.failf("timestamp.const", want, "must equal %s", want.Format(time.RFC3339Nano))
		return
	}
	if bound, ok := r.Lt.Get(); ok && !v.Before(bound) {
		if st.failf("timestamp.lt", bound, "must be before %s", bound.Format(time.RFC3339Nano)) {
			return
		}
	}
	if bound, ok := r.Lte.Get(); ok && v.After(bound) {
		if st.failf("timestamp.lte", bound, "must be at or before %s", bound.Format(time.RFC3339Nano)) {
			return
		}
	}
	if bound, ok := r.Gt.Get(); ok && !v.After(bound) {
		if st.failf("timestamp.gt", bound, "must be after %s", bound.Format(time.RFC3339Nano)) {
			return
		}
	}
	if bound, ok := r.Gte.Get(); ok && v.Before(bound) {
		if st.failf("timestamp.gte", bound, "must be at or after %s", bound.Format(time.RFC3339Nano)) {
			return
		}
	}

	if r.LtNow || r.GtNow || r.Within.IsSet() {
		now := st.clockNow()
		tol := r.NowTolerance.Value()
		if r.LtNow && !v.Before(now.Add(tol)) {
			if st.fail("timestamp.lt_now", nil, "must be in the past") {
				return
			}
		}
		if r.GtNow && !v.After(now.Add(-tol)) {
			if st.fail("timestamp.gt_now", nil, "must be in the future") {
				return
			}
		}
		if within, ok := r.Within.Get(); ok {
			d := v.Sub(now)
			if d < 0 {
				d = -d
			}
			if d > within+tol {
				if st.failf("timestamp.within", within, "must be within %s of now", within) {
					return
				}
			}
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

// zeroTimestamp reports whether v is the default of a Go time.Time or of a
// protobuf Timestamp, the Unix epoch.
func zeroTimestamp(v time.Time) bool {
	return v.IsZero() || (v.Unix() == 0 && v.Nanosecond() == 0)
}
