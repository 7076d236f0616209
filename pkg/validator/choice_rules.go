package validator

import (
	"slices"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Bool validates bool fields.
type Bool struct {
	r rules.BoolRules
}

func NewBool(r rules.BoolRules) *Bool {
	return &Bool{r: r.Clone()}
}

func (c *Bool) Kind() rules.Kind     { return rules.KindBool }
func (c *Bool) Rules() rules.RuleSet { return c.r }

func (c *Bool) equal(a, b bool) bool { return a == b }

func (c *Bool) check(st *state, v bool, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, !v) {
		return
	}
	if want, ok := r.Const.Get(); ok && v != want {
		st.failf("bool.const", want, "must equal %t", want)
		return
	}
	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}

// Enum validates enum fields carried as their int32 numbers.
type Enum struct {
	r rules.EnumRules
}

func NewEnum(r rules.EnumRules) *Enum {
	return &Enum{r: r.Clone()}
}

func (c *Enum) Kind() rules.Kind     { return rules.KindEnum }
func (c *Enum) Rules() rules.RuleSet { return c.r }

func (c *Enum) equal(a, b int32) bool { return a == b }

func (c *Enum) hash(v int32) (uint64, bool) { return uint64(uint32(v)), true }

func (c *Enum) check(st *state, v int32, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, v == 0) {
		return
	}
	if want, ok := r.Const.Get(); ok && v != want {
		st.failf("enum.const", want, "must equal %d", want)
		return
	}
	if r.DefinedOnly && !slices.Contains(r.Defined, v) {
		if st.fail("enum.defined_only", nil, "must be one of the defined enum values") {
			return
		}
	}
	if len(r.In) > 0 && !slices.Contains(r.In, v) {
		if st.failf("enum.in", r.In, "must be one of %v", r.In) {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.Contains(r.NotIn, v) {
		if st.failf("enum.not_in", r.NotIn, "must not be one of %v", r.NotIn) {
			return
		}
	}
	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}
