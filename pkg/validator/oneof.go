package validator

import (
	"slices"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Oneof validates a oneof group by dispatching on its active variant.
// Unset variants are never validated.
type Oneof[M any] struct {
	name     string
	r        rules.OneofRules
	active   func(M) int32
	variants []*Field[M]
	declared []int32
}

// NewOneof creates a oneof group. active returns the tag of the variant
// that is set, or 0 when none is.
func NewOneof[M any](name string, r rules.OneofRules, active func(M) int32, variants ...*Field[M]) *Oneof[M] {
	o := &Oneof[M]{name: name, r: r, active: active, variants: variants}
	for _, v := range variants {
		o.declared = append(o.declared, v.Tag())
	}
	return o
}

// Declare overrides the tags the oneof claims to hold. The consistency
// checker verifies they match the variant tags exactly.
func (o *Oneof[M]) Declare(tags ...int32) *Oneof[M] {
	o.declared = slices.Clone(tags)
	return o
}

// Name returns the oneof name.
func (o *Oneof[M]) Name() string { return o.name }

func (o *Oneof[M]) validate(st *state, m M) {
	tag := o.active(m)
	if tag == 0 {
		if o.r.Required {
			st.push(FieldPathElement{Name: o.name, FieldType: rules.KindOneof})
			st.fail("oneof.required", nil, "exactly one field is required in oneof")
			st.pop()
		}
		return
	}
	for _, v := range o.variants {
		if v.Tag() == tag {
			v.validate(st, m)
			return
		}
	}
}

func (o *Oneof[M]) describe() OneofInfo {
	info := OneofInfo{
		Name:     o.name,
		Required: o.r.Required,
		Declared: slices.Clone(o.declared),
	}
	for _, v := range o.variants {
		fi := v.Info()
		fi.Oneof = o.name
		info.Variants = append(info.Variants, fi)
	}
	return info
}
