package validator

import (
	"slices"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Any validates google.protobuf.Any fields by their type URL.
type Any struct {
	r rules.AnyRules
}

func NewAny(r rules.AnyRules) *Any {
	return &Any{r: r.Clone()}
}

func (c *Any) Kind() rules.Kind     { return rules.KindAny }
func (c *Any) Rules() rules.RuleSet { return c.r }

func (c *Any) equal(a, b *anypb.Any) bool { return proto.Equal(a, b) }

func (c *Any) check(st *state, v *anypb.Any, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present && v != nil, v.GetTypeUrl() == "") {
		return
	}

	url := v.GetTypeUrl()
	if len(r.In) > 0 && !slices.Contains(r.In, url) {
		if st.failf("any.in", r.In, "type URL must be one of %v", r.In) {
			return
		}
	}
	if len(r.NotIn) > 0 && slices.Contains(r.NotIn, url) {
		if st.failf("any.not_in", r.NotIn, "type URL must not be one of %v", r.NotIn) {
			return
		}
	}

	if len(r.CEL) > 0 {
		st.predicates(r.CEL, v)
	}
}
