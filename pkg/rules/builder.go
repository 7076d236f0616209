package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Bits shared by every builder. Kind-specific bits start at bitKind.
const (
	bitRequired uint = iota
	bitIgnore
	bitKind
)

// tracker records which rules a builder has set. Builders are values, so
// every setter works on a copy; errs is clipped before appending so two
// builders derived from the same parent never share backing storage.
type tracker struct {
	kind Kind
	set  uint64
	errs []error
}

func (t tracker) has(bit uint) bool {
	return t.set&(1<<bit) != 0
}

func (t tracker) fail(err error) tracker {
	t.errs = append(slices.Clip(t.errs), err)
	return t
}

// mark flags bit as set and records an error when it already was.
// It reports whether the caller may apply the rule.
func (t tracker) mark(bit uint, name string) (tracker, bool) {
	if t.has(bit) {
		return t.fail(fmt.Errorf("%w: %s.%s", ErrRuleAlreadySet, t.kind, name)), false
	}
	t.set |= 1 << bit
	return t, true
}

// exclusive marks bit like mark, and additionally fails when any of the
// conflicting bits is already set.
func (t tracker) exclusive(bit uint, name string, conflicts map[uint]string) (tracker, bool) {
	for other, otherName := range conflicts {
		if t.has(other) {
			return t.fail(fmt.Errorf("%w: %s.%s and %s.%s", ErrMutuallyExclusive, t.kind, name, t.kind, otherName)), false
		}
	}
	return t.mark(bit, name)
}

func (t tracker) required(c Common) (tracker, Common) {
	if c.Ignore == IgnoreAlways {
		return t.fail(fmt.Errorf("%w: required and ignore=always", ErrMutuallyExclusive)), c
	}
	t, ok := t.mark(bitRequired, "required")
	if ok {
		c.Required = true
	}
	return t, c
}

func (t tracker) ignore(c Common, policy Ignore) (tracker, Common) {
	if policy == IgnoreAlways && c.Required {
		return t.fail(fmt.Errorf("%w: required and ignore=always", ErrMutuallyExclusive)), c
	}
	t, ok := t.mark(bitIgnore, "ignore")
	if ok {
		c.Ignore = policy
	}
	return t, c
}

func (t tracker) cel(c Common, preds []Predicate) (tracker, Common) {
	for _, p := range preds {
		if strings.TrimSpace(p.Expression) == "" {
			t = t.fail(fmt.Errorf("%w: %s predicate %q has an empty expression", ErrInvalidRule, t.kind, p.ID))
			continue
		}
		c.CEL = append(slices.Clip(c.CEL), p)
	}
	return t, c
}

// err aggregates every recorded builder error.
func (t tracker) err() error {
	if len(t.errs) == 0 {
		return nil
	}
	return multierror.Append(nil, t.errs...).ErrorOrNil()
}

func mustBuild[R any](r R, err error) R {
	if err != nil {
		panic(fmt.Sprintf("rules: invalid rule set: %v", err))
	}
	return r
}
