package validator

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/protorules/pkg/expr"
	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Evaluator runs custom predicates. It reports whether the predicate holds
// and, when it does not, the violation message. A non-nil error is a
// conversion failure and aborts validation.
type Evaluator interface {
	Evaluate(p rules.Predicate, this any, now time.Time) (bool, string, error)
}

// Option configures a Message validator.
type Option func(*options)

type options struct {
	evaluator Evaluator
	clock     clockwork.Clock
}

func defaultOptions() options {
	return options{clock: clockwork.NewRealClock()}
}

// WithEvaluator sets the predicate evaluator. Defaults to expr.Default().
func WithEvaluator(e Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithClock sets the clock read by lt_now, gt_now and within rules and
// passed to predicates as `now`.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func (o options) eval() Evaluator {
	if o.evaluator != nil {
		return o.evaluator
	}
	return expr.Default()
}

// state is owned by one top-level validation call. The path stack is reused
// across calls through statePool; a violation copies the path when created.
type state struct {
	acc    Accumulator
	path   []FieldPathElement
	opts   *options
	now    time.Time
	hasNow bool
	forKey bool
	err    error
}

var statePool = sync.Pool{
	New: func() any {
		return &state{path: make([]FieldPathElement, 0, 8)}
	},
}

func acquireState(opts *options, failFast bool) *state {
	st := statePool.Get().(*state)
	st.acc.reset(failFast)
	st.opts = opts
	return st
}

func releaseState(st *state) {
	clear(st.path)
	st.path = st.path[:0]
	st.acc.errs = nil
	st.opts = nil
	st.hasNow = false
	st.forKey = false
	st.err = nil
	statePool.Put(st)
}

func (s *state) push(e FieldPathElement) {
	s.path = append(s.path, e)
}

func (s *state) pop() {
	s.path = s.path[:len(s.path)-1]
}

// subscript sets the element address of the innermost field.
func (s *state) subscript(sub Subscript) {
	if n := len(s.path); n > 0 {
		s.path[n-1].Subscript = sub
	}
}

// done reports whether no further rule may run.
func (s *state) done() bool {
	return s.acc.stop || s.err != nil
}

// clockNow reads the clock once per top-level call.
func (s *state) clockNow() time.Time {
	if !s.hasNow {
		s.now = s.opts.clock.Now()
		s.hasNow = true
	}
	return s.now
}

// fail records a violation of rule with a bound value for translations and
// reports whether the current rule chain must stop.
func (s *state) fail(rule string, bound any, msg string) bool {
	path := FieldPath(slices.Clone(s.path))
	field := path.String()
	values := map[string]any{"field": field}
	if bound != nil {
		values["value"] = bound
	}
	return s.acc.Add(ValidationError{
		Path:              path,
		Field:             field,
		RuleID:            rule,
		Message:           msg,
		ForKey:            s.forKey,
		TranslationKey:    "validation." + rule,
		TranslationValues: values,
	})
}

func (s *state) failf(rule string, bound any, format string, args ...any) bool {
	return s.fail(rule, bound, fmt.Sprintf(format, args...))
}

// predicates evaluates custom predicates against this and reports whether
// the rule chain must stop.
func (s *state) predicates(preds []rules.Predicate, this any) bool {
	eval := s.opts.eval()
	for _, p := range preds {
		ok, msg, err := eval.Evaluate(p, this, s.clockNow())
		if err != nil {
			s.err = err
			return true
		}
		if ok {
			continue
		}
		if msg == "" {
			msg = p.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("custom rule %q failed", p.ID)
		}
		if s.fail("cel_rule", p.ID, msg) {
			return true
		}
	}
	return false
}

// begin applies the ignore and required rules shared by every field kind
// and reports whether the value rules should run.
func (s *state) begin(c *rules.Common, present, zero bool) bool {
	switch {
	case c.Ignore == rules.IgnoreAlways:
		return false
	case !present:
		if c.Required {
			s.fail("required", nil, "value is required")
		}
		return false
	case zero && c.Ignore == rules.IgnoreIfZeroValue:
		return false
	}
	return true
}
