package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

type group struct {
	names    []string
	required bool
}

// Message validates values of message type M by walking its fields,
// oneofs, message-level oneof rules and predicates in declaration order.
//
// A Message is configured once and then shared; it must not be modified
// while validations are running. Fields may reference the message itself
// through NewNested, which is how recursive messages are declared.
type Message[M any] struct {
	name   string
	opts   options
	fields []*Field[M]
	oneofs []*Oneof[M]
	groups []group
	cel    []rules.Predicate
	view   func(M) any
}

// NewMessage creates an empty validator for the named message type.
func NewMessage[M any](name string, opts ...Option) *Message[M] {
	m := &Message[M]{name: name, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&m.opts)
	}
	return m
}

// Name returns the message type name.
func (m *Message[M]) Name() string { return m.name }

// Add appends fields.
func (m *Message[M]) Add(fields ...*Field[M]) *Message[M] {
	m.fields = append(m.fields, fields...)
	return m
}

// AddOneof appends oneof groups.
func (m *Message[M]) AddOneof(oneofs ...*Oneof[M]) *Message[M] {
	m.oneofs = append(m.oneofs, oneofs...)
	return m
}

// OneOf declares that at most one of the named fields may be set, and when
// required that exactly one must be. Violations use the "message.oneof" rule.
func (m *Message[M]) OneOf(required bool, names ...string) *Message[M] {
	m.groups = append(m.groups, group{names: slices.Clone(names), required: required})
	return m
}

// CEL attaches message-level predicates. view turns the message into the
// value predicates see as `this`; a nil view passes the message itself.
func (m *Message[M]) CEL(view func(M) any, preds ...rules.Predicate) *Message[M] {
	if view != nil {
		m.view = view
	}
	m.cel = append(m.cel, preds...)
	return m
}

// Validate returns the first violation found, as ValidationErrors of
// length one, or a conversion error raised by a predicate.
func (m *Message[M]) Validate(v M) error {
	return m.run(v, true)
}

// ValidateAll returns every violation found, or a conversion error raised
// by a predicate.
func (m *Message[M]) ValidateAll(v M) error {
	return m.run(v, false)
}

// ValidateInto appends violations to acc, honoring its fail-fast mode. The
// returned error is a predicate conversion error, never a violation.
func (m *Message[M]) ValidateInto(v M, acc *Accumulator) error {
	st := acquireState(&m.opts, acc.failFast)
	defer releaseState(st)
	st.acc.errs = acc.errs
	st.acc.stop = acc.stop
	if !st.acc.stop {
		m.validate(st, v)
	}
	acc.errs = st.acc.errs
	acc.stop = st.acc.stop
	return st.err
}

func (m *Message[M]) run(v M, failFast bool) error {
	st := acquireState(&m.opts, failFast)
	defer releaseState(st)

	m.validate(st, v)
	if st.err != nil {
		return st.err
	}
	if len(st.acc.errs) == 0 {
		return nil
	}
	errs := st.acc.errs
	st.acc.errs = nil
	return errs
}

func (m *Message[M]) validate(st *state, v M) {
	for _, f := range m.fields {
		f.validate(st, v)
		if st.done() {
			return
		}
	}
	for _, o := range m.oneofs {
		o.validate(st, v)
		if st.done() {
			return
		}
	}
	for _, g := range m.groups {
		m.validateGroup(st, v, g)
		if st.done() {
			return
		}
	}
	if len(m.cel) > 0 {
		st.predicates(m.cel, m.viewOf(v))
	}
}

func (m *Message[M]) validateGroup(st *state, v M, g group) {
	set := 0
	for _, name := range g.names {
		if f := m.field(name); f != nil && f.present(v) {
			set++
		}
	}
	switch {
	case set > 1:
		st.failf("message.oneof", nil, "only one of %s can be set", strings.Join(g.names, ", "))
	case set == 0 && g.required:
		st.failf("message.oneof", nil, "one of %s must be set", strings.Join(g.names, ", "))
	}
}

func (m *Message[M]) field(name string) *Field[M] {
	for _, f := range m.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (m *Message[M]) viewOf(v M) any {
	if m.view != nil {
		return m.view(v)
	}
	return v
}

// Describe returns the structure and rules of the message.
func (m *Message[M]) Describe() MessageInfo {
	mi := MessageInfo{
		Name: m.name,
		CEL:  slices.Clone(m.cel),
		Zero: m.zeroView(),
	}
	for _, f := range m.fields {
		mi.Fields = append(mi.Fields, f.Info())
	}
	for _, o := range m.oneofs {
		mi.Oneofs = append(mi.Oneofs, o.describe())
	}
	for _, g := range m.groups {
		mi.Groups = append(mi.Groups, GroupInfo{Fields: slices.Clone(g.names), Required: g.required})
	}
	return mi
}

// zeroView applies the predicate view to the zero message. Views that
// cannot handle a zero message yield nil.
func (m *Message[M]) zeroView() (z any) {
	defer func() {
		if recover() != nil {
			z = nil
		}
	}()
	var zero M
	return m.viewOf(zero)
}

// UnknownGroupFields reports message-level oneof rules naming fields the
// message does not have.
func (m *Message[M]) UnknownGroupFields() error {
	var missing []string
	for _, g := range m.groups {
		for _, name := range g.names {
			if m.field(name) == nil {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, m.name, strings.Join(missing, ", "))
}

// Nested validates message fields by recursing into the message validator.
type Nested[N any] struct {
	r   rules.MessageRules
	msg *Message[N]
}

// NewNested creates a checker for fields holding messages validated by msg.
func NewNested[N any](msg *Message[N], r rules.MessageRules) *Nested[N] {
	return &Nested[N]{r: r.Clone(), msg: msg}
}

func (c *Nested[N]) Kind() rules.Kind     { return rules.KindMessage }
func (c *Nested[N]) Rules() rules.RuleSet { return c.r }

// Message returns the validator of the nested message type.
func (c *Nested[N]) Message() *Message[N] { return c.msg }

func (c *Nested[N]) describe(info *FieldInfo) {
	info.Message = c.msg.name
}

func (c *Nested[N]) zero() any { return nil }

func (c *Nested[N]) check(st *state, v N, present bool) {
	r := &c.r
	if !st.begin(&r.Common, present, false) {
		return
	}
	c.msg.validate(st, v)
	if st.done() {
		return
	}
	if len(r.CEL) > 0 {
		st.predicates(r.CEL, c.msg.viewOf(v))
	}
}
