package schema

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/anypb"

	"github.com/dmitrymomot/protorules/pkg/consistency"
	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// Registry holds one compiled validator per message of a schema.
type Registry struct {
	schema   *Schema
	messages map[string]*validator.Message[Document]
	views    map[string]func(Document) any
}

// Compile builds a validator for every message. Message fields point at
// the validators of their message types, so recursive schemas compile to
// recursive validators. opts apply to every message.
func (s *Schema) Compile(opts ...validator.Option) (*Registry, error) {
	r := &Registry{
		schema:   s,
		messages: make(map[string]*validator.Message[Document], len(s.Messages)),
		views:    make(map[string]func(Document) any, len(s.Messages)),
	}
	for _, m := range s.Messages {
		r.messages[m.fullName] = validator.NewMessage[Document](m.fullName, opts...)
		r.views[m.fullName] = r.view(m)
	}
	for _, m := range s.Messages {
		if err := r.build(m); err != nil {
			return nil, fmt.Errorf("message %s: %w", m.Name, err)
		}
	}
	return r, nil
}

func (r *Registry) build(m *Message) error {
	v := r.messages[m.fullName]
	variants := make(map[string][]*validator.Field[Document], len(m.Oneofs))
	members := make(map[string][]*Field, len(m.Oneofs))
	for _, f := range m.Fields {
		c, err := r.checker(f)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		field := validator.NewField(f.Tag, f.Name, getter(f.Name), c)
		if f.Oneof != "" {
			variants[f.Oneof] = append(variants[f.Oneof], field)
			members[f.Oneof] = append(members[f.Oneof], f)
			continue
		}
		v.Add(field)
	}
	for _, o := range m.Oneofs {
		v.AddOneof(validator.NewOneof(o.Name, rules.OneofRules{Required: o.Required}, activeVariant(members[o.Name]), variants[o.Name]...))
	}
	for _, g := range m.Groups {
		v.OneOf(g.Required, g.Fields...)
	}
	// The view also serves predicates declared on fields of this message type.
	v.CEL(r.views[m.fullName], m.preds...)
	return nil
}

// getter treats a missing key and an explicit null alike as absent.
func getter(name string) func(Document) (any, bool) {
	return func(d Document) (any, bool) {
		v, ok := d[name]
		return v, ok && v != nil
	}
}

// activeVariant picks the first variant, in declaration order, that is set.
func activeVariant(fields []*Field) func(Document) int32 {
	return func(d Document) int32 {
		for _, f := range fields {
			if v, ok := d[f.Name]; ok && v != nil {
				return f.Tag
			}
		}
		return 0
	}
}

func (r *Registry) checker(f *Field) (validator.Checker[any], error) {
	switch f.kind {
	case rules.KindRepeated:
		item, err := r.element(f.elem, f.elemRules, f)
		if err != nil {
			return nil, err
		}
		rep := validator.NewRepeated[any](f.ruleSet.(rules.RepeatedRules), item)
		elem := r.elementValue(f.elem, f)
		return validator.Convert[[]any](rep, func(v any) ([]any, bool) {
			l, ok := asList(v)
			if !ok {
				return nil, false
			}
			return convertList(l, elem), true
		}), nil
	case rules.KindMap:
		return r.mapChecker(f)
	}
	return r.element(f.elem, f.ruleSet, f)
}

func (r *Registry) element(kind rules.Kind, rs rules.RuleSet, f *Field) (validator.Checker[any], error) {
	switch kind {
	case rules.KindString:
		return validator.Convert[string](validator.NewString(rs.(rules.StringRules)), asString), nil
	case rules.KindBytes:
		return validator.Convert[[]byte](validator.NewBytes(rs.(rules.BytesRules)), asBytes), nil
	case rules.KindBool:
		return validator.Convert[bool](validator.NewBool(rs.(rules.BoolRules)), asBool), nil
	case rules.KindEnum:
		enum := f.enum
		return validator.Convert[int32](validator.NewEnum(rs.(rules.EnumRules)), func(v any) (int32, bool) {
			return asEnum(enum, v)
		}), nil
	case rules.KindInt32, rules.KindSint32, rules.KindSfixed32:
		return numeric[int32](rs), nil
	case rules.KindInt64, rules.KindSint64, rules.KindSfixed64:
		return numeric[int64](rs), nil
	case rules.KindUint32, rules.KindFixed32:
		return numeric[uint32](rs), nil
	case rules.KindUint64, rules.KindFixed64:
		return numeric[uint64](rs), nil
	case rules.KindFloat:
		return numeric[float32](rs), nil
	case rules.KindDouble:
		return numeric[float64](rs), nil
	case rules.KindDuration:
		return validator.Convert[time.Duration](validator.NewDuration(rs.(rules.DurationRules)), asDuration), nil
	case rules.KindTimestamp:
		return validator.Convert[time.Time](validator.NewTimestamp(rs.(rules.TimestampRules)), asTimestamp), nil
	case rules.KindAny:
		return validator.Convert[*anypb.Any](validator.NewAny(rs.(rules.AnyRules)), asAny), nil
	case rules.KindMessage:
		nested := validator.NewNested(r.messages[f.msg.fullName], rs.(rules.MessageRules))
		return validator.Convert[Document](nested, asDocument), nil
	}
	return nil, fmt.Errorf("%w: %s", rules.ErrUnknownKind, kind)
}

func numeric[T rules.Number](rs rules.RuleSet) validator.Checker[any] {
	return validator.Convert[T](validator.NewNumeric(rs.(rules.NumericRules[T])), toNumber[T])
}

func (r *Registry) mapChecker(f *Field) (validator.Checker[any], error) {
	mr := f.ruleSet.(rules.MapRules)
	value, err := r.element(f.elem, f.elemRules, f)
	if err != nil {
		return nil, err
	}
	elem := r.elementValue(f.elem, f)
	kr := f.keyRules
	switch f.key {
	case rules.KindString:
		return mapOf[string](mr, validator.NewString(kr.(rules.StringRules)), value, elem, func(s string) (string, bool) { return s, true }), nil
	case rules.KindBool:
		return mapOf[bool](mr, validator.NewBool(kr.(rules.BoolRules)), value, elem, parseBoolKey), nil
	case rules.KindInt32, rules.KindSint32, rules.KindSfixed32:
		return mapOf[int32](mr, validator.NewNumeric(kr.(rules.NumericRules[int32])), value, elem, parseNumber[int32]), nil
	case rules.KindInt64, rules.KindSint64, rules.KindSfixed64:
		return mapOf[int64](mr, validator.NewNumeric(kr.(rules.NumericRules[int64])), value, elem, parseNumber[int64]), nil
	case rules.KindUint32, rules.KindFixed32:
		return mapOf[uint32](mr, validator.NewNumeric(kr.(rules.NumericRules[uint32])), value, elem, parseNumber[uint32]), nil
	case rules.KindUint64, rules.KindFixed64:
		return mapOf[uint64](mr, validator.NewNumeric(kr.(rules.NumericRules[uint64])), value, elem, parseNumber[uint64]), nil
	}
	return nil, fmt.Errorf("map key cannot be %s", f.key)
}

// mapOf validates JSON objects and YAML mappings as maps keyed by K. A key
// parse cannot read makes the whole value a type mismatch. elem converts
// each value before the value checker and map predicates see it.
func mapOf[K validator.MapKey](r rules.MapRules, key validator.Checker[K], value validator.Checker[any], elem func(any) any, parse func(string) (K, bool)) validator.Checker[any] {
	m := validator.NewMap[K, any](r, key, value)
	return validator.Convert[map[K]any](m, func(v any) (map[K]any, bool) {
		obj, ok := asObject(v)
		if !ok {
			return nil, false
		}
		out := make(map[K]any, len(obj))
		for k, val := range obj {
			kk, ok := parse(k)
			if !ok {
				return nil, false
			}
			out[kk] = elem(val)
		}
		return out, true
	})
}

// Message returns the validator of a message by short or full name.
func (r *Registry) Message(name string) (*validator.Message[Document], error) {
	m, ok := r.schema.messages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, name)
	}
	return r.messages[m.fullName], nil
}

// Validate returns the first violation of doc against the named message.
func (r *Registry) Validate(name string, doc Document) error {
	m, err := r.Message(name)
	if err != nil {
		return err
	}
	return m.Validate(doc)
}

// ValidateAll returns every violation of doc against the named message.
func (r *Registry) ValidateAll(name string, doc Document) error {
	m, err := r.Message(name)
	if err != nil {
		return err
	}
	return m.ValidateAll(doc)
}

// Names lists the full message names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.schema.Messages))
	for _, m := range r.schema.Messages {
		out = append(out, m.fullName)
	}
	return out
}

// Describers returns every compiled message for consistency checking.
func (r *Registry) Describers() []consistency.Describer {
	out := make([]consistency.Describer, 0, len(r.messages))
	for _, name := range r.Names() {
		out = append(out, r.messages[name])
	}
	return out
}

// Check runs c over every compiled message.
func (r *Registry) Check(ctx context.Context, c *consistency.Checker) error {
	return c.CheckAll(ctx, r.Describers()...)
}
