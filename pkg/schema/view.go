package schema

import (
	"fmt"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// view returns the value message predicates see as `this`: a copy of the
// document with every declared field converted to its Go type. Integers
// become int32, int64, uint32 or uint64, floats float32 or float64, enums
// their numbers, bytes []byte, durations time.Duration and timestamps
// time.Time. Nested messages, list items and map values are converted the
// same way. Map keys stay strings as in the JSON mapping. Null fields are
// dropped and values of the wrong shape are kept as decoded, so the field
// checkers still report them.
func (r *Registry) view(m *Message) func(Document) any {
	conv := make(map[string]func(any) any, len(m.Fields))
	for _, f := range m.Fields {
		conv[f.Name] = r.fieldValue(f)
	}
	return func(d Document) any {
		out := make(map[string]any, len(d))
		for k, v := range d {
			if v == nil {
				continue
			}
			if c, ok := conv[k]; ok {
				v = c(v)
			}
			out[k] = v
		}
		return out
	}
}

func (r *Registry) fieldValue(f *Field) func(any) any {
	elem := r.elementValue(f.elem, f)
	switch f.kind {
	case rules.KindRepeated:
		return func(v any) any {
			l, ok := asList(v)
			if !ok {
				return v
			}
			return convertList(l, elem)
		}
	case rules.KindMap:
		return func(v any) any {
			obj, ok := asObject(v)
			if !ok {
				return v
			}
			return convertObject(obj, elem)
		}
	}
	return elem
}

func (r *Registry) elementValue(kind rules.Kind, f *Field) func(any) any {
	switch kind {
	case rules.KindBytes:
		return typed(asBytes)
	case rules.KindEnum:
		enum := f.enum
		return typed(func(v any) (int32, bool) { return asEnum(enum, v) })
	case rules.KindInt32, rules.KindSint32, rules.KindSfixed32:
		return typed(toNumber[int32])
	case rules.KindInt64, rules.KindSint64, rules.KindSfixed64:
		return typed(toNumber[int64])
	case rules.KindUint32, rules.KindFixed32:
		return typed(toNumber[uint32])
	case rules.KindUint64, rules.KindFixed64:
		return typed(toNumber[uint64])
	case rules.KindFloat:
		return typed(toNumber[float32])
	case rules.KindDouble:
		return typed(toNumber[float64])
	case rules.KindDuration:
		return typed(asDuration)
	case rules.KindTimestamp:
		return typed(asTimestamp)
	case rules.KindMessage:
		// Looked up per call: views of recursive messages refer to
		// themselves.
		name := f.msg.fullName
		return func(v any) any {
			d, ok := asDocument(v)
			if !ok {
				return v
			}
			return r.views[name](d)
		}
	}
	return identity
}

func typed[T any](conv func(any) (T, bool)) func(any) any {
	return func(v any) any {
		if out, ok := conv(v); ok {
			return out
		}
		return v
	}
}

func identity(v any) any { return v }

func convertList(l []any, elem func(any) any) []any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = elem(v)
	}
	return out
}

func convertObject(obj map[string]any, elem func(any) any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = elem(v)
	}
	return out
}

// asObject accepts a decoded object. yaml.v3 decodes mappings whose keys
// are not all strings to map[any]any; their keys are formatted the way a
// JSON object would spell them.
func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case map[any]any:
		out := make(map[string]any, len(o))
		for k, val := range o {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
