package validator

import (
	"github.com/dmitrymomot/protorules/pkg/rules"
)

// Field binds a checker to one field of message type M.
type Field[M any] struct {
	elem     FieldPathElement
	info     FieldInfo
	validate func(st *state, m M)
	present  func(m M) bool
}

// NewField creates a field with the given tag and name. get extracts the
// field value from a message and reports whether it is present; for fields
// without explicit presence it should report whether the value is non-zero.
func NewField[M, T any](tag int32, name string, get func(M) (T, bool), c Checker[T]) *Field[M] {
	info := describeChecker(c)
	info.Tag = tag
	info.Name = name

	f := &Field[M]{
		elem: FieldPathElement{
			Tag:       tag,
			Name:      name,
			FieldType: c.Kind(),
			KeyType:   info.KeyType,
			ValueType: info.ValueType,
		},
		info: info,
		present: func(m M) bool {
			_, ok := get(m)
			return ok
		},
	}
	f.validate = func(st *state, m M) {
		v, ok := get(m)
		st.push(f.elem)
		c.check(st, v, ok)
		st.pop()
	}
	return f
}

// Tag returns the field number.
func (f *Field[M]) Tag() int32 { return f.elem.Tag }

// Name returns the field name.
func (f *Field[M]) Name() string { return f.elem.Name }

// Info describes the field and its rules.
func (f *Field[M]) Info() FieldInfo { return f.info }

// FieldInfo describes a field for schema exports and build-time checks.
type FieldInfo struct {
	Tag       int32
	Name      string
	Kind      rules.Kind
	KeyType   rules.Kind
	ValueType rules.Kind
	Rules     rules.RuleSet
	// Zero is the default value of the field, used to type-check predicates.
	Zero any
	// Items describes the items of a repeated field.
	Items *FieldInfo
	// Key and Value describe the keys and values of a map field.
	Key   *FieldInfo
	Value *FieldInfo
	// Message names the message type of a message field.
	Message string
	// Oneof names the oneof a variant belongs to.
	Oneof string
}

// OneofInfo describes a oneof group.
type OneofInfo struct {
	Name     string
	Required bool
	// Declared are the tags the oneof declares; Variants are the tags of
	// the variant fields actually attached to it.
	Declared []int32
	Variants []FieldInfo
}

// GroupInfo describes a message-level oneof rule.
type GroupInfo struct {
	Fields   []string
	Required bool
}

// MessageInfo describes a message validator.
type MessageInfo struct {
	Name   string
	Fields []FieldInfo
	Oneofs []OneofInfo
	Groups []GroupInfo
	CEL    []rules.Predicate
	// Zero is the predicate view of the zero message value.
	Zero any
}

// AllFields lists the plain fields followed by every oneof variant.
func (mi MessageInfo) AllFields() []FieldInfo {
	all := append([]FieldInfo(nil), mi.Fields...)
	for _, o := range mi.Oneofs {
		all = append(all, o.Variants...)
	}
	return all
}

func describeChecker[T any](c Checker[T]) FieldInfo {
	info := FieldInfo{
		Kind:  c.Kind(),
		Rules: c.Rules(),
		Zero:  zeroOf(c),
	}
	if d, ok := c.(describer); ok {
		d.describe(&info)
	}
	return info
}
