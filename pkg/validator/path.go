package validator

import (
	"strconv"
	"strings"

	"github.com/dmitrymomot/protorules/pkg/rules"
)

// SubscriptKind tells which member of a Subscript is meaningful.
type SubscriptKind uint8

const (
	SubscriptNone SubscriptKind = iota
	SubscriptIndex
	SubscriptBoolKey
	SubscriptIntKey
	SubscriptUintKey
	SubscriptStringKey
)

// Subscript addresses one element of a repeated or map field.
type Subscript struct {
	Kind      SubscriptKind
	Index     uint64
	BoolKey   bool
	IntKey    int64
	UintKey   uint64
	StringKey string
}

// Index addresses the i-th item of a repeated field.
func Index(i int) Subscript {
	return Subscript{Kind: SubscriptIndex, Index: uint64(i)}
}

// MapKey is the set of Go types usable as map keys of a validated map field.
type MapKey interface {
	string | bool | int32 | int64 | uint32 | uint64
}

// Key addresses the entry k of a map field.
func Key[K MapKey](k K) Subscript {
	switch v := any(k).(type) {
	case string:
		return Subscript{Kind: SubscriptStringKey, StringKey: v}
	case bool:
		return Subscript{Kind: SubscriptBoolKey, BoolKey: v}
	case int32:
		return Subscript{Kind: SubscriptIntKey, IntKey: int64(v)}
	case int64:
		return Subscript{Kind: SubscriptIntKey, IntKey: v}
	case uint32:
		return Subscript{Kind: SubscriptUintKey, UintKey: uint64(v)}
	case uint64:
		return Subscript{Kind: SubscriptUintKey, UintKey: v}
	}
	return Subscript{}
}

// Value returns the subscript as a Go value, or nil when unset.
func (s Subscript) Value() any {
	switch s.Kind {
	case SubscriptIndex:
		return s.Index
	case SubscriptBoolKey:
		return s.BoolKey
	case SubscriptIntKey:
		return s.IntKey
	case SubscriptUintKey:
		return s.UintKey
	case SubscriptStringKey:
		return s.StringKey
	}
	return nil
}

func (s Subscript) appendTo(b *strings.Builder) {
	if s.Kind == SubscriptNone {
		return
	}
	b.WriteByte('[')
	switch s.Kind {
	case SubscriptIndex:
		b.WriteString(strconv.FormatUint(s.Index, 10))
	case SubscriptBoolKey:
		b.WriteString(strconv.FormatBool(s.BoolKey))
	case SubscriptIntKey:
		b.WriteString(strconv.FormatInt(s.IntKey, 10))
	case SubscriptUintKey:
		b.WriteString(strconv.FormatUint(s.UintKey, 10))
	case SubscriptStringKey:
		b.WriteString(strconv.Quote(s.StringKey))
	}
	b.WriteByte(']')
}

// FieldPathElement is the Field Context of one level of a violation path.
type FieldPathElement struct {
	Tag       int32
	Name      string
	FieldType rules.Kind
	KeyType   rules.Kind
	ValueType rules.Kind
	Subscript Subscript
}

// FieldPath is the ordered list of elements from the validated root to the
// value that failed.
type FieldPath []FieldPathElement

// String renders the path as e.g. `items[2].name` or `labels["k"]`.
func (p FieldPath) String() string {
	var b strings.Builder
	for i, e := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Name)
		e.Subscript.appendTo(&b)
	}
	return b.String()
}

// Last returns the innermost element and false when the path is empty.
func (p FieldPath) Last() (FieldPathElement, bool) {
	if len(p) == 0 {
		return FieldPathElement{}, false
	}
	return p[len(p)-1], true
}
