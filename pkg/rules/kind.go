package rules

import (
	"fmt"

	"google.golang.org/protobuf/types/descriptorpb"
)

// Kind identifies the field kind family a rule set belongs to.
// Its string form is the prefix of every rule identifier, e.g. "string.min_len".
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindString
	KindBytes
	KindBool
	KindEnum
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindFloat
	KindDouble
	KindDuration
	KindTimestamp
	KindMessage
	KindRepeated
	KindMap
	KindAny
	KindOneof
)

var kindNames = [...]string{
	KindUnspecified: "unspecified",
	KindString:      "string",
	KindBytes:       "bytes",
	KindBool:        "bool",
	KindEnum:        "enum",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindUint32:      "uint32",
	KindUint64:      "uint64",
	KindSint32:      "sint32",
	KindSint64:      "sint64",
	KindFixed32:     "fixed32",
	KindFixed64:     "fixed64",
	KindSfixed32:    "sfixed32",
	KindSfixed64:    "sfixed64",
	KindFloat:       "float",
	KindDouble:      "double",
	KindDuration:    "duration",
	KindTimestamp:   "timestamp",
	KindMessage:     "message",
	KindRepeated:    "repeated",
	KindMap:         "map",
	KindAny:         "any",
	KindOneof:       "oneof",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind by its rule prefix name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindUnspecified {
			return Kind(k), nil
		}
	}
	return KindUnspecified, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// IsNumeric reports whether k is one of the integer or floating point kinds.
func (k Kind) IsNumeric() bool {
	return k >= KindInt32 && k <= KindDouble
}

// IsFloat reports whether k is float or double.
func (k Kind) IsFloat() bool {
	return k == KindFloat || k == KindDouble
}

// IsScalar reports whether a field of kind k holds a single non-message value.
func (k Kind) IsScalar() bool {
	return k >= KindString && k <= KindDouble
}

// ProtoType maps k onto the descriptor field type used in schema descriptions.
// Kinds represented by messages (duration, timestamp, any, map entries) map
// to TYPE_MESSAGE.
func (k Kind) ProtoType() descriptorpb.FieldDescriptorProto_Type {
	switch k {
	case KindString:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING
	case KindBytes:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES
	case KindBool:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL
	case KindEnum:
		return descriptorpb.FieldDescriptorProto_TYPE_ENUM
	case KindInt32:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32
	case KindInt64:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64
	case KindUint32:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT32
	case KindUint64:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT64
	case KindSint32:
		return descriptorpb.FieldDescriptorProto_TYPE_SINT32
	case KindSint64:
		return descriptorpb.FieldDescriptorProto_TYPE_SINT64
	case KindFixed32:
		return descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	case KindFixed64:
		return descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	case KindSfixed32:
		return descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
	case KindSfixed64:
		return descriptorpb.FieldDescriptorProto_TYPE_SFIXED64
	case KindFloat:
		return descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	case KindDouble:
		return descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	default:
		return descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	}
}

// Ignore controls when the rules of a field are skipped entirely.
type Ignore uint8

const (
	// IgnoreUnspecified applies the rules whenever a value is present.
	IgnoreUnspecified Ignore = iota
	// IgnoreIfZeroValue skips the rules when the value equals its zero value.
	IgnoreIfZeroValue
	// IgnoreAlways never applies the rules.
	IgnoreAlways
)

func (i Ignore) String() string {
	switch i {
	case IgnoreIfZeroValue:
		return "if_zero_value"
	case IgnoreAlways:
		return "always"
	default:
		return "unspecified"
	}
}

// ParseIgnore resolves an ignore policy by name.
func ParseIgnore(name string) (Ignore, error) {
	switch name {
	case "", "unspecified":
		return IgnoreUnspecified, nil
	case "if_zero_value", "if_zero", "empty":
		return IgnoreIfZeroValue, nil
	case "always":
		return IgnoreAlways, nil
	}
	return IgnoreUnspecified, fmt.Errorf("%w: %q", ErrUnknownIgnore, name)
}
