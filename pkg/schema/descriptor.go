package schema

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/tagalloc"
)

// wellKnown maps kinds carried by well-known messages to their descriptors.
var wellKnown = map[rules.Kind]protoreflect.MessageDescriptor{
	rules.KindDuration:  (*durationpb.Duration)(nil).ProtoReflect().Descriptor(),
	rules.KindTimestamp: (*timestamppb.Timestamp)(nil).ProtoReflect().Descriptor(),
	rules.KindAny:       (*anypb.Any)(nil).ProtoReflect().Descriptor(),
}

// FileDescriptor exports the schema as a proto3 file and validates it,
// resolving the well-known types against the global registry.
func (s *Schema) FileDescriptor() (protoreflect.FileDescriptor, error) {
	fd, err := protodesc.NewFile(s.FileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDescriptor, err)
	}
	return fd, nil
}

// FileDescriptorSet wraps the validated file descriptor in a set, the form
// protoc and buf consume.
func (s *Schema) FileDescriptorSet() (*descriptorpb.FileDescriptorSet, error) {
	fd, err := s.FileDescriptor()
	if err != nil {
		return nil, err
	}
	return &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{protodesc.ToFileDescriptorProto(fd)},
	}, nil
}

// FileDescriptorProto describes the schema as a proto3 file. Rules are not
// part of the export.
func (s *Schema) FileDescriptorProto() *descriptorpb.FileDescriptorProto {
	fd := &descriptorpb.FileDescriptorProto{
		Name:   proto.String(s.fileName()),
		Syntax: proto.String("proto3"),
	}
	if s.Package != "" {
		fd.Package = proto.String(s.Package)
	}
	for _, e := range s.Enums {
		fd.EnumType = append(fd.EnumType, e.Descriptor())
	}

	deps := make(map[string]bool)
	for _, m := range s.Messages {
		fd.MessageType = append(fd.MessageType, m.Descriptor())
		for _, f := range m.Fields {
			if wk, ok := wellKnown[f.elem]; ok {
				deps[wk.ParentFile().Path()] = true
			}
		}
	}
	for dep := range deps {
		fd.Dependency = append(fd.Dependency, dep)
	}
	slices.Sort(fd.Dependency)
	return fd
}

func (s *Schema) fileName() string {
	base := "schema.proto"
	if s.source != "" {
		b := path.Base(s.source)
		base = strings.TrimSuffix(b, path.Ext(b)) + ".proto"
	}
	if s.Package == "" {
		return base
	}
	return path.Join(strings.ReplaceAll(s.Package, ".", "/"), base)
}

// Descriptor describes the enum.
func (e *Enum) Descriptor() *descriptorpb.EnumDescriptorProto {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(e.Name)}
	for _, v := range e.Values {
		ed.Value = append(ed.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v.Name),
			Number: proto.Int32(v.Number),
		})
	}
	return ed
}

// Descriptor describes the message. Oneof variants follow the plain
// fields, grouped per oneof; map fields get their implicit entry types.
func (m *Message) Descriptor() *descriptorpb.DescriptorProto {
	d := &descriptorpb.DescriptorProto{Name: proto.String(m.Name)}

	for _, f := range m.Fields {
		if f.Oneof == "" {
			d.Field = append(d.Field, m.fieldProto(d, f))
		}
	}
	for i, o := range m.Oneofs {
		d.OneofDecl = append(d.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(o.Name)})
		for _, f := range m.Fields {
			if f.Oneof == o.Name {
				fp := m.fieldProto(d, f)
				fp.OneofIndex = proto.Int32(int32(i))
				d.Field = append(d.Field, fp)
			}
		}
	}

	// Descriptor ranges are end-exclusive.
	for _, r := range tagalloc.Merge(m.reserved...) {
		d.ReservedRange = append(d.ReservedRange, &descriptorpb.DescriptorProto_ReservedRange{
			Start: proto.Int32(int32(r.Start)),
			End:   proto.Int32(int32(r.End) + 1),
		})
	}
	d.ReservedName = slices.Clone(m.ReservedNames)
	return d
}

func (m *Message) fieldProto(d *descriptorpb.DescriptorProto, f *Field) *descriptorpb.FieldDescriptorProto {
	fp := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(f.Name),
		Number: proto.Int32(f.Tag),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	switch f.kind {
	case rules.KindRepeated:
		fp.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		setType(fp, f.elem, f)
	case rules.KindMap:
		entry := mapEntry(f)
		d.NestedType = append(d.NestedType, entry)
		fp.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		fp.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		fp.TypeName = proto.String("." + m.fullName + "." + entry.GetName())
	default:
		setType(fp, f.elem, f)
	}
	return fp
}

func setType(fp *descriptorpb.FieldDescriptorProto, kind rules.Kind, f *Field) {
	fp.Type = kind.ProtoType().Enum()
	switch kind {
	case rules.KindEnum:
		fp.TypeName = proto.String("." + f.enum.fullName)
	case rules.KindMessage:
		fp.TypeName = proto.String("." + f.msg.fullName)
	default:
		if wk, ok := wellKnown[kind]; ok {
			fp.TypeName = proto.String("." + string(wk.FullName()))
		}
	}
}

func mapEntry(f *Field) *descriptorpb.DescriptorProto {
	key := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String("key"),
		Number: proto.Int32(1),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   f.key.ProtoType().Enum(),
	}
	value := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String("value"),
		Number: proto.Int32(2),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
	setType(value, f.elem, f)
	return &descriptorpb.DescriptorProto{
		Name:    proto.String(mapEntryName(f.Name)),
		Field:   []*descriptorpb.FieldDescriptorProto{key, value},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
}

// mapEntryName derives the implicit entry type name: "user_tags" becomes
// "UserTagsEntry".
func mapEntryName(field string) string {
	var b strings.Builder
	upper := true
	for _, c := range field {
		switch {
		case c == '_':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(c))
			upper = false
		default:
			b.WriteRune(c)
		}
	}
	b.WriteString("Entry")
	return b.String()
}
