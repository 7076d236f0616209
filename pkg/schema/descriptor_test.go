package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/dmitrymomot/protorules/pkg/schema"
)

func TestSchema_FileDescriptor(t *testing.T) {
	t.Parallel()

	fd, err := loadAccount(t).FileDescriptor()
	require.NoError(t, err)

	assert.Equal(t, "acme/v1/account.proto", fd.Path())
	assert.Equal(t, protoreflect.FullName("acme.v1"), fd.Package())
	assert.Equal(t, protoreflect.Proto3, fd.Syntax())

	imports := make([]string, 0, fd.Imports().Len())
	for i := range fd.Imports().Len() {
		imports = append(imports, fd.Imports().Get(i).Path())
	}
	assert.Equal(t, []string{
		"google/protobuf/any.proto",
		"google/protobuf/duration.proto",
		"google/protobuf/timestamp.proto",
	}, imports)

	t.Run("enum", func(t *testing.T) {
		t.Parallel()
		ed := fd.Enums().ByName("Status")
		require.NotNil(t, ed)
		assert.Equal(t, 3, ed.Values().Len())
		assert.Equal(t, protoreflect.EnumNumber(2), ed.Values().ByName("STATUS_SUSPENDED").Number())
	})

	t.Run("account", func(t *testing.T) {
		t.Parallel()
		md := fd.Messages().ByName("Account")
		require.NotNil(t, md)

		id := md.Fields().ByName("id")
		require.NotNil(t, id)
		assert.Equal(t, protoreflect.FieldNumber(1), id.Number())
		assert.Equal(t, protoreflect.StringKind, id.Kind())

		status := md.Fields().ByName("status")
		assert.Equal(t, protoreflect.EnumKind, status.Kind())
		assert.Equal(t, protoreflect.FullName("acme.v1.Status"), status.Enum().FullName())

		tags := md.Fields().ByName("tags")
		assert.True(t, tags.IsList())

		quotas := md.Fields().ByName("quotas")
		require.True(t, quotas.IsMap())
		assert.Equal(t, protoreflect.StringKind, quotas.MapKey().Kind())
		assert.Equal(t, protoreflect.Int64Kind, quotas.MapValue().Kind())

		parent := md.Fields().ByName("parent")
		assert.Equal(t, md.FullName(), parent.Message().FullName())

		ttl := md.Fields().ByName("ttl")
		assert.Equal(t, protoreflect.FullName("google.protobuf.Duration"), ttl.Message().FullName())

		contact := md.Oneofs().ByName("contact")
		require.NotNil(t, contact)
		require.Equal(t, 2, contact.Fields().Len())
		assert.Equal(t, protoreflect.Name("phone"), contact.Fields().Get(0).Name())
		assert.Equal(t, protoreflect.Name("handle"), contact.Fields().Get(1).Name())

		ranges := md.ReservedRanges()
		require.Equal(t, 2, ranges.Len())
		assert.Equal(t, [2]protoreflect.FieldNumber{2, 3}, ranges.Get(0))
		assert.Equal(t, [2]protoreflect.FieldNumber{9, 12}, ranges.Get(1))
		assert.True(t, md.ReservedNames().Has("legacy_id"))
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()
		md := fd.Messages().ByName("Event")
		require.NotNil(t, md)

		flags := md.Fields().ByName("flags")
		require.True(t, flags.IsMap())
		assert.Equal(t, protoreflect.BoolKind, flags.MapKey().Kind())
		assert.Equal(t, protoreflect.EnumKind, flags.MapValue().Kind())
		assert.Equal(t, protoreflect.Name("FlagsEntry"), flags.Message().Name())

		payload := md.Fields().ByName("payload")
		assert.Equal(t, protoreflect.FieldNumber(20), payload.Number())
		assert.Equal(t, protoreflect.FullName("google.protobuf.Any"), payload.Message().FullName())
	})
}

func TestSchema_FileDescriptorProto(t *testing.T) {
	t.Parallel()

	t.Run("without package or imports", func(t *testing.T) {
		t.Parallel()
		s, err := schema.Load(strings.NewReader(`
messages:
  - name: Ping
    fields:
      - {name: user_labels, kind: map, key: string, value: string}
`))
		require.NoError(t, err)

		fdp := s.FileDescriptorProto()
		assert.Equal(t, "schema.proto", fdp.GetName())
		assert.Empty(t, fdp.GetPackage())
		assert.Empty(t, fdp.GetDependency())

		require.Len(t, fdp.GetMessageType(), 1)
		ping := fdp.GetMessageType()[0]
		require.Len(t, ping.GetNestedType(), 1)
		assert.Equal(t, "UserLabelsEntry", ping.GetNestedType()[0].GetName())
		assert.True(t, ping.GetNestedType()[0].GetOptions().GetMapEntry())
		assert.Equal(t, ".Ping.UserLabelsEntry", ping.GetField()[0].GetTypeName())

		_, err = s.FileDescriptor()
		assert.NoError(t, err)
	})
}

func TestSchema_FileDescriptorSet(t *testing.T) {
	t.Parallel()

	set, err := loadAccount(t).FileDescriptorSet()
	require.NoError(t, err)
	require.Len(t, set.GetFile(), 1)
	assert.Equal(t, "acme/v1/account.proto", set.GetFile()[0].GetName())
	assert.Len(t, set.GetFile()[0].GetMessageType(), 2)
}
