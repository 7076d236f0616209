package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/schema"
	"github.com/dmitrymomot/protorules/pkg/tagalloc"
)

func loadAccount(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.LoadFile("testdata/account.yaml")
	require.NoError(t, err)
	return s
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	s := loadAccount(t)
	assert.Equal(t, "testdata/account.yaml", s.Source())
	assert.Equal(t, "acme.v1", s.Package)

	t.Run("resolves short and full names", func(t *testing.T) {
		t.Parallel()
		short, ok := s.Message("Account")
		require.True(t, ok)
		full, ok := s.Message("acme.v1.Account")
		require.True(t, ok)
		assert.Same(t, short, full)
		assert.Equal(t, "acme.v1.Account", short.FullName())

		e, ok := s.Enum("Status")
		require.True(t, ok)
		assert.Equal(t, "acme.v1.Status", e.FullName())
		assert.Equal(t, []int32{0, 1, 2}, e.Numbers())
	})

	t.Run("resolves field kinds", func(t *testing.T) {
		t.Parallel()
		m, _ := s.Message("Account")
		assert.Equal(t, rules.KindString, m.Field("id").FieldKind())
		assert.Equal(t, rules.KindRepeated, m.Field("tags").FieldKind())
		assert.Equal(t, rules.KindMap, m.Field("quotas").FieldKind())
		assert.Equal(t, rules.KindMessage, m.Field("parent").FieldKind())
		assert.Nil(t, m.Field("missing"))
	})

	t.Run("builds rule sets", func(t *testing.T) {
		t.Parallel()
		m, _ := s.Message("Account")
		sr, ok := m.Field("id").RuleSet().(rules.StringRules)
		require.True(t, ok)
		assert.True(t, sr.Required)
		assert.Equal(t, rules.WellKnownUUID, sr.WellKnown)

		er, ok := m.Field("status").RuleSet().(rules.EnumRules)
		require.True(t, ok)
		assert.True(t, er.DefinedOnly)
		assert.Equal(t, []int32{0, 1, 2}, er.Defined)
		assert.Equal(t, []int32{0}, er.NotIn)

		rr, ok := m.Field("tags").RuleSet().(rules.RepeatedRules)
		require.True(t, ok)
		assert.True(t, rr.Unique)
		assert.Equal(t, uint64(5), rr.MaxItems.Value())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := schema.LoadFile("testdata/missing.yaml")
		assert.ErrorIs(t, err, schema.ErrInvalidSchema)
	})
}

func TestLoad_TagAssignment(t *testing.T) {
	t.Parallel()

	s := loadAccount(t)

	t.Run("skips reserved ranges", func(t *testing.T) {
		t.Parallel()
		m, _ := s.Message("Account")
		want := map[string]int32{
			"id":           1,
			"email":        3,
			"status":       4,
			"tags":         5,
			"quotas":       6,
			"parent":       7,
			"ttl":          8,
			"created_at":   12,
			"phone":        13,
			"handle":       14,
			"nickname":     15,
			"display_name": 16,
		}
		for name, tag := range want {
			assert.Equal(t, tag, m.Field(name).Tag, name)
		}
		assert.Equal(t, []tagalloc.Range{{Start: 2, End: 2}, {Start: 9, End: 11}}, m.ReservedRanges())
	})

	t.Run("skips explicit tags", func(t *testing.T) {
		t.Parallel()
		m, _ := s.Message("Event")
		assert.Equal(t, int32(1), m.Field("account").Tag)
		assert.Equal(t, int32(20), m.Field("payload").Tag)
		assert.Equal(t, int32(2), m.Field("checksum").Tag)
		assert.Equal(t, int32(3), m.Field("score").Tag)
		assert.Equal(t, int32(4), m.Field("flags").Tag)
	})

	t.Run("explicit tags before their declaration are honored", func(t *testing.T) {
		t.Parallel()
		s, err := schema.Load(strings.NewReader(`
messages:
  - name: Pair
    fields:
      - {name: a, kind: string}
      - {name: b, kind: string, tag: 1}
`))
		require.NoError(t, err)
		m, _ := s.Message("Pair")
		assert.Equal(t, int32(2), m.Field("a").Tag)
		assert.Equal(t, int32(1), m.Field("b").Tag)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		doc    string
		target error
		text   string
	}{
		{
			name:   "empty document",
			doc:    "",
			target: schema.ErrInvalidSchema,
			text:   "empty document",
		},
		{
			name:   "unknown top level key",
			doc:    "packages: acme\n",
			target: schema.ErrInvalidSchema,
		},
		{
			name: "unknown message reference",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: message, ref: B}
`,
			target: schema.ErrUnknownReference,
		},
		{
			name: "unknown kind",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: text}
`,
			target: rules.ErrUnknownKind,
		},
		{
			name: "tag inside a reserved range",
			doc: `
messages:
  - name: A
    reserved: ["3 to 5"]
    fields:
      - {name: b, kind: string, tag: 4}
`,
			target: schema.ErrInvalidSchema,
			text:   "tag 4 is reserved",
		},
		{
			name: "implementation range",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: string, tag: 19500}
`,
			target: schema.ErrInvalidSchema,
			text:   "reserved for the implementation",
		},
		{
			name: "duplicate tag",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: string, tag: 1}
      - {name: c, kind: string, tag: 1}
`,
			target: schema.ErrInvalidSchema,
			text:   "already used by b",
		},
		{
			name: "invalid reserved range",
			doc: `
messages:
  - name: A
    reserved: ["5 to 3"]
`,
			target: tagalloc.ErrInvalidRange,
		},
		{
			name: "unsupported rule",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: bool, rules: {min_len: 1}}
`,
			target: schema.ErrInvalidRules,
			text:   `bool does not support "min_len"`,
		},
		{
			name: "mutually exclusive bounds",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: int32, rules: {lt: 5, lte: 5}}
`,
			target: rules.ErrMutuallyExclusive,
		},
		{
			name: "rule value of the wrong type",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: string, rules: {min_len: many}}
`,
			target: schema.ErrInvalidRules,
			text:   "expected a non-negative integer",
		},
		{
			name: "items on a plain field",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: string, items: {min_len: 1}}
`,
			target: schema.ErrInvalidRules,
		},
		{
			name: "enum starting above zero",
			doc: `
enums:
  - name: E
    values:
      - {name: E_ONE, number: 1}
`,
			target: schema.ErrInvalidSchema,
			text:   "first value must be 0",
		},
		{
			name: "repeated map",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: map, key: string, value: string, repeated: true}
`,
			target: schema.ErrInvalidSchema,
			text:   "maps cannot be repeated",
		},
		{
			name: "float map key",
			doc: `
messages:
  - name: A
    fields:
      - {name: b, kind: map, key: double, value: string}
`,
			target: schema.ErrInvalidSchema,
			text:   "map key cannot be double",
		},
		{
			name: "empty oneof",
			doc: `
messages:
  - name: A
    oneofs:
      - {name: choice}
    fields:
      - {name: b, kind: string}
`,
			target: schema.ErrInvalidSchema,
			text:   `oneof "choice" has no fields`,
		},
		{
			name: "group over a oneof variant",
			doc: `
messages:
  - name: A
    oneofs:
      - {name: choice}
    fields:
      - {name: b, kind: string, oneof: choice}
      - {name: c, kind: string}
    groups:
      - fields: [b, c]
`,
			target: schema.ErrInvalidSchema,
			text:   `group field "b" is not a plain field`,
		},
		{
			name: "reserved field name",
			doc: `
messages:
  - name: A
    reserved_names: [b]
    fields:
      - {name: b, kind: string}
`,
			target: schema.ErrInvalidSchema,
			text:   `field "b" uses a reserved name`,
		},
		{
			name: "duplicate type",
			doc: `
messages:
  - name: A
  - name: A
`,
			target: schema.ErrInvalidSchema,
			text:   `type "A" declared more than once`,
		},
		{
			name:   "invalid package",
			doc:    "package: acme..v1\n",
			target: schema.ErrInvalidSchema,
			text:   "invalid package name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := schema.Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			if tt.text != "" {
				assert.Contains(t, err.Error(), tt.text)
			}
		})
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	_, err := schema.Load(strings.NewReader(`
messages:
  - name: A
    fields:
      - {name: b, kind: text}
      - {name: c, kind: message, ref: Missing}
  - name: D
    fields:
      - {name: e, kind: string, rules: {max_len: -1}}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrUnknownKind)
	assert.ErrorIs(t, err, schema.ErrUnknownReference)
	assert.ErrorIs(t, err, schema.ErrInvalidRules)
}
