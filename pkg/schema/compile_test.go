package schema_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/consistency"
	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/schema"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

const accountID = "0b5c6f1e-8f0a-4c1e-9d3b-2f4a5e6d7c8b"

func compileAccount(t *testing.T, opts ...validator.Option) *schema.Registry {
	t.Helper()
	reg, err := loadAccount(t).Compile(opts...)
	require.NoError(t, err)
	return reg
}

func validAccount() schema.Document {
	return schema.Document{
		"id":         accountID,
		"email":      "ada@example.com",
		"status":     "STATUS_ACTIVE",
		"tags":       []any{"admin", "ops"},
		"quotas":     map[string]any{"cpu": 4, "memory": "2048"},
		"ttl":        "1h30m",
		"created_at": "2024-01-02T03:04:05Z",
		"handle":     "@ada",
		"nickname":   "ada",
	}
}

func violations(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	verrs := validator.ExtractValidationErrors(err)
	require.NotEmpty(t, verrs, "expected violations, got %v", err)
	return verrs
}

func TestRegistry_Validate(t *testing.T) {
	t.Parallel()

	reg := compileAccount(t)

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, reg.ValidateAll("Account", validAccount()))
		assert.NoError(t, reg.Validate("acme.v1.Account", validAccount()))
	})

	t.Run("null counts as absent", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["email"] = nil
		doc["parent"] = nil
		assert.NoError(t, reg.ValidateAll("Account", doc))

		doc["id"] = nil
		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"required"}, verrs.RuleIDs())
		assert.Equal(t, "id", verrs[0].Field)
	})

	t.Run("scalar rules", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["email"] = "not-an-email"
		doc["status"] = "STATUS_UNSPECIFIED"
		doc["ttl"] = "48h"

		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"string.email", "enum.not_in", "duration.lte"}, verrs.RuleIDs())
		assert.Equal(t, []string{"email", "status", "ttl"}, verrs.Fields())
	})

	t.Run("undefined enum number", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["status"] = 7
		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"enum.defined_only"}, verrs.RuleIDs())
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["id"] = 42
		doc["tags"] = "admin"
		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"string.type", "repeated.type"}, verrs.RuleIDs())
	})

	t.Run("repeated items", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["tags"] = []any{"admin", "", "admin"}
		verrs := violations(t, reg.ValidateAll("Account", doc))

		items := verrs.GetErrors(`tags[1]`)
		require.Len(t, items, 1)
		assert.Equal(t, "string.min_len", items[0].RuleID)
		require.Len(t, items[0].Path, 1)
		assert.Equal(t, validator.Index(1), items[0].Path[0].Subscript)
		assert.Contains(t, verrs.RuleIDs(), "repeated.unique")
	})

	t.Run("map keys and values", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["quotas"] = map[string]any{"CPU": -1}
		verrs := violations(t, reg.ValidateAll("Account", doc))

		entry := verrs.GetErrors(`quotas["CPU"]`)
		require.Len(t, entry, 2)
		assert.Equal(t, "string.pattern", entry[0].RuleID)
		assert.True(t, entry[0].ForKey)
		assert.Equal(t, "int64.gte", entry[1].RuleID)
		assert.False(t, entry[1].ForKey)

		last, ok := entry[1].Path.Last()
		require.True(t, ok)
		assert.Equal(t, rules.KindString, last.KeyType)
		assert.Equal(t, rules.KindInt64, last.ValueType)
	})

	t.Run("oneof and groups", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		delete(doc, "handle")
		doc["display_name"] = "Ada"
		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"oneof.required", "message.oneof"}, verrs.RuleIDs())
		assert.Equal(t, "contact", verrs[0].Field)
		assert.Empty(t, verrs[1].Field)
	})

	t.Run("first set oneof variant wins", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["phone"] = "123"
		verrs := violations(t, reg.ValidateAll("Account", doc))
		assert.Equal(t, []string{"string.min_len"}, verrs.RuleIDs())
		assert.Equal(t, "phone", verrs[0].Field)
	})

	t.Run("nested message paths", func(t *testing.T) {
		t.Parallel()
		parent := validAccount()
		parent["id"] = "not-a-uuid"
		doc := validAccount()
		doc["parent"] = parent

		verrs := violations(t, reg.ValidateAll("Account", doc))
		require.Len(t, verrs, 1)
		assert.Equal(t, "parent.id", verrs[0].Field)
		assert.Equal(t, "string.uuid", verrs[0].RuleID)
		require.Len(t, verrs[0].Path, 2)
		assert.Equal(t, int32(7), verrs[0].Path[0].Tag)
		assert.Equal(t, rules.KindMessage, verrs[0].Path[0].FieldType)
		assert.Equal(t, int32(1), verrs[0].Path[1].Tag)
	})

	t.Run("message predicate", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["parent"] = validAccount()
		verrs := violations(t, reg.ValidateAll("Account", doc))
		require.Len(t, verrs, 1)
		assert.Equal(t, "cel_rule", verrs[0].RuleID)
		assert.Equal(t, "account cannot be its own parent", verrs[0].Message)
	})

	t.Run("fail fast", func(t *testing.T) {
		t.Parallel()
		doc := validAccount()
		doc["email"] = "nope"
		doc["ttl"] = "0s"
		verrs := violations(t, reg.Validate("Account", doc))
		assert.Len(t, verrs, 1)
		assert.Equal(t, "string.email", verrs[0].RuleID)
	})

	t.Run("unknown message", func(t *testing.T) {
		t.Parallel()
		err := reg.Validate("Missing", schema.Document{})
		assert.ErrorIs(t, err, schema.ErrUnknownMessage)
	})
}

func TestRegistry_ValidateEvent(t *testing.T) {
	t.Parallel()

	reg := compileAccount(t)
	valid := func() schema.Document {
		return schema.Document{
			"account":  validAccount(),
			"payload":  map[string]any{"@type": "type.googleapis.com/acme.v1.Account"},
			"checksum": "AAECAw==",
			"score":    0.5,
			"flags":    map[string]any{"true": "STATUS_ACTIVE", "false": 2},
		}
	}

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, reg.ValidateAll("Event", valid()))
	})

	t.Run("violations", func(t *testing.T) {
		t.Parallel()
		doc := valid()
		delete(doc, "account")
		doc["payload"] = map[string]any{"@type": "type.googleapis.com/acme.v1.Other"}
		doc["checksum"] = "AAE="
		doc["score"] = "NaN"
		doc["flags"] = map[string]any{"false": 9}

		verrs := violations(t, reg.ValidateAll("Event", doc))
		assert.Equal(t, []string{"required", "any.in", "bytes.len", "double.finite", "enum.defined_only"}, verrs.RuleIDs())
		assert.Equal(t, "flags[false]", verrs[4].Field)
	})

	t.Run("yaml bool keys", func(t *testing.T) {
		t.Parallel()
		doc, err := schema.DecodeDocument(strings.NewReader(`
account: {id: `+accountID+`, email: ada@example.com, status: STATUS_ACTIVE, handle: "@ada"}
flags:
  true: STATUS_ACTIVE
  false: 9
`), schema.FormatYAML)
		require.NoError(t, err)

		verrs := violations(t, reg.ValidateAll("Event", doc))
		assert.Equal(t, []string{"enum.defined_only"}, verrs.RuleIDs())
		assert.Equal(t, "flags[false]", verrs[0].Field)
	})

	t.Run("unreadable map key", func(t *testing.T) {
		t.Parallel()
		doc := valid()
		doc["flags"] = map[string]any{"maybe": 1}
		verrs := violations(t, reg.ValidateAll("Event", doc))
		assert.Equal(t, []string{"map.type"}, verrs.RuleIDs())
	})
}

func TestRegistry_Clock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	reg := compileAccount(t, validator.WithClock(clock))

	doc := validAccount()
	doc["created_at"] = "2024-06-01T00:00:00Z"
	verrs := violations(t, reg.ValidateAll("Account", doc))
	assert.Equal(t, []string{"timestamp.lt_now"}, verrs.RuleIDs())

	clock.Advance(365 * 24 * time.Hour)
	assert.NoError(t, reg.ValidateAll("Account", doc))
}

func TestRegistry_Check(t *testing.T) {
	t.Parallel()

	t.Run("consistent schema", func(t *testing.T) {
		t.Parallel()
		reg := compileAccount(t)
		assert.Equal(t, []string{"acme.v1.Account", "acme.v1.Event"}, reg.Names())
		assert.Len(t, reg.Describers(), 2)
		assert.NoError(t, reg.Check(context.Background(), consistency.New()))
	})

	t.Run("contradicting rules", func(t *testing.T) {
		t.Parallel()
		s, err := schema.Load(strings.NewReader(`
messages:
  - name: Broken
    fields:
      - {name: code, kind: string, rules: {min_len: 5, max_len: 2}}
`))
		require.NoError(t, err)
		reg, err := s.Compile()
		require.NoError(t, err)

		err = reg.Check(context.Background(), consistency.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, consistency.ErrInconsistent)
		assert.Contains(t, err.Error(), "Broken.code")
	})
}

const personSchema = `
package: demo.v1
messages:
  - name: Person
    fields:
      - {name: age, kind: int32}
      - {name: balance, kind: int64}
      - {name: joined, kind: timestamp}
      - name: scores
        kind: int32
        repeated: true
        rules:
          cel:
            - {id: scores.positive, message: scores must be positive, expression: "this.all(s, s > 0)"}
      - name: by_id
        kind: map
        key: int32
        value: string
        values: {min_len: 1}
      - name: friend
        kind: message
        ref: Person
        rules:
          cel:
            - {id: friend.adult, message: friends must be adults, expression: "this.age >= 18"}
    cel:
      - id: person.adult
        message: must be an adult
        expression: "this.age >= 18"
      - id: person.joined
        message: must have joined after 2000
        expression: "!has(this.joined) || this.joined > timestamp('2000-01-01T00:00:00Z')"
      - id: person.balance
        message: balance exceeds the cap
        expression: "!has(this.balance) || this.balance < 9007199254740993"
`

func compilePerson(t *testing.T) *schema.Registry {
	t.Helper()
	s, err := schema.Load(strings.NewReader(personSchema))
	require.NoError(t, err)
	reg, err := s.Compile()
	require.NoError(t, err)
	return reg
}

func decode(t *testing.T, f schema.Format, src string) schema.Document {
	t.Helper()
	doc, err := schema.DecodeDocument(strings.NewReader(src), f)
	require.NoError(t, err)
	return doc
}

func TestRegistry_TypedPredicates(t *testing.T) {
	t.Parallel()

	reg := compilePerson(t)

	t.Run("json numbers and times reach predicates typed", func(t *testing.T) {
		t.Parallel()
		doc := decode(t, schema.FormatJSON, `{
			"age": 20,
			"balance": "9007199254740992",
			"joined": "2024-01-02T03:04:05Z",
			"scores": [1, 2],
			"by_id": {"1": "a"},
			"friend": {"age": 30}
		}`)
		assert.NoError(t, reg.ValidateAll("Person", doc))
	})

	t.Run("failing predicates report violations", func(t *testing.T) {
		t.Parallel()
		doc := decode(t, schema.FormatJSON, `{
			"age": 10,
			"balance": "9007199254740993",
			"joined": "1999-12-31T23:59:59Z",
			"scores": [1, -2],
			"friend": {"age": 16}
		}`)
		err := reg.ValidateAll("Person", doc)
		require.True(t, validator.IsValidationError(err), "got %v", err)

		verrs := violations(t, err)
		for _, v := range verrs {
			assert.Equal(t, "cel_rule", v.RuleID)
		}
		messages := make([]string, 0, len(verrs))
		for _, v := range verrs {
			messages = append(messages, v.Message)
		}
		assert.ElementsMatch(t, []string{
			"scores must be positive",
			"must be an adult",
			"friends must be adults",
			"must be an adult",
			"must have joined after 2000",
			"balance exceeds the cap",
		}, messages)
		assert.True(t, verrs.Has("friend"))
	})

	t.Run("yaml documents", func(t *testing.T) {
		t.Parallel()
		doc := decode(t, schema.FormatYAML, "age: 42\njoined: 2024-01-02T03:04:05Z\nby_id:\n  1: a\n  2: b\n")
		assert.NoError(t, reg.ValidateAll("Person", doc))
	})

	t.Run("yaml map with int keys", func(t *testing.T) {
		t.Parallel()
		doc := decode(t, schema.FormatYAML, "age: 42\nby_id:\n  7: \"\"\n")
		verrs := violations(t, reg.ValidateAll("Person", doc))
		assert.Equal(t, []string{"string.min_len"}, verrs.RuleIDs())
		assert.Equal(t, "by_id[7]", verrs[0].Field)
	})
}
