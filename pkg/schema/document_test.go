package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/schema"
)

func TestFormatFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, schema.FormatYAML, schema.FormatFor("doc.YML"))
	assert.Equal(t, schema.FormatYAML, schema.FormatFor("dir/doc.yaml"))
	assert.Equal(t, schema.FormatJSON, schema.FormatFor("doc.json"))
	assert.Equal(t, schema.FormatJSON, schema.FormatFor("-"))
}

func TestDecodeDocument(t *testing.T) {
	t.Parallel()

	t.Run("json keeps big integers", func(t *testing.T) {
		t.Parallel()
		doc, err := schema.DecodeDocument(strings.NewReader(`{"n": 9007199254740993}`), schema.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, json.Number("9007199254740993"), doc["n"])
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		doc, err := schema.DecodeDocument(strings.NewReader("name: x\ntags: [a]\n"), schema.FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, "x", doc["name"])
		assert.Equal(t, []any{"a"}, doc["tags"])
	})

	t.Run("not an object", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"null", ""} {
			_, err := schema.DecodeDocument(strings.NewReader(in), schema.FormatJSON)
			assert.ErrorIs(t, err, schema.ErrNotObject, in)
		}
		_, err := schema.DecodeDocument(strings.NewReader(""), schema.FormatYAML)
		assert.ErrorIs(t, err, schema.ErrNotObject)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := schema.DecodeDocument(strings.NewReader(`[1, 2]`), schema.FormatJSON)
		require.Error(t, err)
		assert.NotErrorIs(t, err, schema.ErrNotObject)

		_, err = schema.DecodeDocument(strings.NewReader("- a\n- b\n"), schema.FormatYAML)
		require.Error(t, err)
	})
}
