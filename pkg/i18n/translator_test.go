package i18n_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/i18n"
	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

type profile struct {
	Name string
	Age  int64
	Seen time.Time
}

func profileViolations(t *testing.T, p profile) validator.ValidationErrors {
	t.Helper()
	msg := validator.NewMessage[profile]("Profile").Add(
		validator.NewField(1, "name", func(p profile) (string, bool) { return p.Name, p.Name != "" },
			validator.NewString(rules.String().Required().MinLen(3).MustBuild())),
		validator.NewField(2, "age", func(p profile) (int64, bool) { return p.Age, true },
			validator.NewNumeric(rules.Int64().Gte(18).MustBuild())),
		validator.NewField(3, "seen", func(p profile) (time.Time, bool) { return p.Seen, !p.Seen.IsZero() },
			validator.NewTimestamp(rules.Timestamp().Lt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)).MustBuild())),
	)
	verrs := validator.ExtractValidationErrors(msg.ValidateAll(p))
	require.NotEmpty(t, verrs)
	return verrs
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("embeds english and german", func(t *testing.T) {
		t.Parallel()
		tr, err := i18n.New()
		require.NoError(t, err)
		assert.Equal(t, []string{"en", "de"}, tr.SupportedLanguages())
		assert.Equal(t, "en", tr.DefaultLanguage())
	})

	t.Run("default language must have a catalog", func(t *testing.T) {
		t.Parallel()
		_, err := i18n.New(i18n.WithDefaultLanguage("fr"))
		require.ErrorIs(t, err, i18n.ErrInvalidCatalog)
	})

	t.Run("extra catalogs are merged", func(t *testing.T) {
		t.Parallel()
		uk, err := i18n.LoadFile("testdata/uk.json")
		require.NoError(t, err)
		tr, err := i18n.New(i18n.WithCatalog(uk))
		require.NoError(t, err)
		assert.Equal(t, []string{"en", "de", "uk"}, tr.SupportedLanguages())
	})

	t.Run("without builtin catalogs", func(t *testing.T) {
		t.Parallel()
		uk, err := i18n.LoadFile("testdata/uk.json")
		require.NoError(t, err)
		tr, err := i18n.New(i18n.WithoutBuiltin(), i18n.WithCatalog(uk), i18n.WithDefaultLanguage("uk"))
		require.NoError(t, err)
		assert.Equal(t, []string{"uk"}, tr.SupportedLanguages())
	})
}

func TestTranslator_Match(t *testing.T) {
	t.Parallel()

	tr, err := i18n.New()
	require.NoError(t, err)

	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{name: "empty header", accept: "", want: "en"},
		{name: "exact match", accept: "de", want: "de"},
		{name: "regional variant", accept: "de-CH", want: "de"},
		{name: "quality ordering", accept: "fr;q=0.9, de;q=0.8, en;q=0.1", want: "de"},
		{name: "unsupported", accept: "ja", want: "en"},
		{name: "garbage", accept: ";;;q=abc", want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tr.Match(tt.accept))
		})
	}
}

func TestTranslator_T(t *testing.T) {
	t.Parallel()

	tr, err := i18n.New()
	require.NoError(t, err)

	t.Run("substitutes placeholders", func(t *testing.T) {
		t.Parallel()
		got := tr.T("de", "validation.gte", map[string]string{"value": "18"})
		assert.Equal(t, "muss mindestens 18 sein", got)
	})

	t.Run("falls back to the default language", func(t *testing.T) {
		t.Parallel()
		assert.False(t, tr.Has("de", "validation.uri"))
		assert.Equal(t, "must be a valid URI", tr.T("de", "validation.uri", nil))
	})

	t.Run("unknown key is returned as is", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "validation.nope", tr.T("en", "validation.nope", nil))
	})

	t.Run("unknown placeholders are kept", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "must be at least %{value}", tr.T("en", "validation.gte", map[string]string{"other": "1"}))
	})
}

func TestTranslator_Localize(t *testing.T) {
	t.Parallel()

	tr, err := i18n.New()
	require.NoError(t, err)
	verrs := profileViolations(t, profile{Name: "ab", Age: 12, Seen: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.Equal(t, []string{"string.min_len", "int64.gte", "timestamp.lt"}, verrs.RuleIDs())

	t.Run("german", func(t *testing.T) {
		t.Parallel()
		got := tr.Localize("de", verrs)
		require.Len(t, got, 3)
		assert.Equal(t, "muss mindestens 3 Zeichen lang sein", got[0].Message)
		assert.Equal(t, "muss mindestens 18 sein", got[1].Message)
		assert.Equal(t, "must be before 2020-01-01T00:00:00Z", got[2].Message)
		assert.Equal(t, "string.min_len", got[0].RuleID)
		assert.Equal(t, "name", got[0].Field)
	})

	t.Run("does not modify the input", func(t *testing.T) {
		t.Parallel()
		_ = tr.Localize("de", verrs)
		assert.Equal(t, "must be at least 3 characters long", verrs[0].Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, tr.Localize("de", nil))
	})
}

func TestTranslator_Violation(t *testing.T) {
	t.Parallel()

	override, err := i18n.LoadFile("testdata/override.yaml")
	require.NoError(t, err)
	tr, err := i18n.New(i18n.WithCatalog(override))
	require.NoError(t, err)

	t.Run("field placeholder", func(t *testing.T) {
		t.Parallel()
		verrs := profileViolations(t, profile{Age: 30})
		require.Equal(t, []string{"required"}, verrs.RuleIDs())
		assert.Equal(t, "name must be provided", tr.Violation("en", verrs[0]))
	})

	t.Run("predicate messages are kept", func(t *testing.T) {
		t.Parallel()
		v := validator.ValidationError{
			Field:          "age",
			RuleID:         "cel_rule",
			Message:        "age must be even",
			TranslationKey: "validation.cel_rule",
		}
		assert.Equal(t, "age must be even", tr.Violation("de", v))
	})

	t.Run("untranslated rule keeps its message", func(t *testing.T) {
		t.Parallel()
		v := validator.ValidationError{
			RuleID:         "message.oneof",
			Message:        "one of a, b must be set",
			TranslationKey: "validation.message.oneof",
		}
		assert.Equal(t, "one of a, b must be set", tr.Violation("en", v))
	})
}
