package validator_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/rules"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

type countingEvaluator struct {
	calls atomic.Int32
}

func (e *countingEvaluator) Evaluate(rules.Predicate, any, time.Time) (bool, string, error) {
	e.calls.Add(1)
	return false, "", nil
}

type tagged struct {
	tags   []string
	labels map[string]int32
}

func tagsField(c validator.Checker[[]string]) *validator.Field[tagged] {
	return validator.NewField(2, "tags", func(m tagged) ([]string, bool) { return m.tags, m.tags != nil }, c)
}

func labelsField(c validator.Checker[map[string]int32]) *validator.Field[tagged] {
	return validator.NewField(3, "labels", func(m tagged) (map[string]int32, bool) { return m.labels, m.labels != nil }, c)
}

func TestRepeated_Counts(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[tagged]("Tagged").Add(tagsField(
		validator.NewRepeated[string](rules.Repeated().MinItems(1).MaxItems(2).MustBuild(), nil),
	))

	assert.Equal(t, []string{"repeated.min_items"}, ruleIDs(t, msg.ValidateAll(tagged{tags: []string{}})))
	assert.Equal(t, []string{"repeated.max_items"}, ruleIDs(t, msg.ValidateAll(tagged{tags: []string{"a", "b", "c"}})))
	assert.NoError(t, msg.ValidateAll(tagged{tags: []string{"a"}}))
}

func TestRepeated_Required(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[tagged]("Tagged").Add(tagsField(
		validator.NewRepeated[string](rules.Repeated().Required().MustBuild(), nil),
	))

	t.Run("absent and empty lists are the same", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"required"}, ruleIDs(t, msg.ValidateAll(tagged{})))
		assert.Equal(t, []string{"required"}, ruleIDs(t, msg.ValidateAll(tagged{tags: []string{}})))
	})

	t.Run("non-empty list passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, msg.ValidateAll(tagged{tags: []string{"x"}}))
	})
}

func TestRepeated_ItemPaths(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[tagged]("Tagged").Add(tagsField(
		validator.NewRepeated[string](rules.Repeated().MustBuild(), validator.NewString(rules.String().MinLen(2).MustBuild())),
	))

	err := msg.ValidateAll(tagged{tags: []string{"ok", "x", "fine", ""}})
	verrs := validator.ExtractValidationErrors(err)
	require.Len(t, verrs, 2)

	assert.Equal(t, "tags[1]", verrs[0].Field)
	assert.Equal(t, "string.min_len", verrs[0].RuleID)
	last, ok := verrs[0].Path.Last()
	require.True(t, ok)
	assert.Equal(t, int32(2), last.Tag)
	assert.Equal(t, rules.KindRepeated, last.FieldType)
	assert.Equal(t, uint64(1), last.Subscript.Value())

	assert.Equal(t, "tags[3]", verrs[1].Field)
}

func TestRepeated_Unique(t *testing.T) {
	t.Parallel()

	t.Run("strings", func(t *testing.T) {
		t.Parallel()
		msg := validator.NewMessage[tagged]("Tagged").Add(tagsField(
			validator.NewRepeated[string](rules.Repeated().Unique().MustBuild(), validator.NewString(rules.String().MustBuild())),
		))

		assert.Equal(t, []string{"repeated.unique"}, ruleIDs(t, msg.ValidateAll(tagged{tags: []string{"a", "b", "a"}})))
		assert.NoError(t, msg.ValidateAll(tagged{tags: []string{"a", "b", "c"}}))
	})

	t.Run("long lists are bucketed by hash", func(t *testing.T) {
		t.Parallel()
		msg := validator.NewMessage[tagged]("Tagged").Add(tagsField(
			validator.NewRepeated[string](rules.Repeated().Unique().MustBuild(), validator.NewString(rules.String().MustBuild())),
		))

		tags := make([]string, 0, 40)
		for i := range 40 {
			tags = append(tags, fmt.Sprintf("tag-%d", i))
		}
		assert.NoError(t, msg.ValidateAll(tagged{tags: tags}))

		tags = append(tags, "tag-17")
		assert.Equal(t, []string{"repeated.unique"}, ruleIDs(t, msg.ValidateAll(tagged{tags: tags})))
	})

	t.Run("float items honor tolerance", func(t *testing.T) {
		t.Parallel()
		type series struct{ points []float64 }
		msg := validator.NewMessage[series]("Series").Add(
			validator.NewField(1, "points", func(s series) ([]float64, bool) { return s.points, true },
				validator.NewRepeated[float64](
					rules.Repeated().Unique().MustBuild(),
					validator.NewNumeric(rules.Double().Tolerance(0.01).MustBuild()),
				)),
		)

		assert.Equal(t, []string{"repeated.unique"}, ruleIDs(t, msg.ValidateAll(series{points: []float64{1.0, 1.005}})))
		assert.NoError(t, msg.ValidateAll(series{points: []float64{1.0, 1.5}}))

		long := make([]float64, 0, 20)
		for i := range 20 {
			long = append(long, float64(i))
		}
		long = append(long, 7.001)
		assert.Equal(t, []string{"repeated.unique"}, ruleIDs(t, msg.ValidateAll(series{points: long})))
	})
}

func TestRepeated_PredicatesSkipEmptyLists(t *testing.T) {
	t.Parallel()

	eval := &countingEvaluator{}
	msg := validator.NewMessage[tagged]("Tagged", validator.WithEvaluator(eval)).Add(tagsField(
		validator.NewRepeated[string](rules.Repeated().CEL(rules.Predicate{ID: "never", Expression: "false"}).MustBuild(), nil),
	))

	assert.NoError(t, msg.ValidateAll(tagged{tags: []string{}}))
	assert.Equal(t, int32(0), eval.calls.Load())

	assert.Equal(t, []string{"cel_rule"}, ruleIDs(t, msg.ValidateAll(tagged{tags: []string{"a"}})))
	assert.Equal(t, int32(1), eval.calls.Load())
}

func TestMap(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[tagged]("Tagged").Add(labelsField(
		validator.NewMap[string, int32](
			rules.Map().MinPairs(1).MaxPairs(3).MustBuild(),
			validator.NewString(rules.String().MinLen(2).MustBuild()),
			validator.NewNumeric(rules.Int32().Gt(0).MustBuild()),
		),
	))

	t.Run("pair counts", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"map.min_pairs"}, ruleIDs(t, msg.ValidateAll(tagged{labels: map[string]int32{}})))
		assert.Equal(t, []string{"map.max_pairs"}, ruleIDs(t, msg.ValidateAll(tagged{labels: map[string]int32{"aa": 1, "bb": 2, "cc": 3, "dd": 4}})))
	})

	t.Run("key violations are marked", func(t *testing.T) {
		t.Parallel()
		verrs := validator.ExtractValidationErrors(msg.ValidateAll(tagged{labels: map[string]int32{"k": 1}}))
		require.Len(t, verrs, 1)

		assert.Equal(t, "string.min_len", verrs[0].RuleID)
		assert.Equal(t, `labels["k"]`, verrs[0].Field)
		assert.True(t, verrs[0].ForKey)

		last, _ := verrs[0].Path.Last()
		assert.Equal(t, rules.KindMap, last.FieldType)
		assert.Equal(t, rules.KindString, last.KeyType)
		assert.Equal(t, rules.KindInt32, last.ValueType)
		assert.Equal(t, "k", last.Subscript.Value())
	})

	t.Run("value violations carry the key", func(t *testing.T) {
		t.Parallel()
		verrs := validator.ExtractValidationErrors(msg.ValidateAll(tagged{labels: map[string]int32{"key": -1}}))
		require.Len(t, verrs, 1)

		assert.Equal(t, "int32.gt", verrs[0].RuleID)
		assert.Equal(t, `labels["key"]`, verrs[0].Field)
		assert.False(t, verrs[0].ForKey)
	})

	t.Run("passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, msg.ValidateAll(tagged{labels: map[string]int32{"aa": 1, "bb": 2}}))
	})
}

func TestMap_MinPairsOnEmptyMap(t *testing.T) {
	t.Parallel()

	msg := validator.NewMessage[tagged]("Tagged").Add(labelsField(
		validator.NewMap[string, int32](rules.Map().MinPairs(2).MustBuild(), nil, nil),
	))

	assert.Equal(t, []string{"map.min_pairs"}, ruleIDs(t, msg.ValidateAll(tagged{labels: map[string]int32{}})))
	assert.Equal(t, []string{"map.min_pairs"}, ruleIDs(t, msg.ValidateAll(tagged{})))
	assert.NoError(t, msg.ValidateAll(tagged{labels: map[string]int32{"a": 1, "b": 2}}))
}

func TestMap_Describe(t *testing.T) {
	t.Parallel()

	f := labelsField(validator.NewMap[string, int32](
		rules.Map().MustBuild(),
		nil,
		validator.NewNumeric(rules.Int32().Gte(0).MustBuild()),
	))

	info := f.Info()
	assert.Equal(t, rules.KindMap, info.Kind)
	assert.Equal(t, rules.KindString, info.KeyType)
	assert.Equal(t, rules.KindInt32, info.ValueType)
	assert.Nil(t, info.Key)
	require.NotNil(t, info.Value)
	assert.Equal(t, []string{"gte"}, info.Value.Rules.Declared())
}
