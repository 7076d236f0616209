package expr_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/expr"
	"github.com/dmitrymomot/protorules/pkg/rules"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	e, err := expr.New()
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pred    rules.Predicate
		this    any
		ok      bool
		message string
	}{
		{"bool true", rules.Predicate{ID: "even", Expression: "this % 2 == 0"}, int64(4), true, ""},
		{"bool false uses predicate message", rules.Predicate{ID: "even", Message: "must be even", Expression: "this % 2 == 0"}, int32(3), false, "must be even"},
		{"empty string passes", rules.Predicate{ID: "s", Expression: "this.size() > 2 ? '' : 'too short'"}, "abcd", true, ""},
		{"string is the message", rules.Predicate{ID: "s", Expression: "this.size() > 2 ? '' : 'too short'"}, "a", false, "too short"},
		{"now is bound", rules.Predicate{ID: "past", Expression: "this < now"}, now.Add(-time.Hour), true, ""},
		{"lists", rules.Predicate{ID: "all", Expression: "this.all(x, x > 0)"}, []int64{1, 2, 3}, true, ""},
		{"maps", rules.Predicate{ID: "has", Expression: "'id' in this"}, map[string]any{"name": "x"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, msg, err := e.Evaluate(tt.pred, tt.this, now)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestEvaluate_ConversionErrors(t *testing.T) {
	t.Parallel()

	e, err := expr.New()
	require.NoError(t, err)

	t.Run("does not parse", func(t *testing.T) {
		t.Parallel()
		_, _, err := e.Evaluate(rules.Predicate{ID: "bad", Expression: "this +"}, int64(1), time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, expr.ErrCompile)

		var ce *expr.ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "bad", ce.PredicateID)
		assert.Equal(t, "this +", ce.Expression)
	})

	t.Run("numeric output", func(t *testing.T) {
		t.Parallel()
		_, _, err := e.Evaluate(rules.Predicate{ID: "n", Expression: "1 + 2"}, nil, time.Now())
		assert.ErrorIs(t, err, expr.ErrOutputType)
		assert.True(t, expr.IsConversionError(err))
	})

	t.Run("dynamic output of the wrong type", func(t *testing.T) {
		t.Parallel()
		_, _, err := e.Evaluate(rules.Predicate{ID: "dyn", Expression: "this"}, int64(7), time.Now())
		assert.ErrorIs(t, err, expr.ErrOutputType)
	})

	t.Run("runtime failure", func(t *testing.T) {
		t.Parallel()
		_, _, err := e.Evaluate(rules.Predicate{ID: "div", Expression: "10 / this == 1"}, int64(0), time.Now())
		assert.ErrorIs(t, err, expr.ErrEval)
	})
}

func TestEvaluate_CachesPrograms(t *testing.T) {
	t.Parallel()

	e, err := expr.New(expr.WithCacheSize(4))
	require.NoError(t, err)

	p := rules.Predicate{ID: "pos", Expression: "this > 0"}
	for i := range 10 {
		ok, _, err := e.Evaluate(p, int64(i+1), time.Now())
		require.NoError(t, err)
		require.True(t, ok)
	}

	stats := e.CacheStats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(9), stats.Hits)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	e := expr.Default()

	tests := []struct {
		name    string
		expr    string
		zero    any
		wantErr error
	}{
		{"string method on a string", "this.startsWith('a')", "", nil},
		{"arithmetic on a string", "this + 1 > 2", "", expr.ErrCompile},
		{"int comparison", "this > 10", int32(0), nil},
		{"uint typed", "this > 10u", uint64(0), nil},
		{"duration", "this > duration('1s')", time.Duration(0), nil},
		{"timestamp against now", "this < now", time.Time{}, nil},
		{"bytes", "size(this) == 4", []byte(nil), nil},
		{"dynamic message view", "this.name != ''", nil, nil},
		{"non boolean output", "this * 2", int64(0), expr.ErrOutputType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := e.Check(rules.Predicate{ID: "p", Expression: tt.expr}, tt.zero)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
