package environment_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/protorules/pkg/environment"
)

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := environment.LoggerExtractor()

	t.Run("adds env attribute", func(t *testing.T) {
		t.Parallel()
		ctx := environment.WithContext(context.Background(), environment.Production)
		attr, ok := extract(ctx)
		assert.True(t, ok)
		assert.Equal(t, "env", attr.Key)
		assert.Equal(t, "production", attr.Value.String())
	})

	t.Run("skips context without environment", func(t *testing.T) {
		t.Parallel()
		attr, ok := extract(context.Background())
		assert.False(t, ok)
		assert.True(t, attr.Equal(slog.Attr{}))
	})
}
