package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/environment"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/requestid"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default with validation attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))

		log.Warn("document rejected",
			logger.Schema("testdata/account.yaml"),
			logger.Message("acme.v1.Account"),
			logger.Field("tags[1]"),
			logger.RuleID("string.min_len"),
			logger.Violations(3),
		)

		entry := decodeEntry(t, buf)
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "document rejected", entry["msg"])
		assert.Equal(t, "testdata/account.yaml", entry["schema"])
		assert.Equal(t, "acme.v1.Account", entry["message"])
		assert.Equal(t, "tags[1]", entry["field"])
		assert.Equal(t, "string.min_len", entry["rule_id"])
		assert.EqualValues(t, 3, entry["violations"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))

		log.Info("schema compiled", logger.Component("check"))
		out := buf.String()
		assert.Contains(t, out, "level=INFO")
		assert.Contains(t, out, "component=check")
	})

	t.Run("last formatter wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter(), logger.WithJSONFormatter())

		log.Info("schema compiled")
		assert.Equal(t, "schema compiled", decodeEntry(t, buf)["msg"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))

		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Error("evaluation failed", logger.Error(errors.New("no such overload")))
		assert.Equal(t, "no such overload", decodeEntry(t, buf)["error"])
	})

	t.Run("handler options override the level", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithLevel(slog.LevelError),
			logger.WithHandlerOptions(&slog.HandlerOptions{Level: slog.LevelDebug}),
		)

		log.Debug("visible")
		assert.Equal(t, "visible", decodeEntry(t, buf)["msg"])
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Component("api")))

		log.Info("listening")
		assert.Equal(t, "api", decodeEntry(t, buf)["component"])
	})

	t.Run("environment and request id from context", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, environment.LoggerExtractor(), requestid.LoggerExtractor()),
		)

		ctx := environment.WithContext(context.Background(), environment.Production)
		ctx = requestid.WithContext(ctx, "req-42")
		log.With(logger.Component("validate")).InfoContext(ctx, "document valid")

		entry := decodeEntry(t, buf)
		assert.Equal(t, "production", entry["env"])
		assert.Equal(t, "req-42", entry["request_id"])
		assert.Equal(t, "validate", entry["component"])
	})

	t.Run("context without values adds nothing", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(requestid.LoggerExtractor()),
		)

		log.InfoContext(context.Background(), "document valid")
		assert.NotContains(t, decodeEntry(t, buf), "request_id")
	})

	t.Run("unknown format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestDiscard_DropsEverything(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, log.Enabled(context.Background(), level))
	}
	assert.NotPanics(t, func() {
		log.Error("dropped", logger.RuleID("cel_rule"), logger.Violations(1))
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Component("cli"))))

	slog.Info("default logger")
	entry := decodeEntry(t, buf)
	assert.Equal(t, "default logger", entry["msg"])
	assert.Equal(t, "cli", entry["component"])
}
