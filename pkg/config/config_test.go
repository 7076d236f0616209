package config_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/protorules/pkg/config"
	"github.com/dmitrymomot/protorules/pkg/environment"
	"github.com/dmitrymomot/protorules/pkg/requestid"
)

func TestConfig_Defaults(t *testing.T) {
	config.ResetCache()
	unsetProtorules(t)

	var cfg config.Config
	require.NoError(t, config.Reload(&cfg))
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFormat)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, 256, cfg.ProgramCacheSize)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := config.Config{Env: "stage", LogLevel: "warn", LogFormat: "json", ProgramCacheSize: 8, MaxWorkers: 1, MaxBodyBytes: 1}
	require.NoError(t, valid.Validate())

	bad := config.Config{Env: "qa", LogLevel: "loud", LogFormat: "xml", ProgramCacheSize: 0, MaxWorkers: -1, MaxBodyBytes: 0}
	err := bad.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	require.ErrorIs(t, err, environment.ErrUnknown)
	msg := err.Error()
	for _, want := range []string{`"loud"`, `"xml"`, "program cache size", "max workers", "max body bytes"} {
		assert.Contains(t, msg, want)
	}
}

func TestConfig_Environment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, environment.Production, config.Config{Env: "prod"}.Environment())
	assert.Equal(t, environment.Development, config.Config{Env: "qa"}.Environment())
}

func TestConfig_Logger(t *testing.T) {
	t.Parallel()

	t.Run("overrides environment defaults", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		cfg := config.Config{Env: "development", LogLevel: "warn", LogFormat: "json"}
		log, err := cfg.Logger("protorules", buf)
		require.NoError(t, err)

		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Warn("shown")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "development", entry["env"])
		assert.Equal(t, "protorules", entry["service"])
	})

	t.Run("adds request id from context", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log, err := config.Config{LogFormat: "json"}.Logger("protorules", buf)
		require.NoError(t, err)

		log.InfoContext(requestid.WithContext(t.Context(), "run-7"), "done")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "run-7", entry["request_id"])
	})

	t.Run("rejects bad level", func(t *testing.T) {
		t.Parallel()
		_, err := config.Config{LogLevel: "loud"}.Logger("protorules", &bytes.Buffer{})
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}
