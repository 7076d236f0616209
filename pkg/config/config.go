package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrymomot/protorules/pkg/environment"
	"github.com/dmitrymomot/protorules/pkg/httpserver"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/requestid"
)

// Config is the runtime configuration of the protorules CLI and server.
type Config struct {
	Env              string `env:"PROTORULES_ENV" envDefault:"development"`
	LogLevel         string `env:"PROTORULES_LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"PROTORULES_LOG_FORMAT"`
	FailFast         bool   `env:"PROTORULES_FAIL_FAST" envDefault:"false"`
	ProgramCacheSize int    `env:"PROTORULES_PROGRAM_CACHE_SIZE" envDefault:"256"`
	MaxWorkers       int    `env:"PROTORULES_MAX_WORKERS" envDefault:"4"`
	MaxBodyBytes     int64  `env:"PROTORULES_MAX_BODY_BYTES" envDefault:"1048576"`
	Language         string `env:"PROTORULES_LANG"`

	HTTP httpserver.Config
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := environment.Parse(c.Env); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "" {
		if _, err := logger.ParseFormat(c.LogFormat); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ProgramCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("program cache size must be positive, got %d", c.ProgramCacheSize))
	}
	if c.MaxWorkers <= 0 {
		errs = append(errs, fmt.Errorf("max workers must be positive, got %d", c.MaxWorkers))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Environment returns the parsed environment, Development when unparsable.
func (c Config) Environment() environment.Environment {
	env, err := environment.Parse(c.Env)
	if err != nil {
		return environment.Development
	}
	return env
}

// Logger builds the process logger: environment defaults first, then the
// explicit level and format overrides.
func (c Config) Logger(service string, w io.Writer) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(c.Environment(), service),
		logger.WithOutput(w),
		logger.WithContextExtractors(environment.LoggerExtractor(), requestid.LoggerExtractor()),
	}
	if c.LogLevel != "" {
		lvl, err := logger.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		opts = append(opts, logger.WithLevel(lvl))
	}
	if c.LogFormat != "" {
		f, err := logger.ParseFormat(c.LogFormat)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		opts = append(opts, logger.WithFormat(f))
	}
	return logger.New(opts...), nil
}
