package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/protorules/pkg/config"
	"github.com/dmitrymomot/protorules/pkg/consistency"
	"github.com/dmitrymomot/protorules/pkg/environment"
	"github.com/dmitrymomot/protorules/pkg/expr"
	"github.com/dmitrymomot/protorules/pkg/i18n"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/requestid"
	"github.com/dmitrymomot/protorules/pkg/schema"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// errViolations is returned when at least one document breaks its rules.
var errViolations = errors.New("documents violate their rules")

// app is the state shared by every subcommand, set up in Before.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg  config.Config
	log  *slog.Logger
	eval *expr.Evaluator
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:  "protorules",
		Usage: "Check rule schemas and validate documents against them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Read configuration variables from this .env file first",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level: debug, info, warn or error. Overrides PROTORULES_LOG_LEVEL",
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			a.checkCommand(),
			a.validateCommand(),
			a.tagsCommand(),
			a.describeCommand(),
			a.serveCommand(),
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if f := cmd.String("env-file"); f != "" {
		if err := config.LoadEnv(f); err != nil {
			return ctx, err
		}
	}
	if err := config.Load(&a.cfg); err != nil {
		return ctx, err
	}
	if cmd.IsSet("log-level") {
		a.cfg.LogLevel = cmd.String("log-level")
	}
	if err := a.cfg.Validate(); err != nil {
		return ctx, err
	}

	log, err := a.cfg.Logger("protorules", a.stderr)
	if err != nil {
		return ctx, err
	}
	a.log = log.With(logger.Component("cli"))

	eval, err := expr.New(expr.WithCacheSize(a.cfg.ProgramCacheSize))
	if err != nil {
		return ctx, fmt.Errorf("creating predicate evaluator: %w", err)
	}
	a.eval = eval

	ctx = requestid.WithContext(ctx, requestid.New())
	return environment.WithContext(ctx, a.cfg.Environment()), nil
}

// compile loads a schema file and builds its validators.
func (a *app) compile(ctx context.Context, path string) (*schema.Schema, *schema.Registry, error) {
	start := time.Now()
	s, err := schema.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	reg, err := s.Compile(validator.WithEvaluator(a.eval))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.DebugContext(ctx, "schema compiled",
		logger.Schema(path),
		slog.Int("messages", len(s.Messages)),
		logger.Duration(time.Since(start)),
	)
	return s, reg, nil
}

func (a *app) checker() *consistency.Checker {
	return consistency.New(
		consistency.WithTypeChecker(a.eval),
		consistency.WithMaxWorkers(a.cfg.MaxWorkers),
		consistency.WithLogger(a.log),
	)
}

// translator loads the embedded catalogs plus any extra catalog files.
func (a *app) translator(files []string) (*i18n.Translator, error) {
	opts := []i18n.Option{i18n.WithLogger(a.log)}
	for _, f := range files {
		c, err := i18n.LoadFile(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, i18n.WithCatalog(c))
	}
	return i18n.New(opts...)
}

// schemaFlag is the --schema flag shared by the document commands.
func schemaFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "schema",
		Aliases:  []string{"s"},
		Usage:    "Path of the YAML rule schema",
		Required: true,
	}
}
