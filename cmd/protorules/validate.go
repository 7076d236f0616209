package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/protorules/pkg/i18n"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/schema"
	"github.com/dmitrymomot/protorules/pkg/validator"
)

// outcome is the result of validating one document.
type outcome struct {
	path       string
	violations validator.ValidationErrors
	err        error
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate JSON or YAML documents against a message of a schema",
		ArgsUsage: "DOCUMENT... (use - for stdin)",
		Flags: []cli.Flag{
			schemaFlag(),
			&cli.StringFlag{
				Name:     "message",
				Aliases:  []string{"m"},
				Usage:    "Short or fully qualified name of the message to validate against",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "Stop at the first violation of each document. Overrides PROTORULES_FAIL_FAST",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Render violation messages in this language, e.g. de. Overrides PROTORULES_LANG",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				paths = []string{"-"}
			}
			failFast := a.cfg.FailFast
			if cmd.IsSet("fail-fast") {
				failFast = cmd.Bool("fail-fast")
			}

			_, reg, err := a.compile(ctx, cmd.String("schema"))
			if err != nil {
				return err
			}
			msg, err := reg.Message(cmd.String("message"))
			if err != nil {
				return err
			}
			lang := a.cfg.Language
			if cmd.IsSet("lang") {
				lang = cmd.String("lang")
			}
			var tr *i18n.Translator
			if lang != "" {
				if tr, err = a.translator(nil); err != nil {
					return err
				}
				lang = tr.Match(lang)
			}
			return a.validate(ctx, msg, paths, failFast, os.Stdin, tr, lang)
		},
	}
}

// validate checks every document concurrently. A nil tr keeps the engine's
// own messages.
func (a *app) validate(ctx context.Context, msg *validator.Message[schema.Document], paths []string, failFast bool, stdin io.Reader, tr *i18n.Translator, lang string) error {
	start := time.Now()
	mapper := iter.Mapper[string, outcome]{MaxGoroutines: a.cfg.MaxWorkers}
	results := mapper.Map(paths, func(path *string) outcome {
		out := outcome{path: *path}
		doc, err := readDocument(*path, stdin)
		if err != nil {
			out.err = err
			return out
		}
		acc := validator.NewAccumulator(failFast)
		if err := msg.ValidateInto(doc, acc); err != nil {
			out.err = err
			return out
		}
		out.violations = acc.Violations()
		if tr != nil {
			out.violations = tr.Localize(lang, out.violations)
		}
		return out
	})

	var failed, broken, total int
	for _, res := range results {
		switch {
		case res.err != nil:
			broken++
			fmt.Fprintf(a.stdout, "%s: error: %v\n", res.path, res.err)
		case len(res.violations) > 0:
			failed++
			total += len(res.violations)
			for _, v := range res.violations {
				fmt.Fprintf(a.stdout, "%s: %s\n", res.path, v.Error())
				a.log.DebugContext(ctx, "violation",
					logger.Field(v.Field),
					logger.RuleID(v.RuleID),
				)
			}
		default:
			fmt.Fprintf(a.stdout, "%s: ok\n", res.path)
		}
	}

	a.log.InfoContext(ctx, "validation finished",
		slog.Int("documents", len(paths)),
		slog.Int("failed", failed),
		logger.Violations(total),
		logger.Duration(time.Since(start)),
	)

	switch {
	case broken > 0:
		return fmt.Errorf("%d document(s) could not be validated", broken)
	case failed > 0:
		return fmt.Errorf("%d document(s): %w", failed, errViolations)
	}
	return nil
}
