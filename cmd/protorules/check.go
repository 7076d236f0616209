package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/protorules/pkg/consistency"
	"github.com/dmitrymomot/protorules/pkg/environment"
	"github.com/dmitrymomot/protorules/pkg/logger"
)

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Load schemas and report contradicting or unsatisfiable rules",
		ArgsUsage: "SCHEMA...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on rule issues even in development",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New("check: at least one schema path is required")
			}
			strict := cmd.Bool("strict") || environment.FromContext(ctx).Strict()

			var errs *multierror.Error
			for _, path := range paths {
				if err := a.check(ctx, path, strict); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
			return errs.ErrorOrNil()
		},
	}
}

// check reports load errors always and rule issues only when strict.
func (a *app) check(ctx context.Context, path string, strict bool) error {
	_, reg, err := a.compile(ctx, path)
	if err != nil {
		return err
	}

	err = reg.Check(ctx, a.checker())
	if err == nil {
		fmt.Fprintf(a.stdout, "%s: ok\n", path)
		return nil
	}
	if !errors.Is(err, consistency.ErrInconsistent) {
		return err
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		merr = multierror.Append(nil, err)
	}
	for _, e := range merr.WrappedErrors() {
		var rep *consistency.Report
		if !errors.As(e, &rep) {
			continue
		}
		for _, issue := range rep.Issues {
			fmt.Fprintf(a.stdout, "%s: %s\n", path, issue)
		}
	}

	if !strict {
		a.log.WarnContext(ctx, "schema has rule issues", logger.Schema(path), logger.Error(err))
		return nil
	}
	return fmt.Errorf("%s: %w", path, consistency.ErrInconsistent)
}
