package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/protorules/pkg/api"
	"github.com/dmitrymomot/protorules/pkg/httpserver"
	"github.com/dmitrymomot/protorules/pkg/logger"
)

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a validation HTTP API for the messages of a schema",
		Flags: []cli.Flag{
			schemaFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address. Overrides PROTORULES_HTTP_ADDR",
			},
			&cli.StringSliceFlag{
				Name:  "catalog",
				Usage: "Extra YAML or JSON translation catalog, repeatable",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("schema")
			s, reg, err := a.compile(ctx, path)
			if err != nil {
				return err
			}
			if err := reg.Check(ctx, a.checker()); err != nil {
				a.log.WarnContext(ctx, "schema has inconsistent rules", logger.Schema(path), logger.Error(err))
			}
			tr, err := a.translator(cmd.StringSlice("catalog"))
			if err != nil {
				return err
			}

			handler, err := api.New(api.Options{
				Schema:       s,
				Registry:     reg,
				Translator:   tr,
				Logger:       a.log,
				MaxBodyBytes: a.cfg.MaxBodyBytes,
				FailFast:     a.cfg.FailFast,
			})
			if err != nil {
				return err
			}

			httpCfg := a.cfg.HTTP
			if cmd.IsSet("addr") {
				httpCfg.Addr = cmd.String("addr")
			}
			srv := httpserver.NewFromConfig(httpCfg,
				httpserver.WithLogger(a.log.With(logger.Component("http"))),
				httpserver.WithStartHook(func(ctx context.Context, addr string) {
					handler.MarkReady(true)
					a.log.InfoContext(ctx, "serving schema",
						logger.Schema(path),
						slog.String("addr", addr),
						slog.Any("languages", tr.SupportedLanguages()),
					)
				}),
				httpserver.WithStopHook(func(context.Context, string) {
					handler.MarkReady(false)
				}),
			)
			return srv.Run(ctx, handler)
		},
	}
}
