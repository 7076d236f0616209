package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/dmitrymomot/protorules/pkg/logger"
)

func (a *app) describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "Export the messages of a schema as a protobuf FileDescriptorSet",
		Flags: []cli.Flag{
			schemaFlag(),
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: json or binary",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("schema")
			s, _, err := a.compile(ctx, path)
			if err != nil {
				return err
			}
			set, err := s.FileDescriptorSet()
			if err != nil {
				return err
			}

			var out []byte
			switch f := cmd.String("format"); f {
			case "json":
				out, err = protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(set)
				out = append(out, '\n')
			case "binary":
				out, err = proto.Marshal(set)
			default:
				return fmt.Errorf("describe: unknown format %q", f)
			}
			if err != nil {
				return fmt.Errorf("describe: %w", err)
			}

			if o := cmd.String("output"); o != "" {
				if err := os.WriteFile(o, out, 0o644); err != nil {
					return err
				}
				a.log.InfoContext(ctx, "descriptor written", logger.Schema(path), slog.String("file", o))
				return nil
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}
