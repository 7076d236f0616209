package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/protorules/pkg/tagalloc"
)

func (a *app) tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Print the field numbers assigned to every message",
		Flags: []cli.Flag{schemaFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, _, err := a.compile(ctx, cmd.String("schema"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, m := range s.Messages {
				fmt.Fprintf(w, "%s\n", m.FullName())
				for _, f := range m.Fields {
					kind := f.FieldKind().String()
					if f.Oneof != "" {
						kind += " (oneof " + f.Oneof + ")"
					}
					fmt.Fprintf(w, "\t%d\t%s\t%s\n", f.Tag, f.Name, kind)
				}
				if reserved := tagalloc.Merge(m.ReservedRanges()...); len(reserved) > 0 {
					names := make([]string, len(reserved))
					for i, r := range reserved {
						names[i] = r.String()
					}
					fmt.Fprintf(w, "\treserved\t%s\t\n", strings.Join(names, ", "))
				}
			}
			return w.Flush()
		},
	}
}
