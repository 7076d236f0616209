package environment

import (
	"context"
	"log/slog"
)

// LoggerExtractor returns a context extractor adding the "env" attribute
// to every record logged with a context carrying an environment.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if env := FromContext(ctx); env != "" {
			return slog.String("env", env.String()), true
		}
		return slog.Attr{}, false
	}
}
