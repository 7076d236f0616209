// Package environment names the deployment a protorules process runs in and
// carries it through context.Context.
//
// Parse accepts the full names and the short aliases used in configuration
// files (dev, stage, prod). WithContext and FromContext attach and read the
// value, and LoggerExtractor adds it to slog records:
//
//	env, err := environment.Parse(cfg.Env)
//	if err != nil {
//	    return err
//	}
//	ctx = environment.WithContext(ctx, env)
//	log := logger.New(
//	    logger.WithEnvironment(env, "protorules"),
//	    logger.WithContextExtractors(environment.LoggerExtractor()),
//	)
//
// Environment.Strict reports whether consistency problems should abort
// startup (staging and production) or only be logged (development).
package environment
