// Package logger builds the slog loggers used across protorules.
//
// New creates a *slog.Logger from Option values: output format, level,
// static attributes and ContextExtractor callbacks that copy values such as
// the environment from a context.Context into every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "protorules"),
//	    logger.WithContextExtractors(environment.LoggerExtractor()),
//	)
//	log.WarnContext(ctx, "inconsistent message",
//	    logger.Component("consistency"),
//	    logger.Message("acme.v1.Account"),
//	    logger.Errors(issues...),
//	)
//
// The attribute helpers keep key names stable: Message, Field, RuleID,
// Schema and Violations describe validation events; Error and Errors drop
// out entirely when given nil errors.
//
// ParseFormat and ParseLevel turn configuration strings into options.
// Discard returns a logger for components created without one.
package logger
