// Package logger builds *slog.Logger instances from functional options and
// provides shared attribute helpers and an error sink.
//
// New picks slog.NewTextHandler or slog.NewJSONHandler from the configured
// Format and, when ContextExtractor callbacks are registered, wraps it with a
// handler that appends attributes pulled from the record's context.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "otpbridge"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	    logger.WithAttr(logger.Application("authenticator")),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "items synced", logger.UserID(userID), logger.Count(n))
//
// # Options
//
//   - WithEnvironment (and the WithDevelopment / WithProduction shorthands):
//     level, format and env/service attributes per deployment environment.
//   - WithFormat: output format.
//   - WithLevelName: minimum level, overriding the preset.
//   - WithAttr: static attributes.
//   - WithContextExtractors / WithContextValue: attributes from context.
//
// # Error sink
//
// Reporter receives failures that a component absorbs instead of returning,
// for example one undecryptable record in a batch. NewReporter logs them at
// ERROR level; tests usually pass a ReporterFunc that collects them.
package logger
