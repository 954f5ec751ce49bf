// Package logger builds *slog.Logger instances with functional options and
// injects request-scoped values from context.Context into every record.
//
// New creates a text or JSON handler, attaches static attributes and wraps the
// handler with LogHandlerDecorator, which runs the registered ContextExtractor
// callbacks on each Handle call.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "boundsecd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "ambiguous default checker",
//	    logger.ObjectType("docs.Document"),
//	    logger.CommandGroup("write"),
//	    logger.Checkers(names),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Error returns an empty attribute for a nil error, so it can be passed
// unconditionally.
package logger
