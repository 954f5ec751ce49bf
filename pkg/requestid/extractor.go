package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor adds the request id to log records as "request_id".
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// AuditExtractor fills the request id of audit events.
func AuditExtractor() func(ctx context.Context) (string, bool) {
	return func(ctx context.Context) (string, bool) {
		id := FromContext(ctx)
		return id, id != ""
	}
}
