// Package audit records an audit trail of command executions.
//
// A Logger builds events from the context (user, session and request ids)
// and hands them to a Storage. MemoryStorage keeps events in memory,
// LogStorage writes them to a slog.Logger, and AsyncWriter batches events
// for any BatchStorage in a background goroutine:
//
//	w := audit.NewAsyncWriter(audit.NewLogStorage(log), audit.AsyncOptions{})
//	defer w.Close(ctx)
//
//	trail := audit.NewLogger(w, audit.WithUserIDExtractor(userID))
//	_ = trail.Log(ctx, audit.ActionExecuted, audit.WithResource("command", "save"))
package audit
