// Package requestid tags every HTTP request with an id.
//
// Middleware reads or generates the X-Request-ID header and stores it in
// the request context. LoggerExtractor joins it to slog records through
// logger.WithContextExtractors and AuditExtractor to audit events through
// audit.WithRequestIDExtractor.
package requestid
