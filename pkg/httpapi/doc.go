// Package httpapi exposes a catalog over HTTP with a chi router.
//
// Every API route requires the X-Session-ID header. It selects the
// workspace holding the caller's components and scopes suspension tokens,
// so a token can only be resumed or discarded from the session that
// created it. The acting user comes from an Authenticator, by default
// HeaderAuthenticator. Each request gets its own permission decision
// cache.
//
// Routes:
//
//	GET    /healthz
//	GET    /components/{component}/commands?bar=toolbar|buttonbar
//	POST   /components/{component}/commands/{command}
//	PUT    /components/{component}/model
//	GET    /objects/{type}/{id}/checkers?group=read
//	POST   /suspensions/{token}/resume
//	DELETE /suspensions/{token}
//
// Results are served in a {data, meta, error} envelope. Success is 200 and
// a suspension is 202. Failures map to 403 for denied permission, 404 for
// unknown names or tokens, 409 for a disabled command and 422 otherwise.
// WithRateLimit caps executions and resumes per user with 429 past the
// limit. Responses carry secure headers.
package httpapi
