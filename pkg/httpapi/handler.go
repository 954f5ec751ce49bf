package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/dmitrymomot/boundsec/pkg/catalog"
	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/execution"
	"github.com/dmitrymomot/boundsec/pkg/httpserver"
	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/requestid"
)

// Handler serves command layouts, executions and suspensions of one catalog.
type Handler struct {
	catalog  *catalog.Catalog
	sessions *catalog.Sessions
	engine   *execution.Engine
	auth     Authenticator
	tree     string
	checks   []httpserver.Check
	logger   *slog.Logger

	rateLimit  int
	rateWindow time.Duration
	secure     *secure.Secure
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuthenticator replaces HeaderAuthenticator.
func WithAuthenticator(a Authenticator) Option {
	return func(h *Handler) {
		if a != nil {
			h.auth = a
		}
	}
}

// WithTree selects the checker tree default lookups walk, both for
// GET /objects/{type}/{id}/checkers and for security objects the engine
// authorizes by their default checker. Without it the static checker
// registry is used.
func WithTree(rootID string) Option {
	return func(h *Handler) { h.tree = rootID }
}

// WithHealthChecks adds dependency checks to GET /healthz.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(h *Handler) { h.checks = append(h.checks, checks...) }
}

// WithRateLimit caps command executions and resumes per user, or per client
// IP for anonymous requests. A non-positive limit disables it.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(h *Handler) {
		h.rateLimit = requests
		h.rateWindow = window
	}
}

// WithSSLRedirect makes the secure headers middleware redirect plain HTTP
// requests, honoring X-Forwarded-Proto.
func WithSSLRedirect() Option {
	return func(h *Handler) { h.secure = newSecure(true) }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a handler. sessions must be the component resolver engine
// was built with, so resumed invocations see the same workspace.
func New(cat *catalog.Catalog, sessions *catalog.Sessions, engine *execution.Engine, opts ...Option) *Handler {
	h := &Handler{
		catalog:  cat,
		sessions: sessions,
		engine:   engine,
		auth:     HeaderAuthenticator,
		logger:   slog.Default(),
		secure:   newSecure(false),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the chi router serving the API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(h.secureHeaders)
	r.Get("/healthz", httpserver.HealthHandler(h.logger, h.checks...))

	r.Group(func(r chi.Router) {
		r.Use(h.session)
		r.Get("/components/{component}/commands", h.ListCommands)
		r.Put("/components/{component}/model", h.SetModel)
		r.Get("/objects/{type}/{id}/checkers", h.ObjectCheckers)
		r.Delete("/suspensions/{token}", h.Discard)

		r.Group(func(r chi.Router) {
			if h.rateLimit > 0 {
				r.Use(h.limiter())
			}
			r.Post("/components/{component}/commands/{command}", h.Execute)
			r.Post("/suspensions/{token}/resume", h.Resume)
		})
	})
	return r
}

// session authenticates the request and installs the user, the suspension
// scope, the checker tree and a per-request permission cache.
func (h *Handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := r.Header.Get(HeaderSession)
		if scope == "" {
			writeError(w, http.StatusBadRequest, ErrMissingSession, HeaderSession+" header is required")
			return
		}
		user, err := h.auth(r)
		if err != nil {
			h.logger.WarnContext(r.Context(), "authentication failed", logger.Error(err))
			writeError(w, http.StatusUnauthorized, errors.Join(ErrUnauthenticated, err), "")
			return
		}

		ctx := execution.WithScope(r.Context(), scope)
		if user != nil {
			ctx = rbac.WithUser(ctx, user)
		}
		if h.tree != "" {
			ctx = checker.WithTree(ctx, h.tree)
		}
		ctx, release := rbac.WithRequestCache(ctx)
		defer release()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) workspace(r *http.Request) *catalog.Workspace {
	return h.sessions.Workspace(execution.ScopeFromContext(r.Context()))
}

func newSecure(sslRedirect bool) *secure.Secure {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           sslRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
}

func (h *Handler) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.secure.Process(w, r); err != nil {
			// Process already wrote the response.
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limiter() func(http.Handler) http.Handler {
	return httprate.Limit(h.rateLimit, h.rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrRateLimited, "")
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if user, ok := rbac.UserFromContext(r.Context()); ok && user != nil && user.ID != "" {
		return "user:" + user.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
