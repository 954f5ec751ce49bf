// Command boundsecd serves a command catalog over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/boundsec/pkg/audit"
	"github.com/dmitrymomot/boundsec/pkg/catalog"
	"github.com/dmitrymomot/boundsec/pkg/config"
	"github.com/dmitrymomot/boundsec/pkg/execution"
	"github.com/dmitrymomot/boundsec/pkg/httpapi"
	"github.com/dmitrymomot/boundsec/pkg/httpserver"
	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/pg"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/redis"
	"github.com/dmitrymomot/boundsec/pkg/requestid"
)

const serviceName = "boundsecd"

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, serviceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), userExtractor),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("boundsecd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	var (
		assignments  rbac.Assignments
		requirements rbac.Requirements
		source       rbac.RoleSource
		tokens       execution.TokenStore
		checks       []httpserver.Check
	)

	if cfg.PostgresEnabled {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		store := pg.NewRoleStore(pool)
		assignments, requirements, source = store, store, store
		checks = append(checks, httpserver.Check{Name: "postgres", Ping: pg.Healthcheck(pool)})
	} else {
		mem, err := loadMemoryRoles(cfg.RolesPath)
		if err != nil {
			return err
		}
		assignments, requirements, source = mem.assignments, mem.requirements, mem.source
	}

	if cfg.RedisEnabled {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		tokens = redis.NewTokenStoreFromConfig(client, redisCfg)
		checks = append(checks, httpserver.Check{Name: "redis", Ping: redis.Healthcheck(client)})
	} else {
		tokens = execution.NewMemoryStore(
			execution.WithCapacity(cfg.TokenCapacity),
			execution.WithTTL(cfg.TokenTTL),
		)
	}

	roles, err := rbac.NewRoleCatalog(ctx, source)
	if err != nil {
		return err
	}
	resolver := rbac.NewResolver(assignments, requirements,
		rbac.WithRoleCatalog(roles),
		rbac.WithDefaultObject(globalObject),
		rbac.WithLogger(log),
	)

	cat, err := catalog.Load(ctx, cfg.CatalogPath,
		catalog.WithPermissions(resolver),
		catalog.WithCheckerCacheSize(cfg.CheckerCache),
		catalog.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if problems := cat.Problems(); len(problems) > 0 {
		log.WarnContext(ctx, "catalog loaded with configuration errors", slog.Int("count", len(problems)))
	}

	trail := audit.NewAsyncWriter(audit.NewLogStorage(log), audit.AsyncOptions{BatchTimeout: 20 * time.Millisecond})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trail.Close(closeCtx); err != nil {
			log.Error("flush audit trail", logger.Error(err))
		}
	}()

	sessions := catalog.NewSessions(cat, cfg.SessionCapacity, cfg.SessionTTL)
	engine := execution.NewEngine(cat.Commands(), sessions,
		execution.WithTokenStore(tokens),
		execution.WithDefaultCheckers(cat.Checkers()),
		execution.WithAudit(audit.NewLogger(trail,
			audit.WithRequestIDExtractor(requestid.AuditExtractor()),
			audit.WithUserIDExtractor(auditUser),
			audit.WithSessionIDExtractor(auditSession),
		)),
		execution.WithLogger(log),
	)

	apiOpts := []httpapi.Option{
		httpapi.WithTree(cfg.Tree),
		httpapi.WithHealthChecks(checks...),
		httpapi.WithRateLimit(cfg.RateLimit, cfg.RateWindow),
		httpapi.WithLogger(log),
	}
	if cfg.SSLRedirect {
		apiOpts = append(apiOpts, httpapi.WithSSLRedirect())
	}
	api := httpapi.New(cat, sessions, engine, apiOpts...)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg).WithLogger(log)
	if err := srv.Run(ctx, api.Router()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func userExtractor(ctx context.Context) (slog.Attr, bool) {
	u, ok := rbac.UserFromContext(ctx)
	if !ok || u == nil {
		return slog.Attr{}, false
	}
	return logger.UserID(u.ID), true
}

func auditUser(ctx context.Context) (string, bool) {
	u, ok := rbac.UserFromContext(ctx)
	if !ok || u == nil {
		return "", false
	}
	return u.ID, true
}

func auditSession(ctx context.Context) (string, bool) {
	scope := execution.ScopeFromContext(ctx)
	return scope, scope != ""
}
