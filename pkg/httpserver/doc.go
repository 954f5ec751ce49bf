// Package httpserver runs the service HTTP server with graceful shutdown.
//
//	srv := httpserver.NewFromConfig(cfg).WithLogger(log)
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Run returns once ctx is cancelled or SIGINT/SIGTERM arrives and active
// requests finished within the shutdown timeout. HealthHandler reports the
// state of dependency checks such as pg.Healthcheck and redis.Healthcheck.
package httpserver
