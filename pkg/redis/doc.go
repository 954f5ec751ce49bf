// Package redis connects to Redis and keeps suspension tokens there.
//
// Connect pings the server with retries before handing out the client:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// TokenStore implements execution.TokenStore. Tokens are stored as JSON
// under "<prefix><scope>:<id>" with a key TTL, and Take uses GETDEL so a
// suspension is consumed exactly once even across instances:
//
//	engine := execution.NewEngine(commands, components,
//	    execution.WithTokenStore(redis.NewTokenStoreFromConfig(client, cfg)),
//	)
//
// Healthcheck adapts the client to the service health endpoint. Errors are
// sentinels such as ErrRedisNotReady joined with the driver error.
package redis
