package main

import "time"

// Config is the process configuration.
type Config struct {
	Environment string `env:"BOUNDSEC_ENV" envDefault:"development"`
	CatalogPath string `env:"BOUNDSEC_CATALOG_PATH" envDefault:"catalog.yaml"`
	// Tree selects the checker tree of the catalog used for default lookups.
	Tree string `env:"BOUNDSEC_TREE"`
	// RolesPath seeds in-memory roles when PostgreSQL is disabled.
	RolesPath string `env:"BOUNDSEC_ROLES_PATH"`

	TokenTTL        time.Duration `env:"BOUNDSEC_TOKEN_TTL" envDefault:"30m"`
	TokenCapacity   int           `env:"BOUNDSEC_TOKEN_CAPACITY" envDefault:"10000"`
	SessionTTL      time.Duration `env:"BOUNDSEC_SESSION_TTL" envDefault:"30m"`
	SessionCapacity int           `env:"BOUNDSEC_SESSION_CAPACITY" envDefault:"1024"`
	CheckerCache    int           `env:"BOUNDSEC_CHECKER_CACHE_SIZE" envDefault:"1000"`

	// RateLimit caps executions per user within RateWindow. Zero disables it.
	RateLimit   int           `env:"BOUNDSEC_RATE_LIMIT" envDefault:"60"`
	RateWindow  time.Duration `env:"BOUNDSEC_RATE_WINDOW" envDefault:"1m"`
	SSLRedirect bool          `env:"BOUNDSEC_SSL_REDIRECT" envDefault:"false"`

	PostgresEnabled bool `env:"BOUNDSEC_PG_ENABLED" envDefault:"false"`
	RedisEnabled    bool `env:"BOUNDSEC_REDIS_ENABLED" envDefault:"false"`
}
