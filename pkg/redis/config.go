package redis

import "time"

// Config holds the Redis connection settings loaded from the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// TokenPrefix namespaces suspension tokens.
	TokenPrefix string        `env:"REDIS_TOKEN_PREFIX" envDefault:"boundsec:token:"`
	TokenTTL    time.Duration `env:"REDIS_TOKEN_TTL" envDefault:"30m"`
}
