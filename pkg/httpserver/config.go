package httpserver

import "time"

// Config holds the HTTP server settings loaded from the environment.
type Config struct {
	Addr            string        `env:"BOUNDSEC_HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"BOUNDSEC_HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"BOUNDSEC_HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"BOUNDSEC_HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"BOUNDSEC_HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Option configures a Server.
type Option func(*Config)

func WithAddr(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.Addr = addr
		}
	}
}

// WithTimeouts sets the read, write and idle timeouts. Zero values keep
// the current setting.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(c *Config) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
		if idle > 0 {
			c.IdleTimeout = idle
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ShutdownTimeout = d
		}
	}
}

// NewFromConfig creates a server from cfg; zero fields take the defaults.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	return New(append([]Option{
		WithAddr(cfg.Addr),
		WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout, cfg.IdleTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}, opts...)...)
}
