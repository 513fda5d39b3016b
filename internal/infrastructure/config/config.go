package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// StaticDir holds the built console bundle (index.html + assets/).
	StaticDir   string `env:"STATIC_DIR,  default=./web/dist"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:8080"`

	// GateSettleTimeout bounds how long the auth gate waits on a session
	// whose login is still in flight.
	GateSettleTimeout time.Duration `env:"GATE_SETTLE_TIMEOUT, default=5s"`
	AuditWorkers      int           `env:"AUDIT_WORKERS,       default=4"`

	Session SessionConfig
	Backend BackendConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET, required"`
	TTL          time.Duration `env:"SESSION_TTL,    default=12h"`
	CookieSecure bool          `env:"COOKIE_SECURE,  default=false"`
}

type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL, default=http://localhost:8000/api/"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT,  default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=bangka_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsProduction reports whether the gateway runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.AuditWorkers <= 0 {
		return nil, fmt.Errorf("config: AUDIT_WORKERS must be positive, got %d", cfg.AuditWorkers)
	}
	return &cfg, nil
}
