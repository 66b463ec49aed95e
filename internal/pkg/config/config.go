package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// MinSecretLength is the minimum JWT_SECRET size in bytes for HS256.
const MinSecretLength = 32

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=24h"`

	StorageBackend    string        `env:"STORAGE_BACKEND,     default=mongo"`
	TrustForwardedFor bool          `env:"TRUST_FORWARDED_FOR, default=true"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,    default=10s"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity_gateway"`
}

type RedisConfig struct {
	Enabled        bool          `env:"REDIS_ENABLED,    default=true"`
	Addr           string        `env:"REDIS_ADDR,       default=localhost:6379"`
	DB             int           `env:"REDIS_DB,         default=0"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL, default=5m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return ProcessWith(ctx, envconfig.OsLookuper())
}

// ProcessWith loads configuration from l and validates it.
func ProcessWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.StorageBackend {
	case BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StorageBackend))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
