package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMongo    = "mongo"
)

// Config is loaded once at startup and passed by pointer; nothing mutates it
// afterwards.
type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	APIPrefix string `env:"API_PREFIX, default=/api/v1"`

	Auth     AuthConfig
	Password PasswordConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	SecretKey             string `env:"SECRET_KEY, required"`
	Algorithm             string `env:"JWT_ALGORITHM, default=HS256"`
	AccessTimeoutMinutes  int    `env:"JWT_ACCESS_TOKEN_TIMEOUT_MINUTES, default=60"`
	RefreshTimeoutMinutes int    `env:"JWT_REFRESH_TOKEN_TIMEOUT_MINUTES, default=600"`
	Enabled               bool   `env:"ENABLE_AUTH, default=true"`
	// Whitelist replaces the built-in list of unauthenticated path fragments
	// when set.
	Whitelist []string `env:"AUTH_WHITELIST"`
}

func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTimeoutMinutes) * time.Minute
}

func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTimeoutMinutes) * time.Minute
}

type PasswordConfig struct {
	MinLength   int    `env:"PASSWORD_LENGTH, default=8"`
	PhoneRegion string `env:"PHONE_REGION,    default=US"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=postgres"`
	DatabaseURL string `env:"DATABASE_URL, default=postgres://localhost:5432/users?sslmode=disable"`
	PoolSize    int    `env:"DB_POOL_SIZE, default=10"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=user_service"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

// RedisConfig configures the principal cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,            default=0"`
	CacheTTL time.Duration `env:"PRINCIPAL_CACHE_TTL, default=5m"`
}

// IsDevelopment reports whether the service runs in the development env.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Auth.AccessTimeoutMinutes <= 0 || c.Auth.RefreshTimeoutMinutes <= 0 {
		return fmt.Errorf("config: token timeouts must be positive")
	}
	if c.Password.MinLength <= 0 {
		return fmt.Errorf("config: PASSWORD_LENGTH must be positive")
	}
	return nil
}
