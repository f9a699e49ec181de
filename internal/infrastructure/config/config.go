package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Port           string `env:"PORT,            default=8000"`
	Env            string `env:"ENV,             default=production"`
	LogLevel       string `env:"LOG_LEVEL,       default=info"`
	APIPrefix      string `env:"API_PREFIX,      default=/api/v1"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS, default=http://localhost:3000"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
}

type AuthConfig struct {
	SecretKey             string        `env:"SECRET_KEY, required"`
	Algorithm             string        `env:"JWT_ALGORITHM,                 default=HS256"`
	TokenExpireMinutes    int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES,   default=30"`
	BcryptCost            int           `env:"BCRYPT_COST,                   default=0"`
	CheckActivePerRequest bool          `env:"AUTH_CHECK_ACTIVE_PER_REQUEST, default=true"`
	MaxLoginAttempts      int           `env:"LOGIN_MAX_ATTEMPTS,            default=5"`
	LoginAttemptWindow    time.Duration `env:"LOGIN_ATTEMPT_WINDOW,          default=15m"`
}

type MongoConfig struct {
	URI         string `env:"MONGODB_URL,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGODB_DATABASE,      default=intersect_fhir"`
	MinPoolSize uint64 `env:"MONGODB_MIN_POOL_SIZE, default=10"`
	MaxPoolSize uint64 `env:"MONGODB_MAX_POOL_SIZE, default=100"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,   default=true"`
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=0"`
}

type AuditConfig struct {
	Enabled bool `env:"ENABLE_AUDIT_LOGGING, default=true"`
	Workers int  `env:"AUDIT_WORKERS,        default=4"`
}

type TelemetryConfig struct {
	ServiceName  string `env:"OTEL_SERVICE_NAME,           default=intersect-fhir-api"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool   `env:"OTEL_EXPORTER_OTLP_INSECURE, default=false"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// TokenTTL is the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenExpireMinutes) * time.Minute
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToUpper(c.Auth.Algorithm) {
	case "HS256", "HS384", "HS512":
		c.Auth.Algorithm = strings.ToUpper(c.Auth.Algorithm)
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Auth.Algorithm)
	}
	if c.Auth.TokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if len(c.Auth.SecretKey) < minSecretLength && !c.IsDevelopment() {
		return fmt.Errorf("SECRET_KEY must be at least %d bytes", minSecretLength)
	}
	if c.Mongo.MinPoolSize > c.Mongo.MaxPoolSize {
		return errors.New("MONGODB_MIN_POOL_SIZE exceeds MONGODB_MAX_POOL_SIZE")
	}
	return nil
}
