// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty disables the database-backed repositories.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TokenSecret is the shared HS256 signing secret for access and refresh tokens.
	// Must be injected in production; Load fails when APP_ENV=production and the secret is empty.
	TokenSecret string `mapstructure:"TOKEN_SECRET"`
	// TokenIssuer is the iss claim (e.g. "marketplace-auth").
	TokenIssuer string `mapstructure:"TOKEN_ISSUER"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "168h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionBackend selects the session store: "memory" (default) or "redis".
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	// RedisAddr is the Redis address for the redis session backend (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// SessionMaxIdle is how long a session may stay untouched before the sweep removes it (default "168h").
	SessionMaxIdle string `mapstructure:"SESSION_MAX_IDLE"`
	// Env is the application environment ("development", "production"). Production posture
	// hides stack traces and error context from responses and enables the external log sink.
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint for telemetry (e.g. http://localhost:4317).
	// Empty disables the OTel providers (no-op).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// SecurityKafkaBrokers is a comma-separated list of Kafka broker addresses.
	// When set, security events are also produced to Kafka.
	SecurityKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SecurityKafkaTopic is the Kafka topic for security events (default marketplace-security-events).
	SecurityKafkaTopic string `mapstructure:"SECURITY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group for the security-event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// LokiURL is the Loki base URL for forwarding error-log entries in production
	// (e.g. http://localhost:3100). Empty disables the sink.
	LokiURL string `mapstructure:"LOKI_URL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_SECRET", "")
	v.SetDefault("TOKEN_ISSUER", "marketplace-auth")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_MAX_IDLE", "168h") // 7d
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SECURITY_KAFKA_TOPIC", "marketplace-security-events")
	v.SetDefault("KAFKA_GROUP_ID", "marketplace-security-worker")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.IsProduction() && cfg.TokenSecret == "" {
		return nil, errors.New("config: TOKEN_SECRET must be set when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	switch cfg.SessionBackend {
	case "", "memory":
		cfg.SessionBackend = "memory"
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR must be set when SESSION_BACKEND=redis")
		}
	default:
		return nil, errors.New("config: SESSION_BACKEND must be memory or redis")
	}

	return &cfg, nil
}

// IsProduction reports whether the app runs with production posture.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SessionMaxIdleDuration parses SessionMaxIdle as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) SessionMaxIdleDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionMaxIdle)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SecurityKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka security-event producer is enabled (non-empty list).
func (c *Config) SecurityKafkaBrokersList() []string {
	if c == nil || c.SecurityKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.SecurityKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
