// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"session-auth/backend/internal/security"
)

const envProduction = "production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :4000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr, when set, serves the gRPC health protocol on this address.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// Env is the application environment ("development", "production"). Production refuses the in-memory store.
	Env string `mapstructure:"APP_ENV"`

	// DatabaseURL is the Postgres DSN; empty selects the in-memory user store.
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBQueryTimeout    time.Duration `mapstructure:"DB_QUERY_TIMEOUT"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	// AccessTokenSecret is the HS256 secret for access tokens (at least 32 bytes).
	AccessTokenSecret string `mapstructure:"ACCESS_TOKEN_SECRET"`
	// JWTPrivateKey is the PEM-encoded refresh signing key (RSA or ECDSA P-256) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded refresh verification key or path to file.
	JWTPublicKey  string        `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer     string        `mapstructure:"JWT_ISSUER"`
	JWTAudience   string        `mapstructure:"JWT_AUDIENCE"`
	JWTAccessTTL  time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL time.Duration `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4 to 31) for passwords and refresh fingerprints.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// CookieSecure may only be false for local plain-HTTP development.
	CookieSecure      bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain      string `mapstructure:"COOKIE_DOMAIN"`
	AccessCookieName  string `mapstructure:"ACCESS_COOKIE_NAME"`
	RefreshCookieName string `mapstructure:"REFRESH_COOKIE_NAME"`
	RefreshCookiePath string `mapstructure:"REFRESH_COOKIE_PATH"`

	// CORSOrigin is the single browser origin allowed to send credentialed requests.
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	// RateLimitPerMinute bounds auth requests per client IP; 0 disables the limiter.
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	// TrustProxy keys the rate limiter and logs on X-Forwarded-For / X-Real-IP. Enable only
	// behind a reverse proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"TRUST_PROXY"`
	// TLSCertFile and TLSKeyFile switch the listener to HTTPS when both are set.
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// OTelEndpoint is the OTLP gRPC collector; empty disables OpenTelemetry export.
	OTelEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// KafkaBrokers is a comma-separated broker list; empty disables the session event producer.
	KafkaBrokers       string `mapstructure:"KAFKA_BROKERS"`
	SessionEventsTopic string `mapstructure:"SESSION_EVENTS_TOPIC"`

	// Worker-only: Loki URL for the session event worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the session event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	// Every key needs a default so Unmarshal sees its env var.
	v.SetDefault("HTTP_ADDR", ":4000")
	v.SetDefault("GRPC_ADDR", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_QUERY_TIMEOUT", "2s")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "session-auth")
	v.SetDefault("JWT_AUDIENCE", "session-auth-web")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", security.DefaultHashCost)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("ACCESS_COOKIE_NAME", "accesstoken")
	v.SetDefault("REFRESH_COOKIE_NAME", "refreshtoken")
	v.SetDefault("REFRESH_COOKIE_PATH", "/refresh_token")
	v.SetDefault("CORS_ORIGIN", "https://localhost:3000")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("TLS_CERT_FILE", "")
	v.SetDefault("TLS_KEY_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "session-auth")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SESSION_EVENTS_TOPIC", "session-events")
	v.SetDefault("KAFKA_GROUP_ID", "session-events-worker")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.New("config: JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	if c.JWTAccessTTL >= c.JWTRefreshTTL {
		return errors.New("config: JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL")
	}
	if c.DBQueryTimeout <= 0 || c.RequestTimeout <= 0 {
		return errors.New("config: DB_QUERY_TIMEOUT and REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("config: RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("config: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when APP_ENV=production")
		}
		if !c.CookieSecure {
			return errors.New("config: COOKIE_SECURE must not be false when APP_ENV=production")
		}
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// TLSEnabled reports whether the HTTP listener should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// TokenCodecConfig loads the signing keys and returns the token codec configuration.
// Only the API server needs it, so Load does not require the key material.
func (c *Config) TokenCodecConfig() (security.TokenCodecConfig, error) {
	if len(c.AccessTokenSecret) < 32 {
		return security.TokenCodecConfig{}, errors.New("config: ACCESS_TOKEN_SECRET must be at least 32 bytes")
	}
	if c.JWTPrivateKey == "" || c.JWTPublicKey == "" {
		return security.TokenCodecConfig{}, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set")
	}
	priv, err := security.ParsePrivateKey(c.JWTPrivateKey)
	if err != nil {
		return security.TokenCodecConfig{}, fmt.Errorf("config: JWT_PRIVATE_KEY: %w", err)
	}
	pub, err := security.ParsePublicKey(c.JWTPublicKey)
	if err != nil {
		return security.TokenCodecConfig{}, fmt.Errorf("config: JWT_PUBLIC_KEY: %w", err)
	}
	return security.TokenCodecConfig{
		AccessSecret:      []byte(c.AccessTokenSecret),
		RefreshPrivateKey: priv,
		RefreshPublicKey:  pub,
		Issuer:            c.JWTIssuer,
		Audience:          c.JWTAudience,
		AccessTTL:         c.JWTAccessTTL,
		RefreshTTL:        c.JWTRefreshTTL,
	}, nil
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the session event producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
