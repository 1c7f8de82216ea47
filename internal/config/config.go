package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Development-only fallbacks. Validate refuses them in production.
	DefaultJWTSecret      = "dev-access-secret-change-me"
	DefaultDeliverySecret = "dev-delivery-secret-change-me"
)

var (
	ErrMissingSecret     = errors.New("signing secret must not be empty")
	ErrDefaultSecret     = errors.New("development default secret is not allowed in production")
	ErrSharedSecret      = errors.New("JWT and delivery token secrets must differ")
	ErrInvalidTTL        = errors.New("token TTLs must be positive")
	ErrRefreshTTLTooLow  = errors.New("refresh TTL must be longer than access TTL")
	ErrInvalidResolverTO = errors.New("resolver timeout must be positive")
	ErrInvalidDuration   = errors.New("invalid duration")
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Delivery DeliveryConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Redis    RedisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string
	RateLimit float64 // requests per second per client, 0 disables
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthConfig struct {
	ResolverTimeout  time.Duration
	EmbedPermissions bool
}

type DeliveryConfig struct {
	TokenSecret     string
	TokenTTL        time.Duration
	BaseURL         string
	RateLimitWindow time.Duration
	RateLimitMax    int
}

type StorageConfig struct {
	Provider string // s3 or r2
	S3       S3Config
}

type S3Config struct {
	BucketName string `env:"S3_BUCKET_NAME" required:"true"`
	Endpoint   string `env:"S3_ENDPOINT"`
	Region     string `env:"S3_REGION" required:"true"`
	AccessKey  string `env:"S3_ACCESS_KEY" required:"true"`
	SecretKey  string `env:"S3_SECRET_KEY" required:"true"`
}

type WorkerConfig struct {
	Concurrency       int
	IntegritySchedule string
}

type RedisConfig struct {
	Addr     string
	Password string
	Username string
	DB       int
}

type LogConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	env := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))

	// Secrets only fall back to a default outside production; Validate
	// reports the empty value otherwise.
	jwtDefault, deliveryDefault := DefaultJWTSecret, DefaultDeliverySecret
	if env == EnvProduction {
		jwtDefault, deliveryDefault = "", ""
	}

	var errs []error
	duration := func(key string, defaultValue time.Duration) time.Duration {
		d, err := getEnvAsDuration(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvAsInt("SERVER_PORT", 8080),
			PublicURL: getEnv("PUBLIC_URL", "http://localhost:8080"),
			RateLimit: getEnvAsFloat("SERVER_RATE_LIMIT", 20),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "a11yhub"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", jwtDefault),
			Issuer:     getEnv("JWT_ISSUER", "a11yhub"),
			AccessTTL:  duration("JWT_EXPIRATION", time.Hour),
			RefreshTTL: duration("JWT_REFRESH_EXPIRATION", 7*24*time.Hour),
		},
		Auth: AuthConfig{
			ResolverTimeout:  duration("AUTH_RESOLVER_TIMEOUT", 2*time.Second),
			EmbedPermissions: getEnvAsBool("AUTH_EMBED_PERMISSIONS", true),
		},
		Delivery: DeliveryConfig{
			TokenSecret:     getEnv("DELIVERY_TOKEN_SECRET", deliveryDefault),
			TokenTTL:        duration("DELIVERY_TOKEN_TTL", time.Hour),
			BaseURL:         getEnv("CDN_BASE_URL", "http://localhost:8080/api/v1"),
			RateLimitWindow: duration("DELIVERY_RATE_WINDOW", time.Minute),
			RateLimitMax:    getEnvAsInt("DELIVERY_RATE_MAX", 120),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "s3"),
			S3: S3Config{
				BucketName: getEnv("S3_BUCKET_NAME", ""),
				Endpoint:   getEnv("S3_ENDPOINT", ""),
				Region:     getEnv("S3_REGION", ""),
				AccessKey:  getEnv("S3_ACCESS_KEY", ""),
				SecretKey:  getEnv("S3_SECRET_KEY", ""),
			},
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 5),
			IntegritySchedule: getEnv("SCRIPT_INTEGRITY_SCHEDULE", "0 */6 * * *"),
		},
		Redis: RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", getEnv("REDIS_HOST", "localhost"), getEnvAsInt("REDIS_PORT", 6379)),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate checks the signing secrets and token lifetimes.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET: %w", ErrMissingSecret)
	}
	if c.Delivery.TokenSecret == "" {
		return fmt.Errorf("DELIVERY_TOKEN_SECRET: %w", ErrMissingSecret)
	}
	if c.JWT.Secret == c.Delivery.TokenSecret {
		return ErrSharedSecret
	}
	if c.IsProduction() {
		if c.JWT.Secret == DefaultJWTSecret {
			return fmt.Errorf("JWT_SECRET: %w", ErrDefaultSecret)
		}
		if c.Delivery.TokenSecret == DefaultDeliverySecret {
			return fmt.Errorf("DELIVERY_TOKEN_SECRET: %w", ErrDefaultSecret)
		}
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 || c.Delivery.TokenTTL <= 0 {
		return ErrInvalidTTL
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return ErrRefreshTTLTooLow
	}
	if c.Auth.ResolverTimeout <= 0 {
		return ErrInvalidResolverTO
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90m") and a day suffix ("7d").
// A set but unparseable value is an error.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidDuration, key, value, err)
	}
	return d, nil
}

func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", value, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
