package config

import "time"

func LoadTestConfig() *Config {
	return &Config{
		Env: "test",
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8081,
			PublicURL: "http://localhost:8081",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Name:   ":memory:",
		},
		JWT: JWTConfig{
			Secret:     "test-access-secret",
			Issuer:     "a11yhub-test",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Auth: AuthConfig{
			ResolverTimeout:  time.Second,
			EmbedPermissions: true,
		},
		Delivery: DeliveryConfig{
			TokenSecret:     "test-delivery-secret",
			TokenTTL:        time.Hour,
			BaseURL:         "http://localhost:8081/api/v1",
			RateLimitWindow: time.Minute,
			RateLimitMax:    100,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Worker: WorkerConfig{
			Concurrency:       1,
			IntegritySchedule: "0 */6 * * *",
		},
		Log: LogConfig{Level: "error"},
	}
}
