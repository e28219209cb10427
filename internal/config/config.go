package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"partnerhub"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"partnerhub_dev_password"`
	DBName     string `envconfig:"DB_NAME" default:"partnerhub"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`

	ProviderBaseURL string `envconfig:"PROVIDER_BASE_URL" default:"http://localhost:9090"`
	ProviderAPIKey  string `envconfig:"PROVIDER_API_KEY" default:""`

	PresenceTTL     time.Duration `envconfig:"PRESENCE_TTL" default:"1h"`
	SessionPolicy   string        `envconfig:"SESSION_POLICY" default:"SINGLE_SESSION"`
	MemberBatchSize int           `envconfig:"MEMBER_BATCH_SIZE" default:"10"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}
