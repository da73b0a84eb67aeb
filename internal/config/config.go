package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and passed explicitly; nothing mutates it afterwards.
type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://orderhub.db"`

	SecretKey                  string `env:"SECRET_KEY,required"`
	Algorithm                  string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenLifetimeMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"orders.events"`

	ServiceName string `env:"SERVICE_NAME" envDefault:"orderhub"`
	LogMode     string `env:"LOG_MODE" envDefault:"development"`
	SwaggerHost string `env:"SWAGGER_HOST"`
}

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse builds Config from the process environment and validates it.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if !supportedAlgorithms[c.Algorithm] {
		return fmt.Errorf("ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.Algorithm)
	}
	if c.AccessTokenLifetimeMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenLifetimeMinutes)
	}
	return nil
}

// AccessTokenLifetime returns the access token lifetime as a duration.
func (c *Config) AccessTokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenLifetimeMinutes) * time.Minute
}
