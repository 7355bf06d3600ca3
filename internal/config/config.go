// Package config holds the catalog service configuration, loaded from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/has99an/gtl-marketplace-search/pkg/config"
	"github.com/has99an/gtl-marketplace-search/pkg/database"
)

// Config is the full service configuration.
type Config struct {
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8083"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"catalog-search"`
	KafkaEnabled  bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"2m"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// HTTPAddr returns the listen address for the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
