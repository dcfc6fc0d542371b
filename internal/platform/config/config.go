package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration. Keep infra values here
// and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"keystone"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`

	PostgresDSN  string   `env:"POSTGRES_DSN"`
	RedisAddr    string   `env:"REDIS_ADDR"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	WorkerPollSeconds int    `env:"WORKER_POLL_SECONDS" envDefault:"5"`
	OutboxBatchSize   int    `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`
	OrdersTopic       string `env:"ORDERS_TOPIC" envDefault:"commerce.orders"`
	DefaultCurrency   string `env:"DEFAULT_CURRENCY" envDefault:"USD"`
}

// Load reads .env when present and parses the environment. A missing
// .env file is not an error; production sets real environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
