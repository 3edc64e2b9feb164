// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	SessionRepositoryMemory = "memory"
	SessionRepositoryMongo  = "mongo"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	GRPCPort           string        `envconfig:"GRPC_PORT" default:"50051"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`

	SessionRepository string        `envconfig:"SESSION_REPOSITORY" default:"memory"`
	MongoURI          string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName       string        `envconfig:"MONGO_DB_NAME" default:"printshop"`
	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	SessionIdleTTL    time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"file:printshop.db?_pragma=busy_timeout(5000)"`

	KafkaBrokers []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string        `envconfig:"KAFKA_TOPIC" default:"printshop-orders"`
	OutboxTick   time.Duration `envconfig:"OUTBOX_TICK" default:"1s"`

	LoginDelay    time.Duration `envconfig:"LOGIN_DELAY" default:"500ms"`
	CheckoutDelay time.Duration `envconfig:"CHECKOUT_DELAY" default:"1500ms"`
	ContactDelay  time.Duration `envconfig:"CONTACT_DELAY" default:"1s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from environment variables and checks it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionRepository {
	case SessionRepositoryMemory, SessionRepositoryMongo:
	default:
		return fmt.Errorf("invalid SESSION_REPOSITORY %q: want %q or %q",
			c.SessionRepository, SessionRepositoryMemory, SessionRepositoryMongo)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want sqlite or postgres", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be positive")
	}
	if c.OutboxTick <= 0 {
		return fmt.Errorf("OUTBOX_TICK must be positive")
	}
	return nil
}

// KafkaEnabled reports whether order events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
