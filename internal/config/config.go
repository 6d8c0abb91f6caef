package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is read once at process start and passed to the components that
// need it. Nothing reads the environment after Load returns.
type Config struct {
	Env         string `env:"APP_ENV" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	Storage     string `env:"STORAGE_DRIVER" env-default:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SeedCatalog bool   `env:"SEED_CATALOG" env-default:"true"`

	HTTP  HTTP
	JWT   JWT
	Kafka Kafka
	Auth  AuthLimiter
}

type HTTP struct {
	Addr         string        `env:"HTTP_ADDR" env-default:":5000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	CORSOrigins  string        `env:"CORS_ORIGINS" env-default:"*"`
}

type JWT struct {
	Secret string        `env:"JWT_SECRET" env-default:"fallback-secret-key"`
	TTL    time.Duration `env:"JWT_EXPIRES_IN" env-default:"168h"`
}

// Kafka publishing is disabled when Brokers is empty.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_ORDER_TOPIC" env-default:"orders"`
}

type AuthLimiter struct {
	Max    int           `env:"AUTH_RATE_LIMIT" env-default:"20"`
	Window time.Duration `env:"AUTH_RATE_WINDOW" env-default:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.Storage)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
