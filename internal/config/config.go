package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the typed runtime configuration assembled from the environment.
// Optional integrations (Redis, Kafka, RabbitMQ, OpenRouteService) are
// disabled when their address/key is empty.
type Config struct {
	Port string

	DBDriver    string
	DatabaseURL string
	DBPath      string
	SeedPath    string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBroker string
	KafkaTopic  string

	RabbitMQURL string
	NotifyQueue string

	ORSAPIKey string

	CORSOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string

	CompanyPrefix string
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the process environment. Callers are expected to have loaded
// any .env file beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:          Get("PORT", "8080"),
		DBDriver:      strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBPath:        Get("DB_PATH", "data/app.db"),
		SeedPath:      Get("SEED_PATH", "data/seeds/seed.json"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    Get("KAFKA_TOPIC", "shipment-events"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		NotifyQueue:   Get("NOTIFY_QUEUE", "notifications"),
		ORSAPIKey:     os.Getenv("ORS_API_KEY"),
		LogLevel:      Get("LOG_LEVEL", "info"),
		LogFormat:     Get("LOG_FORMAT", "json"),
		CompanyPrefix: strings.ToUpper(Get("COMPANY_PREFIX", "CTC")),
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(Get("JWT_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("load config: JWT_TTL: %w", err)
	}
	if cfg.RedisDB, err = strconv.Atoi(Get("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("load config: REDIS_DB: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(Get("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return Config{}, fmt.Errorf("load config: RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(Get("RATE_LIMIT_BURST", "10")); err != nil {
		return Config{}, fmt.Errorf("load config: RATE_LIMIT_BURST: %w", err)
	}

	for _, o := range strings.Split(Get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "pgx":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the pgx driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit values must be positive")
	}

	return nil
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "pgx" {
		return c.DatabaseURL
	}
	return c.DBPath
}
