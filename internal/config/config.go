package config

import (
	"os"
	"strconv"
	"time"

	"github.com/novamart/shopbus/rabbitmq"
)

// Config carries the runtime settings shared by the services. Every field
// has a default suitable for local development and can be overridden with
// an environment variable.
type Config struct {
	Broker rabbitmq.Config

	ConfirmTimeout time.Duration

	MySQLDSN  string
	RedisAddr string

	StripeAPIKey string

	HTTPPort string
}

func Load() *Config {
	return &Config{
		Broker: rabbitmq.Config{
			Host:            getEnv("RABBITMQ_HOST", "localhost"),
			Port:            parseInt(getEnv("RABBITMQ_PORT", "5672"), 5672),
			User:            getEnv("RABBITMQ_USER", "guest"),
			Password:        getEnv("RABBITMQ_PASSWORD", "guest"),
			ConnectAttempts: parseInt(getEnv("RABBITMQ_CONNECT_ATTEMPTS", "5"), 5),
			ConnectDelay:    parseDuration(getEnv("RABBITMQ_CONNECT_DELAY", "5s"), 5*time.Second),
		},
		ConfirmTimeout: parseDuration(getEnv("PUBLISH_CONFIRM_TIMEOUT", "5s"), 5*time.Second),
		MySQLDSN:       getEnv("MYSQL_DSN", "shopbus:shopbus@tcp(localhost:3306)/shopbus?parseTime=true"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		StripeAPIKey:   getEnv("STRIPE_API_KEY", ""),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
