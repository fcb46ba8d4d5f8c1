package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all process-wide configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	ServerAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// JWTSecret signs access tokens. There is no default: a missing secret is
	// a startup failure, not a per-request one.
	JWTSecret string

	RedisAddr    string
	GeneratorURL string

	// HashWorkers bounds how many argon2 computations may run at once.
	HashWorkers int

	LogLevel string
}

// ErrMissingJWTSecret is returned when JWT_SECRET is absent from the environment.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Load reads configuration from the process environment
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingJWTSecret
	}

	hashWorkers, _ := strconv.Atoi(getEnvOrDefault("HASH_WORKERS", "4"))
	if hashWorkers <= 0 {
		hashWorkers = 4
	}

	return &Config{
		ServerAddr:   getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBHost:       getEnvOrDefault("POSTGRES_IP", "localhost"),
		DBPort:       getEnvOrDefault("POSTGRES_PORT", "5432"),
		DBUser:       getEnvOrDefault("POSTGRES_USER", "adaptmath"),
		DBPassword:   getEnvOrDefault("POSTGRES_PASSWORD", ""),
		DBName:       getEnvOrDefault("POSTGRES_DB", "adaptmath"),
		JWTSecret:    secret,
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		GeneratorURL: getEnvOrDefault("GENERATOR_URL", "http://localhost:5000"),
		HashWorkers:  hashWorkers,
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
