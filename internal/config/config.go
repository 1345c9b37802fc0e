package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	TickRate   int
	TuningFile string

	// Sessions
	SessionIdleSeconds     int
	IdleWorkerPollInterval int
	SnapshotTTLMinutes     int

	// Security
	JWTSecret             string
	SessionTokenTTLMinute int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database (empty disables the shot journal)
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis (empty disables snapshots and cross-instance events)
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation
		TickRate:   getEnvInt("TICK_RATE", 60),
		TuningFile: getEnv("TUNING_FILE", ""),

		// Sessions
		SessionIdleSeconds:     getEnvInt("SESSION_IDLE_SECONDS", 600),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 15),
		SnapshotTTLMinutes:     getEnvInt("SNAPSHOT_TTL_MINUTES", 60),

		// Security
		JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTokenTTLMinute: getEnvInt("SESSION_TOKEN_TTL_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
