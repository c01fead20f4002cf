package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds Postgres connection configuration, used when
// STORAGE_DRIVER=postgres.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis connection configuration, used when
// STORAGE_DRIVER=redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects and configures the backing storage driver.
type StorageConfig struct {
	Driver   string // "postgres", "redis", or "memstore"
	Database DatabaseConfig
	Redis    RedisConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// WorkerConfig holds background worker configuration.
type WorkerConfig struct {
	ExpiryInterval     time.Duration
	StatsInterval      time.Duration
	StatsProjects      []string
	IdempotencyCleanup time.Duration
}

// IdempotencyConfig holds idempotency replay-key configuration.
type IdempotencyConfig struct {
	TTL time.Duration
}

// PartitionConfig configures the proxy's partition registry seed, for
// deployments that want a fixed partition set instead of operator-driven
// registration via POST /v1/partitions.
type PartitionConfig struct {
	SeedName   string
	SeedWeight int
	SeedNodes  []string
}

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Log         LogConfig
	Worker      WorkerConfig
	Idempotency IdempotencyConfig
	Partition   PartitionConfig
}

// Load reads configuration from environment variables, defaulting to a
// single-node postgres-backed deployment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "postgres"),
			Database: DatabaseConfig{
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnv("DB_PORT", "5432"),
				User:     getEnv("DB_USER", "queuebroker"),
				Password: getEnv("DB_PASSWORD", "queuebroker"),
				DBName:   getEnv("DB_NAME", "queuebroker"),
				SSLMode:  getEnv("DB_SSL_MODE", "disable"),
				MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
				MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
			},
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Worker: WorkerConfig{
			ExpiryInterval:     getEnvAsDuration("EXPIRY_WORKER_INTERVAL", 30*time.Second),
			StatsInterval:      getEnvAsDuration("STATS_WORKER_INTERVAL", time.Minute),
			StatsProjects:      getEnvAsList("STATS_WORKER_PROJECTS", nil),
			IdempotencyCleanup: getEnvAsDuration("IDEMPOTENCY_CLEANUP_INTERVAL", time.Hour),
		},
		Idempotency: IdempotencyConfig{
			TTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Partition: PartitionConfig{
			SeedName:   getEnv("PARTITION_SEED_NAME", ""),
			SeedWeight: getEnvAsInt("PARTITION_SEED_WEIGHT", 1),
			SeedNodes:  getEnvAsList("PARTITION_SEED_NODES", nil),
		},
	}

	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.Database.User == "" || cfg.Storage.Database.DBName == "" {
			return nil, fmt.Errorf("DB_USER and DB_NAME are required for STORAGE_DRIVER=postgres")
		}
	case "redis":
		if cfg.Storage.Redis.Addr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for STORAGE_DRIVER=redis")
		}
	case "memstore":
		// no external dependency to validate
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
