// Package config maps environment variables onto typed configuration so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects where participant and guidance documents live.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// PostgresConfig covers both the participant document store and the guidance
// task store; they share one database.
type PostgresConfig struct {
	URL string
}

// RedisConfig tunes the go-redis client pool.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig points the audit trail at a broker. Empty brokers keep the
// audit trail in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SweepConfig controls the overdue-obligation sweep loop.
type SweepConfig struct {
	Interval time.Duration
}

// Config is everything main needs to wire the service.
type Config struct {
	Server   Server
	Backend  StoreBackend
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sweep    SweepConfig
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:          envOr("REENTRY_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Backend: StoreBackend(envOr("REENTRY_STORE", string(StoreMemory))),
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "reentry.audit.events"),
		},
		Sweep: SweepConfig{
			Interval: envDuration("SWEEP_INTERVAL", time.Hour),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
