package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Booking    BookingConfig
	Reconciler ReconcilerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PostgresConfig holds seat-store connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds lock-store connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// BookingConfig holds the booking pipeline knobs.
type BookingConfig struct {
	// Strategy selects the authoritative commit discipline:
	// naive | pessimistic | optimistic. Unknown values fall back to
	// optimistic at composition time.
	Strategy string

	// LockTTL is the key-level TTL attached to per-event claim hashes and
	// admission counters (event duration + grace).
	LockTTL time.Duration

	// AdmissionCacheEnabled gates the sold-out fast path. The cache is
	// advisory; disabling it only removes the early rejection.
	AdmissionCacheEnabled bool

	// OpTimeout is the per-call deadline for seat-store and lock-store
	// operations issued by the coordinator.
	OpTimeout time.Duration
}

// ReconcilerConfig holds the ghost-claim sweeper settings.
type ReconcilerConfig struct {
	// SweepInterval is how often the reconciler runs.
	SweepInterval time.Duration

	// StaleThreshold is the minimum claim age before a lock-store entry is
	// considered abandoned. Must exceed worst-case commit + compensation
	// latency.
	StaleThreshold time.Duration
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "seatgrid")
	viper.SetDefault("POSTGRES_PASSWORD", "seatgrid_secret")
	viper.SetDefault("POSTGRES_DB", "seatgrid_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("BOOKING_STRATEGY", "optimistic")
	viper.SetDefault("BOOKING_OP_TIMEOUT", "5s")
	viper.SetDefault("LOCKSTORE_TTL_HOURS", 24)
	viper.SetDefault("ADMISSION_CACHE_ENABLED", true)

	viper.SetDefault("RECONCILER_SWEEP_INTERVAL", "60s")
	viper.SetDefault("RECONCILER_STALE_THRESHOLD", "30s")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Booking pipeline ────────────────────────────────
	cfg.Booking = BookingConfig{
		Strategy:              viper.GetString("BOOKING_STRATEGY"),
		LockTTL:               time.Duration(viper.GetInt("LOCKSTORE_TTL_HOURS")) * time.Hour,
		AdmissionCacheEnabled: viper.GetBool("ADMISSION_CACHE_ENABLED"),
		OpTimeout:             viper.GetDuration("BOOKING_OP_TIMEOUT"),
	}

	// ── Reconciler ──────────────────────────────────────
	cfg.Reconciler = ReconcilerConfig{
		SweepInterval:  viper.GetDuration("RECONCILER_SWEEP_INTERVAL"),
		StaleThreshold: viper.GetDuration("RECONCILER_STALE_THRESHOLD"),
	}

	return cfg, nil
}
