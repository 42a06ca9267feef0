package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN renders the pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Redis stores shared state store settings.
type Redis struct {
	Addr string
	Pass string
	DB   int
}

// RateLimit stores login gate settings. Window is the refill window for
// MaxRequests tokens; FailOpen selects the behaviour when the shared
// store is unreachable (bypass vs reject).
type RateLimit struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
	FailOpen    bool
}

// Cache stores per-family cache TTLs.
type Cache struct {
	DriversTTL     time.Duration
	VehiclesTTL    time.Duration
	AssignmentsTTL time.Duration
}

// Kafka stores assignment event producer settings. Empty brokers disable publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Config stores all service settings.
type Config struct {
	Port             int
	OperationTimeout time.Duration
	DB               DB
	Redis            Redis
	RateLimit        RateLimit
	Cache            Cache
	Kafka            Kafka
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:             DefaultPort(),
		OperationTimeout: DefaultOperationTimeout(),
		DB:               DefaultDB(),
		Redis:            DefaultRedis(),
		RateLimit:        DefaultRateLimit(),
		Cache:            DefaultCache(),
		Kafka:            DefaultKafka(),
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return nil, fmt.Errorf("invalid rate limit max requests: %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit window: %v", cfg.RateLimit.Window)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}

	envString(&cfg.DB.Host, "POSTGRES_HOST")
	envString(&cfg.DB.User, "POSTGRES_USER")
	envString(&cfg.DB.Pass, "POSTGRES_PASSWORD")
	envString(&cfg.DB.Name, "POSTGRES_DB")
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid POSTGRES_PORT %q: %w", v, err)
		}
		cfg.DB.Port = v
	}

	envString(&cfg.Redis.Addr, "REDIS_ADDR")
	envString(&cfg.Redis.Pass, "REDIS_PASSWORD")
	if err := envInt(&cfg.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	if err := envBool(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED"); err != nil {
		return err
	}
	if err := envInt(&cfg.RateLimit.MaxRequests, "RATE_LIMIT_MAX_REQUESTS"); err != nil {
		return err
	}
	if err := envSeconds(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW_SECONDS"); err != nil {
		return err
	}
	if err := envBool(&cfg.RateLimit.FailOpen, "RATE_LIMIT_FAIL_OPEN"); err != nil {
		return err
	}

	if err := envDuration(&cfg.Cache.DriversTTL, "CACHE_TTL_DRIVERS"); err != nil {
		return err
	}
	if err := envDuration(&cfg.Cache.VehiclesTTL, "CACHE_TTL_VEHICLES"); err != nil {
		return err
	}
	if err := envDuration(&cfg.Cache.AssignmentsTTL, "CACHE_TTL_ASSIGNMENTS"); err != nil {
		return err
	}

	if err := envDuration(&cfg.OperationTimeout, "OPERATION_TIMEOUT"); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		parts := strings.Split(v, ",")
		brokers := make([]string, 0, len(parts))
		for _, b := range parts {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
	envString(&cfg.Kafka.Topic, "KAFKA_ASSIGNMENT_TOPIC")

	return nil
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = n
	return nil
}

func envBool(dst *bool, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = b
	return nil
}

func envSeconds(dst *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid %s %q", name, v)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

func envDuration(dst *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid %s %q", name, v)
	}
	*dst = d
	return nil
}
