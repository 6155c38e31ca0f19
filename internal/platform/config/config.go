// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "jesa/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

// MongoConfig describes the applicant document store. An empty URI selects
// the in-memory store.
type MongoConfig struct {
	URI            string
	Database       string
	Transactions   bool
	ConnectTimeout time.Duration
}

// RedisConfig configures the optional distributed rate limit backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. No brokers means audit events
// are only logged.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimitConfig bounds registration submissions per client IP.
type RateLimitConfig struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// AdminConfig guards the read-only applicant endpoints.
type AdminConfig struct {
	TokenHash string
}

// IsProduction reports whether APP_ENV is production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads .env (if present) and builds the configuration. Values already
// set in the environment win over the file.
func Load() (Server, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	num := func(key string, def int) int {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Server{
		Addr:            envString("JESA_ADDR", ":8080"),
		Environment:     envString("APP_ENV", "development"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		RequestTimeout:  dur("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGO_URI"),
			Database:       envString("MONGO_DATABASE", "jesa"),
			Transactions:   envBool("MONGO_TRANSACTIONS"),
			ConnectTimeout: dur("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     num("REDIS_POOL_SIZE", 10),
			MinIdleConns: num("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "jesa.registration.audit"),
		},
		RateLimit: RateLimitConfig{
			Disabled: envBool("RATELIMIT_DISABLED"),
			Limit:    num("RATELIMIT_LIMIT", 10),
			Window:   dur("RATELIMIT_WINDOW", time.Minute),
		},
		Admin: AdminConfig{
			TokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		},
	}

	if cfg.Mongo.Transactions && cfg.Mongo.URI == "" {
		errs = append(errs, "MONGO_TRANSACTIONS requires MONGO_URI")
	}
	if !cfg.RateLimit.Disabled && (cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0) {
		errs = append(errs, "RATELIMIT_LIMIT and RATELIMIT_WINDOW must be positive")
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envList(key string) []string {
	return platformstrings.SplitList(os.Getenv(key))
}
