package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string // "production" or "development"

	// Credential verification.
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// Backing stores. Empty values select the in-memory implementations.
	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	// Admin surface.
	AdminToken string

	// Audit pipeline.
	AuditQueueSize int
}

// RedisConfig holds tuning knobs for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the process runs with production hardening
// (stack traces suppressed in error responses).
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Redis derives a RedisConfig with defaults applied.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("KEYSTONE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("KEYSTONE_ENV")
	if env == "" {
		env = "development"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "keystone"
	}
	jwtAudience := os.Getenv("JWT_AUDIENCE")
	if jwtAudience == "" {
		jwtAudience = "keystone-api"
	}

	queueSize := 1024
	if raw := os.Getenv("AUDIT_QUEUE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			queueSize = n
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "keystone.audit.events"
	}

	return Server{
		Addr:           addr,
		Environment:    env,
		JWTSigningKey:  jwtSigningKey,
		JWTIssuer:      jwtIssuer,
		JWTAudience:    jwtAudience,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   brokers,
		KafkaTopic:     topic,
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		AuditQueueSize: queueSize,
	}
}
