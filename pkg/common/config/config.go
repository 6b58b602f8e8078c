package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	DatabaseURI    string
	ConnectTimeout time.Duration
	RetryInterval  time.Duration
	PingInterval   time.Duration

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	// Kafka
	KafkaBrokers        []string
	RecordEventsTopic   string
	RecordEventsEnabled bool

	// Validation
	RecordPolicyFile string

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		// No default: a missing URI is the one fatal misconfiguration.
		DatabaseURI:    getEnv("DATABASE_URI", ""),
		ConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		RetryInterval:  getDuration("DB_RETRY_INTERVAL", 5*time.Second),
		PingInterval:   getDuration("DB_PING_INTERVAL", 15*time.Second),

		JWTSecret: getEnv("JWT_SECRET", "registry-dev-secret"),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		StatsCacheTTL: getDuration("STATS_CACHE_TTL", 30*time.Second),

		KafkaBrokers:        getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		RecordEventsTopic:   getEnv("RECORD_EVENTS_TOPIC", "registry.record-events"),
		RecordEventsEnabled: getBoolEnv("RECORD_EVENTS_ENABLED", false),

		RecordPolicyFile: getEnv("RECORD_POLICY_FILE", ""),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
