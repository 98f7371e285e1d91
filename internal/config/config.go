package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EventBusKafka = "kafka"
	EventBusNATS  = "nats"
	EventBusNone  = "none"
)

type Config struct {
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	NatsURL        string
	EventBus       string
	JaegerEndpoint string
	Port           string
	GRPCPort       string
	JWTSecret      string

	OrderIDPrefix           string
	PaymentSuccessRate      float64
	PaymentAllowRetryFailed bool
	CatalogCacheTTL         time.Duration
	SeedCatalog             bool
	PageSize                int
}

// Load reads the process environment. A .env file in the working directory,
// when present, is loaded first and never overrides variables already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		NatsURL:        os.Getenv("NATS_URL"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		Port:           getEnv("PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "9090"),

		OrderIDPrefix:           getEnv("ORDER_ID_PREFIX", "GS"),
		PaymentSuccessRate:      getEnvFloat("PAYMENT_SUCCESS_RATE", 0.8),
		PaymentAllowRetryFailed: getEnvBool("PAYMENT_ALLOW_RETRY_FAILED", true),
		CatalogCacheTTL:         getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		SeedCatalog:             getEnvBool("SEED_CATALOG", true),
		PageSize:                getEnvInt("PAGE_SIZE", 10),
	}
	cfg.EventBus = resolveEventBus(os.Getenv("EVENT_BUS"), cfg.KafkaBrokers, cfg.NatsURL)

	if cfg.PaymentSuccessRate < 0 || cfg.PaymentSuccessRate > 1 {
		cfg.PaymentSuccessRate = 0.8
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}

	return cfg
}

func resolveEventBus(explicit, kafkaBrokers, natsURL string) string {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case EventBusKafka:
		return EventBusKafka
	case EventBusNATS:
		return EventBusNATS
	case EventBusNone:
		return EventBusNone
	}
	if kafkaBrokers != "" {
		return EventBusKafka
	}
	if natsURL != "" {
		return EventBusNATS
	}
	return EventBusNone
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
