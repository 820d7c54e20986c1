package global

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetDefaultTimer bounds a storage call started outside of a request.
func GetDefaultTimer() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

const (
	CartBackendMemory = "memory"
	CartBackendRedis  = "redis"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	RedisAddress  string
	RedisPassword string

	CartBackend     string
	CartTTL         time.Duration
	ProductCacheTTL time.Duration

	KafkaBrokers []string
	OrdersTopic  string

	StrictPricing  bool
	Currency       currency.Unit
	RequestTimeout time.Duration
	CORSOrigins    []string
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads the process environment. Call godotenv.Load first if a
// .env file should take part.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:     GetEnvOrDefault("PORT", "5000"),
		Env:      GetEnvOrDefault("ENV", "development"),
		LogLevel: GetEnvOrDefault("LOG_LEVEL", "info"),

		MongoURI:          GetEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017/"),
		MongoDatabase:     GetEnvOrDefault("MONGODB_DATABASE", "storefront"),
		MongoTransactions: GetEnvBool("MONGODB_TRANSACTIONS", true),

		RedisAddress:  GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),

		CartBackend:     strings.ToLower(GetEnvOrDefault("CART_BACKEND", CartBackendMemory)),
		CartTTL:         GetEnvDuration("CART_TTL", 24*time.Hour),
		ProductCacheTTL: GetEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),

		KafkaBrokers: GetEnvList("KAFKA_BROKERS", nil),
		OrdersTopic:  GetEnvOrDefault("ORDERS_TOPIC", "orders.completed"),

		StrictPricing:  GetEnvBool("STRICT_PRICING", false),
		RequestTimeout: GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSOrigins:    GetEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	switch cfg.CartBackend {
	case CartBackendMemory, CartBackendRedis:
	default:
		return Config{}, fmt.Errorf("unsupported CART_BACKEND %q", cfg.CartBackend)
	}

	unit, err := currency.ParseISO(strings.ToUpper(GetEnvOrDefault("STORE_CURRENCY", "USD")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STORE_CURRENCY: %w", err)
	}
	cfg.Currency = unit

	return cfg, nil
}
