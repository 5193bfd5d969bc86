package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port        string
	Environment string
	AdminAPIKey string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	MedusaURL            string
	MedusaAPIToken       string
	MedusaPublishableKey string
	MedusaTimeout        time.Duration

	WebhookIPAllowlist []string
	RateLimitPerMinute int

	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string

	TracingEnabled bool

	OrderLookupAttempts int
	OrderLookupBackoff  time.Duration
}

var (
	instance          *Config
	instanceOnce      sync.Once
	appConfigInstance *AppConfig
)

func App() *Config {
	instanceOnce.Do(func() {
		instance = &Config{
			Validator: validator.New(validator.WithRequiredStructEnabled()),
		}
	})
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:                 GetEnv("APP_PORT", "9000"),
			Environment:          GetEnv("ENVIRONMENT", "development"),
			AdminAPIKey:          GetEnv("API_KEY", ""),
			DBDriver:             GetEnv("DB_DRIVER", "sqlite3"),
			DBPath:               GetEnv("DB_PATH", "./data/hyperswitch.db"),
			DatabaseURL:          GetEnv("DATABASE_URL", ""),
			MedusaURL:            GetEnv("MEDUSA_URL", "http://localhost:9000"),
			MedusaAPIToken:       GetEnv("MEDUSA_API_TOKEN", ""),
			MedusaPublishableKey: GetEnv("MEDUSA_PUBLISHABLE_KEY", ""),
			MedusaTimeout:        GetDurationEnv("MEDUSA_TIMEOUT", 30*time.Second),
			WebhookIPAllowlist:   GetListEnv("WEBHOOK_IP_ALLOWLIST"),
			RateLimitPerMinute:   GetIntEnv("RATE_LIMIT_PER_MINUTE", 300),
			OpenSearchURL:        GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:       GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:       GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:        GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:         GetEnv("LOGGING_LEVEL", "info"),
			TracingEnabled:       GetBoolEnv("ENABLE_TRACING", false),
			OrderLookupAttempts:  GetIntEnv("ORDER_LOOKUP_ATTEMPTS", 3),
			OrderLookupBackoff:   GetDurationEnv("ORDER_LOOKUP_BACKOFF", 2*time.Second),
		}
	}
	return appConfigInstance
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv returns the duration value of an environment variable or a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv returns the non-empty comma separated values of an environment variable
func GetListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
