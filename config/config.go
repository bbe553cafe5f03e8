package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"casino/database"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Stake limits applied to every bet and sub-bet
	MinStake decimal.Decimal
	MaxStake decimal.Decimal

	// Collaborator settlements (/v1/settlements)
	SettlementServiceToken  string          // shared secret; empty disables the route
	SettlementMaxMultiplier decimal.Decimal // payout cap as a multiple of stake

	// Win-rate policy and game tables
	PolicyPath           string
	PolicyReloadInterval time.Duration

	// Crash configuration
	CrashSessionTTL     time.Duration
	CrashReaperSchedule string // robfig/cron spec, e.g. "@every 30s"

	// NATS configuration
	NATSEnabled      bool
	NATSServers      string        // NATS server addresses (comma-separated)
	NATSStreamMaxAge time.Duration // event retention in the JetStream stream

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// Stakes
		MinStake: decimal.RequireFromString("1"),
		MaxStake: decimal.RequireFromString("100000"),

		// Settlements
		SettlementServiceToken:  os.Getenv("SETTLEMENT_SERVICE_TOKEN"),
		SettlementMaxMultiplier: decimal.NewFromInt(100),

		// Policy
		PolicyPath:           getEnvWithDefault("POLICY_PATH", "config/policy.yaml"),
		PolicyReloadInterval: 10 * time.Second,

		// Crash
		CrashSessionTTL:     5 * time.Minute,
		CrashReaperSchedule: getEnvWithDefault("CRASH_REAPER_SCHEDULE", "@every 30s"),

		// NATS
		NATSEnabled:      getEnvWithDefault("NATS_ENABLED", "true") == "true",
		NATSServers:      getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		NATSStreamMaxAge: 30 * 24 * time.Hour,

		// OpenTelemetry
		OTelEnabled:              getEnvWithDefault("OTEL_ENABLED", "false") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "casino-engine"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 15000,

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("MIN_STAKE"); v != "" {
		stake, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MIN_STAKE: %w", err)
		}
		config.MinStake = stake
	}
	if v := os.Getenv("MAX_STAKE"); v != "" {
		stake, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_STAKE: %w", err)
		}
		config.MaxStake = stake
	}
	if v := os.Getenv("SETTLEMENT_MAX_MULTIPLIER"); v != "" {
		multiplier, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SETTLEMENT_MAX_MULTIPLIER: %w", err)
		}
		config.SettlementMaxMultiplier = multiplier
	}
	if v := os.Getenv("CRASH_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			config.CrashSessionTTL = ttl
		}
	}
	if v := os.Getenv("POLICY_RELOAD_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			config.PolicyReloadInterval = interval
		}
	}
	if v := os.Getenv("NATS_STREAM_MAX_AGE"); v != "" {
		if age, err := time.ParseDuration(v); err == nil {
			config.NATSStreamMaxAge = age
		}
	}
	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); v != "" {
		if millis, err := strconv.Atoi(v); err == nil {
			config.OTelExportIntervalMillis = millis
		}
	}
	// Parse CORS origins
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				config.CORSAllowedOrigins = append(config.CORSAllowedOrigins, origin)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if !config.MinStake.IsPositive() || config.MaxStake.LessThan(config.MinStake) {
		return nil, fmt.Errorf("invalid stake limits: min %s, max %s", config.MinStake, config.MaxStake)
	}
	if !config.SettlementMaxMultiplier.IsPositive() {
		return nil, fmt.Errorf("SETTLEMENT_MAX_MULTIPLIER must be positive")
	}
	if config.CrashSessionTTL <= 0 {
		return nil, fmt.Errorf("CRASH_SESSION_TTL must be positive")
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		HTTPAddr:                ":0",
		MinStake:                decimal.RequireFromString("1"),
		MaxStake:                decimal.RequireFromString("100000"),
		SettlementMaxMultiplier: decimal.NewFromInt(100),
		PolicyPath:              "config/policy.yaml",
		PolicyReloadInterval:    time.Second,
		CrashSessionTTL:         5 * time.Minute,
		CrashReaperSchedule:     "@every 30s",
		OTelExporterType:        "none",
		LogLevel:                "debug",
		LogFormat:               "text",
	}
}
