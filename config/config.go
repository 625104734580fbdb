package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"regionbank/database"
	"regionbank/models"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Bank defaults
	BankDefaultsFile string            // Optional YAML file with global bank defaults
	BankDefaults     models.BankConfig // Resolved global defaults

	// Payout scheduling
	PayoutTimezone *time.Location

	// Async dispatch of persistence writes and payments
	DispatchWorkers   int
	DispatchQueueSize int

	// Logging
	LogLevel string

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

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// SetForTesting replaces the global configuration
func SetForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		NATSServers:       "nats://localhost:4222",
		BankDefaults:      DefaultBankConfig(),
		PayoutTimezone:    time.UTC,
		DispatchWorkers:   1,
		DispatchQueueSize: 16,
		LogLevel:          "debug",
		Environment:       "test",
	}
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// ConfigureLogging applies the log level and formatter for the environment
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A .env file is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Bank defaults
		BankDefaultsFile: os.Getenv("BANK_DEFAULTS_FILE"),

		// Dispatch defaults
		DispatchWorkers:   4,
		DispatchQueueSize: 256,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if workers := os.Getenv("DISPATCH_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed > 0 {
			config.DispatchWorkers = parsed
		}
	}
	if size := os.Getenv("DISPATCH_QUEUE_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.DispatchQueueSize = parsed
		}
	}

	loc, err := time.LoadLocation(getEnvWithDefault("PAYOUT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYOUT_TIMEZONE: %w", err)
	}
	config.PayoutTimezone = loc

	config.BankDefaults = DefaultBankConfig()
	if config.BankDefaultsFile != "" {
		defaults, err := LoadBankDefaults(config.BankDefaultsFile)
		if err != nil {
			return nil, err
		}
		config.BankDefaults = defaults
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
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
