package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"lottery/database"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Settlement engine configuration
	ProgramID       solana.PublicKey
	ValueSource     string           // "native" or "token"
	EligibilityMint solana.PublicKey // asset that proves a participant may enter
	PayoutMint      solana.PublicKey // zero when prizes are paid in native value
	ShareTable      models.ShareTable
	AssetDecimals   int // display only

	// Server configuration
	HTTPAddr    string
	MetricsAddr string

	// Discord announcements, disabled when the token is empty
	DiscordToken     string
	DiscordChannelID string

	LogLevel log.Level

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
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from the environment, reading a .env file first if present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		ValueSource:   getEnvWithDefault("VALUE_SOURCE", "native"),
		AssetDecimals: 9,

		HTTPAddr:    getEnvWithDefault("HTTP_ADDR", ":8080"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		LogLevel: log.InfoLevel,

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.ProgramID, err = parseKeyEnv("PROGRAM_ID"); err != nil {
		return nil, err
	}
	if config.EligibilityMint, err = parseKeyEnv("ELIGIBILITY_MINT"); err != nil {
		return nil, err
	}
	if config.PayoutMint, err = parseKeyEnv("PAYOUT_MINT"); err != nil {
		return nil, err
	}

	if config.ShareTable, err = models.ParseShareTable(os.Getenv("SHARE_TABLE")); err != nil {
		return nil, fmt.Errorf("invalid SHARE_TABLE: %w", err)
	}

	if decimals := os.Getenv("ASSET_DECIMALS"); decimals != "" {
		parsed, err := strconv.Atoi(decimals)
		if err != nil || parsed < 0 || parsed > 19 {
			return nil, fmt.Errorf("invalid ASSET_DECIMALS %q", decimals)
		}
		config.AssetDecimals = parsed
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		config.LogLevel = parsed
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the service cannot run without. Test environments skip the
// checks so packages can load a partial configuration.
func (c *Config) Validate() error {
	if c.Environment == "test" {
		return nil
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be blank when provided")
	}
	if c.ProgramID.IsZero() {
		return fmt.Errorf("PROGRAM_ID is required")
	}
	if c.EligibilityMint.IsZero() {
		return fmt.Errorf("ELIGIBILITY_MINT is required")
	}
	switch c.ValueSource {
	case "native":
		if !c.PayoutMint.IsZero() {
			return fmt.Errorf("PAYOUT_MINT must be empty for the native value source")
		}
	case "token":
		if c.PayoutMint.IsZero() {
			return fmt.Errorf("PAYOUT_MINT is required for the token value source")
		}
	default:
		return fmt.Errorf("VALUE_SOURCE must be native or token, got %q", c.ValueSource)
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseKeyEnv(key string) (solana.PublicKey, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return solana.PublicKey{}, nil
	}
	parsed, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:   "test",
		ValueSource:   "native",
		AssetDecimals: 9,
		LogLevel:      log.InfoLevel,
	}
}
