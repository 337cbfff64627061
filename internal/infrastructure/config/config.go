package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Environment ("production" enables the fail-closed key policy)
	Environment string

	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// OAuth/OIDC configuration
	Issuer          string
	Audience        string
	PrivateKeyPEM   string
	AccessDuration  time.Duration
	IDDuration      time.Duration
	RefreshDuration time.Duration
	CodeDuration    time.Duration

	// Price feed configuration
	PriceFeedURL      string
	PriceFeedInterval time.Duration

	// Server configuration
	ServerPort int
}

// IsProduction reports whether the fail-closed production policy applies
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	accessDuration, err := time.ParseDuration(getEnv("OAUTH_ACCESS_TOKEN_DURATION", "1h"))
	if err != nil {
		return nil, err
	}

	idDuration, err := time.ParseDuration(getEnv("OAUTH_ID_TOKEN_DURATION", "15m"))
	if err != nil {
		return nil, err
	}

	refreshDuration, err := time.ParseDuration(getEnv("OAUTH_REFRESH_TOKEN_DURATION", "9480h"))
	if err != nil {
		return nil, err
	}

	codeDuration, err := time.ParseDuration(getEnv("OAUTH_CODE_DURATION", "10m"))
	if err != nil {
		return nil, err
	}

	feedInterval, err := time.ParseDuration(getEnv("PRICE_FEED_INTERVAL", "15m"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "owner"),
		DBPassword: getEnv("DB_PASSWORD", "ownerTest"),
		DBName:     getEnv("DB_NAME", "metals"),

		Issuer:          getEnv("OAUTH_ISSUER", "http://localhost:8080"),
		Audience:        getEnv("OAUTH_AUDIENCE", "metals-portfolio-api"),
		PrivateKeyPEM:   getEnv("OAUTH_PRIVATE_KEY", ""),
		AccessDuration:  accessDuration,
		IDDuration:      idDuration,
		RefreshDuration: refreshDuration,
		CodeDuration:    codeDuration,

		PriceFeedURL:      getEnv("PRICE_FEED_URL", ""),
		PriceFeedInterval: feedInterval,

		ServerPort: getEnvInt("PORT", 8080),
	}, nil
}

// NewConfig creates a configuration with default values, used by tests
func NewConfig() *Config {
	return &Config{
		Environment:       "development",
		DBPort:            5432,
		Issuer:            "http://localhost:8080",
		Audience:          "metals-portfolio-api",
		AccessDuration:    domain.DefaultAccessTokenDuration,
		IDDuration:        domain.DefaultIDTokenDuration,
		RefreshDuration:   domain.DefaultRefreshTokenDuration,
		CodeDuration:      domain.DefaultAuthorizationCodeTTL,
		PriceFeedInterval: 15 * time.Minute,
		ServerPort:        8080,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
