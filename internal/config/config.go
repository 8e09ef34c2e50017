// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront binaries
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Security   SecurityConfig
	Tracking   TrackingConfig
	Storefront StorefrontConfig
	Logging    LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// DatabaseConfig contains the optional delivery-log database configuration
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains admin token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	RateLimitBurst     int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// TrackingConfig contains the attribution service settings.
// PixelID and AccessToken are server-side secrets; PublicPixelID is the
// browser-exposed identifier of the client channel.
type TrackingConfig struct {
	PixelID            string
	AccessToken        string
	TestEventCode      string
	GraphBaseURL       string
	GraphAPIVersion    string
	UpstreamTimeout    time.Duration
	DefaultCurrency    string
	PhoneCountryCode   string
	PublicPixelID      string
	PixelEndpoint      string
	RelayURL           string
	RelayTimeout       time.Duration
	GateRelayOnConsent bool
}

// StorefrontConfig contains the browsing-session settings used by the CLI
type StorefrontConfig struct {
	StorageDriver     string
	DataPath          string
	SessionID         string
	CatalogPath       string
	SiteURL           string
	UserAgent         string
	DeliveryFee       float64
	WhatsAppNumber    string
	CheckoutGateDelay time.Duration
	FlushTimeout      time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Elegant Store"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxBodyBytes: getEnvAsInt64("SERVER_MAX_BODY_BYTES", 1<<20),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront"),
			User:         getEnv("DB_USER", "storefront"),
			Password:     getEnv("DB_PASSWORD", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me-storefront-admin-signing-key"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRE", 12*time.Hour),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Tracking: TrackingConfig{
			PixelID:            getEnv("FB_PIXEL_ID", ""),
			AccessToken:        getEnv("FB_ACCESS_TOKEN", ""),
			TestEventCode:      getEnv("FB_TEST_EVENT_CODE", ""),
			GraphBaseURL:       getEnv("FB_GRAPH_BASE_URL", "https://graph.facebook.com"),
			GraphAPIVersion:    getEnv("FB_GRAPH_API_VERSION", "v17.0"),
			UpstreamTimeout:    getEnvAsDuration("FB_UPSTREAM_TIMEOUT", 10*time.Second),
			DefaultCurrency:    getEnv("TRACKING_DEFAULT_CURRENCY", "AED"),
			PhoneCountryCode:   getEnv("TRACKING_PHONE_COUNTRY_CODE", "971"),
			PublicPixelID:      getEnv("PUBLIC_FB_PIXEL_ID", ""),
			PixelEndpoint:      getEnv("FB_PIXEL_ENDPOINT", "https://www.facebook.com/tr"),
			RelayURL:           getEnv("TRACKING_RELAY_URL", "http://localhost:8080/api/fb-capi"),
			RelayTimeout:       getEnvAsDuration("TRACKING_RELAY_TIMEOUT", 10*time.Second),
			GateRelayOnConsent: getEnvAsBool("TRACKING_GATE_RELAY_ON_CONSENT", false),
		},
		Storefront: StorefrontConfig{
			StorageDriver:     getEnv("STOREFRONT_STORAGE", "sqlite"),
			DataPath:          getEnv("STOREFRONT_DATA_PATH", "storefront.db"),
			SessionID:         getEnv("STOREFRONT_SESSION_ID", "default"),
			CatalogPath:       getEnv("STOREFRONT_CATALOG_PATH", ""),
			SiteURL:           getEnv("STOREFRONT_SITE_URL", "http://localhost:3000"),
			UserAgent:         getEnv("STOREFRONT_USER_AGENT", "ElegantStore-CLI/1.0"),
			DeliveryFee:       getEnvAsFloat("STOREFRONT_DELIVERY_FEE", 50),
			WhatsAppNumber:    getEnv("STOREFRONT_WHATSAPP_NUMBER", "971504020220"),
			CheckoutGateDelay: getEnvAsDuration("STOREFRONT_CHECKOUT_GATE_DELAY", 2*time.Second),
			FlushTimeout:      getEnvAsDuration("STOREFRONT_FLUSH_TIMEOUT", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration. The attribution secrets are not
// checked here: the relay endpoint reports them missing per request.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DB_ENABLED is set")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DB_ENABLED is set")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required when DB_ENABLED is set")
		}
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}

	if len(c.Tracking.DefaultCurrency) != 3 {
		return fmt.Errorf("TRACKING_DEFAULT_CURRENCY must be an ISO 4217 code, got %q", c.Tracking.DefaultCurrency)
	}

	switch c.Storefront.StorageDriver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("STOREFRONT_STORAGE must be one of sqlite, redis, memory, got %q", c.Storefront.StorageDriver)
	}

	if c.Storefront.DeliveryFee < 0 {
		return fmt.Errorf("STOREFRONT_DELIVERY_FEE cannot be negative")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
