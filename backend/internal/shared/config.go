// ============================================================================
// backend/internal/shared/config.go
// Server configuration and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coursehub/backend/internal/logger"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// Store drivers understood by the server.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// ServiceConfig holds the configuration for the API server
type ServiceConfig struct {
	ServiceName string
	HTTPPort    string
	GRPCPort    string // health endpoint
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	StoreDriver string // mongo, memory

	MongoDB  MongoConfig
	Security SecurityConfig
	CORS     CORSConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret          string
	JWTIssuer          string
	JWTExpirationHours int
	BCryptCost         int // BCrypt hashing cost (10-12 recommended)
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// RedisConfig configures the optional notification broadcaster.
// An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// HTTPConfig holds HTTP server timeouts
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from a .env file. A missing file is
// reported but the process environment is still usable.
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		zap.S().Warnw("env file not found, using system environment", "file", envFile)
		return err
	}

	zap.S().Infow("loaded environment", "file", envFile)
	return nil
}

// LoadServiceConfig reads the server configuration from the environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		ServiceName: serviceName,
		HTTPPort:    GetEnv("HTTP_PORT", "8080"),
		GRPCPort:    GetEnv("GRPC_PORT", "50051"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(GetEnv("STORE_DRIVER", StoreDriverMongo)),
	}

	config.MongoDB = MongoConfig{
		URI:            GetEnv("MONGO_URI", ""),
		Database:       GetEnv("MONGO_DB_NAME", "coursehub"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 5)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTIssuer:          GetEnv("JWT_ISSUER", "coursehub"),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		BCryptCost:         GetIntEnv("BCRYPT_COST", 10),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	config.Redis = RedisConfig{
		Addr:     GetEnv("REDIS_ADDR", ""),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       GetIntEnv("REDIS_DB", 0),
		Channel:  GetEnv("REDIS_CHANNEL", "notifications"),
	}

	config.HTTP = HTTPConfig{
		ReadTimeout:     GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
		RequestTimeout:  GetDurationEnv("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: GetDurationEnv("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if config.Security.JWTSecret == "" {
		if !config.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required")
		}
		config.Security.JWTSecret = "dev-secret-change-me"
	}

	if err := ValidateServiceConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		zap.S().Warnw("invalid integer env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		zap.S().Warnw("invalid boolean env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value
// Supports format like "30s", "5m", "1h"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		zap.S().Warnw("invalid duration env value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	switch config.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverMongo:
		if config.MongoDB.URI == "" {
			return fmt.Errorf("MONGO_URI environment variable is required")
		}
		if config.MongoDB.Database == "" {
			return fmt.Errorf("MongoDB database name is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.StoreDriver)
	}

	if config.Security.BCryptCost < 4 || config.Security.BCryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *ServiceConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig logs the configuration with secrets left out
func PrintConfig(log *logger.Logger, config *ServiceConfig) {
	log.Info("service configuration",
		"service", config.ServiceName,
		"http_port", config.HTTPPort,
		"grpc_port", config.GRPCPort,
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"store_driver", config.StoreDriver,
	)
	if config.StoreDriver == StoreDriverMongo {
		log.Info("mongodb configuration",
			"database", config.MongoDB.Database,
			"max_pool_size", config.MongoDB.MaxPoolSize,
			"min_pool_size", config.MongoDB.MinPoolSize,
		)
	}
	log.Info("security configuration",
		"jwt_issuer", config.Security.JWTIssuer,
		"jwt_expiration_hours", config.Security.JWTExpirationHours,
		"bcrypt_cost", config.Security.BCryptCost,
	)
	log.Info("cors configuration",
		"allowed_origins", config.CORS.AllowedOrigins,
		"allow_credentials", config.CORS.AllowCredentials,
	)
	log.Info("redis configuration", "enabled", config.Redis.Addr != "", "channel", config.Redis.Channel)
}
