package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds process-wide settings resolved once at startup and passed
// explicitly to the components that need them.
type Config struct {
	Environment     string
	HTTPAddr        string
	DatabaseURL     string
	DBMaxConns      int32
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	BcryptCost      int
	LogLevel        string
	LogFormat       string
	CORSOrigins     []string
	AuthRateRPS     float64
	AuthRateBurst   int
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxConns:      int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		JWTIssuer:       getEnv("JWT_ISSUER", "tradedesk"),
		TokenTTL:        time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 120)) * time.Minute,
		BcryptCost:      getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AuthRateRPS:     getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateBurst:   getEnvAsInt("AUTH_RATE_LIMIT_BURST", 10),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("config: DB_MAX_CONNS must be positive")
	}
	if c.AuthRateRPS <= 0 || c.AuthRateBurst <= 0 {
		return fmt.Errorf("config: auth rate limit must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
