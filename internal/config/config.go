package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

const minJWTSecretLen = 32

// Config holds all configuration for the application.
type Config struct {
	Port      string
	Storage   StorageConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig

	// BcryptCost is the work factor for password hashes.
	BcryptCost int
	LogLevel   slog.Level
}

// StorageConfig selects and locates the storage backend.
type StorageConfig struct {
	Driver        string
	SQLitePath    string
	MongoURL      string
	MongoDatabase string
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig throttles register and login per client address.
// PerMinute <= 0 disables throttling.
type RateLimitConfig struct {
	PerMinute float64
	Burst     int
}

// Load reads the configuration from the environment. Variables are first
// loaded from envFile when given, else from ./.env if it exists. Variables
// already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
			SQLitePath:    getEnv("DATABASE_PATH", "eventhub.db"),
			MongoURL:      os.Getenv("MONGODB_URL"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "eventhub"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	var err error
	cfg.JWT.TTL, err = getDurationEnv("JWT_TTL", 100*time.Hour)
	collect(err)
	cfg.BcryptCost, err = getIntEnv("BCRYPT_COST", 12)
	collect(err)
	cfg.RateLimit.PerMinute, err = getFloatEnv("AUTH_RATE_LIMIT", 10)
	collect(err)
	cfg.RateLimit.Burst, err = getIntEnv("AUTH_RATE_BURST", 5)
	collect(err)
	collect(cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWT.Secret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Storage.MongoURL == "" {
			errs = append(errs, errors.New("MONGODB_URL is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.RateLimit.PerMinute > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("AUTH_RATE_BURST must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getStringSliceEnv(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
