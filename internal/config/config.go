package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Clock    ClockConfig
	Jobs     JobsConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains the JSON API listener settings.
type HTTPConfig struct {
	Address      string // e.g. ":8080"
	SecureCookie bool   // mark the session cookie Secure (HTTPS deployments)
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret              string        // HS256 secret for kiosk tokens
	SessionTTL             time.Duration // lifetime of a login session
	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// RedisConfig enables the session cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClockConfig fixes the zone work dates are computed in.
type ClockConfig struct {
	OffsetHours int // hours east of UTC
}

// JobsConfig contains background job settings.
type JobsConfig struct {
	SessionSweepInterval time.Duration // 0 disables the sweep
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load("dev-secret-change-me")
}

func load(defaultSecret string) (*Config, error) {
	ttl, err := getEnvDuration("SESSION_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	sweep, err := getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	offset, err := getEnvInt("TZ_OFFSET_HOURS", 8)
	if err != nil {
		return nil, err
	}
	if offset < -12 || offset > 14 {
		return nil, fmt.Errorf("TZ_OFFSET_HOURS out of range: %d", offset)
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	secureCookie, err := strconv.ParseBool(getEnv("HTTP_SECURE_COOKIE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_SECURE_COOKIE: %w", err)
	}
	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "timeclock.db"),
		},
		HTTP: HTTPConfig{
			Address:      getEnv("HTTP_ADDRESS", ":8080"),
			SecureCookie: secureCookie,
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("JWT_SECRET", defaultSecret),
			SessionTTL:             ttl,
			BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
			BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Clock: ClockConfig{
			OffsetHours: offset,
		},
		Jobs: JobsConfig{
			SessionSweepInterval: sweep,
		},
	}, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvDuration accepts Go durations ("90m") or plain seconds ("3600").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return time.Duration(seconds) * time.Second, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	redis := "disabled"
	if c.Redis.Addr != "" {
		redis = c.Redis.Addr
	}
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Redis: %s, TZ: UTC%+d, SessionTTL: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, redis, c.Clock.OffsetHours, c.Auth.SessionTTL)
}
