package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv() {
	for _, k := range []string{"DB_PATH", "HTTP_ADDRESS", "GRPC_ADDRESS", "JWT_SECRET", "SESSION_TTL", "TZ_OFFSET_HOURS", "REDIS_ADDR", "REDIS_DB", "SESSION_SWEEP_INTERVAL", "HTTP_SECURE_COOKIE"} {
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv()
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.HTTP.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Clock.OffsetHours != 8 || cfg.Auth.SessionTTL != time.Hour {
		t.Fatalf("unexpected clock/session defaults: %+v", cfg)
	}
	if strings.Contains(cfg.String(), cfg.Auth.JWTSecret) {
		t.Fatalf("String leaks the secret: %s", cfg)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv()
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
}

func TestLoad_ParsesDurationsAndOffsets(t *testing.T) {
	clearEnv()
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "30")
	t.Setenv("TZ_OFFSET_HOURS", "-5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.SessionTTL != 90*time.Minute || cfg.Jobs.SessionSweepInterval != 30*time.Second || cfg.Clock.OffsetHours != -5 {
		t.Fatalf("unexpected parsed values: %+v", cfg)
	}

	t.Setenv("TZ_OFFSET_HOURS", "20")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for out-of-range offset")
	}
	t.Setenv("TZ_OFFSET_HOURS", "8")
	t.Setenv("SESSION_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoad_SecureCookie(t *testing.T) {
	clearEnv()
	t.Setenv("HTTP_SECURE_COOKIE", "true")
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if !cfg.HTTP.SecureCookie {
		t.Fatalf("SecureCookie not set")
	}
	t.Setenv("HTTP_SECURE_COOKIE", "maybe")
	if _, err := LoadWithDefaults(); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
}
