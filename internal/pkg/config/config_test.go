package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestProcessWith_Defaults(t *testing.T) {
	cfg, err := ProcessWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.JWTTTL != 24*time.Hour || cfg.StorageBackend != BackendMongo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.TrustForwardedFor || !cfg.Redis.Enabled || cfg.Redis.TenantCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
}

func TestProcessWith_Overrides(t *testing.T) {
	cfg, err := ProcessWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          secret,
		"JWT_TTL":             "1h",
		"STORAGE_BACKEND":     "memory",
		"REDIS_ENABLED":       "false",
		"TRUST_FORWARDED_FOR": "false",
		"ENV":                 "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTTTL != time.Hour || cfg.StorageBackend != BackendMemory || cfg.Redis.Enabled || cfg.TrustForwardedFor {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production")
	}
}

func TestProcessWith_MissingSecret(t *testing.T) {
	if _, err := ProcessWith(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}

func TestProcessWith_ShortSecret(t *testing.T) {
	_, err := ProcessWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "too-short",
	}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestProcessWith_UnknownBackend(t *testing.T) {
	_, err := ProcessWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      secret,
		"STORAGE_BACKEND": "postgres",
	}))
	if err == nil || !strings.Contains(err.Error(), "STORAGE_BACKEND") {
		t.Fatalf("expected STORAGE_BACKEND error, got %v", err)
	}
}
