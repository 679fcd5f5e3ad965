package config_test

import (
	"testing"
	"time"

	"github.com/novincode/irannahal-api/internal/config"
)

func TestLoadRequiresCoreSettings(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "",
		"JWT_SECRET":   "",
	})
	if err == nil {
		t.Fatal("expected an error when DATABASE_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost:5432/nahal",
		"REDIS_URL":         "redis://localhost:6379/0",
		"JWT_SECRET":        "secret",
		"PORT":              "",
		"CART_MIRROR_TTL":   "",
		"CATALOG_CACHE_TTL": "not-a-duration",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr())
	}
	if cfg.CartMirrorTTL != 168*time.Hour {
		t.Fatalf("expected default mirror TTL, got %v", cfg.CartMirrorTTL)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Fatalf("expected fallback cache TTL on parse failure, got %v", cfg.CatalogCacheTTL)
	}
	if cfg.CatalogDefaultLimit != 20 || cfg.CatalogMaxLimit != 100 {
		t.Fatalf("unexpected catalog limits: %d/%d", cfg.CatalogDefaultLimit, cfg.CatalogMaxLimit)
	}
}
