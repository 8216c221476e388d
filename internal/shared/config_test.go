package shared_test

import (
	"testing"
	"time"

	"heritage_explorer/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("CACHE_BACKEND", "")
	c := shared.Load()
	if c.HTTPAddr != ":8080" || c.CatalogSource != shared.CatalogMemory || c.GeminiModel != "gemini-pro" || c.CacheBackend != shared.CacheRedis {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.GenerateTimeout != 60*time.Second || c.GenerateTimeout >= c.RequestTimeout {
		t.Fatalf("unexpected generate timeout: %v", c.GenerateTimeout)
	}
		if c.CacheTTL != 15*time.Minute || c.ConversationTTL != time.Hour {
		t.Fatalf("unexpected ttls: %v %v", c.CacheTTL, c.ConversationTTL)
	}
	if len(c.CORSAllowedOrigins) != 1 || c.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors: %v", c.CORSAllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "MySQL")
	t.Setenv("GEMINI_CONCURRENCY", "9")
	t.Setenv("SEED_WORKERS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	c := shared.Load()
	if c.CatalogSource != shared.CatalogMySQL || c.GeminiConcurrency != 9 || c.SeedWorkers != 4 {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.CORSAllowedOrigins) != 2 || c.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors: %v", c.CORSAllowedOrigins)
	}

	t.Setenv("CATALOG_SOURCE", "postgres")
	t.Setenv("CACHE_BACKEND", "Memory")
	c = shared.Load()
	if c.CatalogSource != shared.CatalogMemory {
		t.Fatalf("unknown source should fall back to memory, got %s", c.CatalogSource)
	}
	if c.CacheBackend != shared.CacheMemory {
		t.Fatalf("expected memory cache backend, got %s", c.CacheBackend)
	}
}

func TestLoad_GenerateTimeoutClampedBelowRequest(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("GENERATE_TIMEOUT_SECONDS", "240")
	c := shared.Load()
	if c.GenerateTimeout != 24*time.Second {
		t.Fatalf("expected clamp to 24s, got %v", c.GenerateTimeout)
	}
}
