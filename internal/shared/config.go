package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CatalogMemory = "memory"
	CatalogMySQL  = "mysql"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	MetricsAddr        string
	CatalogSource      string
	MySQLDSN           string
	CacheBackend       string
	RedisAddr          string
	RedisDB            int
	RedisPass          string
	GeminiBase         string
	GeminiKey          string
	GeminiModel        string
	GeminiRPS          int
	GeminiConcurrency  int
	SeedWorkers        int
	CacheTTL           time.Duration
	ConversationTTL    time.Duration
	RequestTimeout     time.Duration
	GenerateTimeout    time.Duration
	CORSAllowedOrigins []string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric config value")
		}
		return def
	}
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ""),
		CatalogSource:      strings.ToLower(env("CATALOG_SOURCE", CatalogMemory)),
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/heritage?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		CacheBackend:       strings.ToLower(env("CACHE_BACKEND", CacheRedis)),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisPass:          env("REDIS_PASSWORD", ""),
		RedisDB:            atoi("REDIS_DB", 0),
		GeminiBase:         env("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiKey:          env("GEMINI_API_KEY", ""),
		GeminiModel:        env("GEMINI_MODEL", "gemini-pro"),
		GeminiRPS:          atoi("GEMINI_RPS", 5),
		GeminiConcurrency:  atoi("GEMINI_CONCURRENCY", 4),
		SeedWorkers:        atoi("SEED_WORKERS", 4),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ConversationTTL:    time.Duration(atoi("CONVERSATION_TTL_SECONDS", 3600)) * time.Second,
		RequestTimeout:     time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 90)) * time.Second,
		GenerateTimeout:    time.Duration(atoi("GENERATE_TIMEOUT_SECONDS", 60)) * time.Second,
		CORSAllowedOrigins: list(env("CORS_ORIGINS", "*")),
	}
	if c.GeminiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty; assistant replies will be apologies")
	}
	if c.CatalogSource != CatalogMemory && c.CatalogSource != CatalogMySQL {
		log.Warn().Str("source", c.CatalogSource).Msg("unknown CATALOG_SOURCE, using memory")
		c.CatalogSource = CatalogMemory
	}
	// a chat turn needs headroom after the generator to persist and reply
	if limit := c.RequestTimeout * 4 / 5; c.GenerateTimeout <= 0 || c.GenerateTimeout > limit {
		log.Warn().Dur("generate", c.GenerateTimeout).Dur("request", c.RequestTimeout).Msg("GENERATE_TIMEOUT_SECONDS must stay below the request timeout, clamping")
		c.GenerateTimeout = limit
	}
		if c.CacheBackend != CacheRedis && c.CacheBackend != CacheMemory {
		log.Warn().Str("backend", c.CacheBackend).Msg("unknown CACHE_BACKEND, using redis")
		c.CacheBackend = CacheRedis
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
