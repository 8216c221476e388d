package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"heritage_explorer/internal/adapters/gemini"
	server "heritage_explorer/internal/adapters/http_server"
	"heritage_explorer/internal/adapters/memcache"
	"heritage_explorer/internal/adapters/observability"
	redisad "heritage_explorer/internal/adapters/redis"
	"heritage_explorer/internal/app"
	"heritage_explorer/internal/catalog"
	"heritage_explorer/internal/domain"
	"heritage_explorer/internal/shared"
	mysqlrepo "heritage_explorer/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// places
	var repo domain.PlaceRepository = catalog.NewRepo()
	if cfg.CatalogSource == shared.CatalogMySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	cache := openCache(cfg)
	defer cache.Close()

	var gen domain.Generator = gemini.Disabled{}
	if cfg.GeminiKey != "" {
		c, err := gemini.New(cfg.GeminiBase, cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gemini client")
		}
		gen = c
	}

	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	chat := app.NewChatService(q, gen, cache, cfg.ConversationTTL, cfg.GeminiConcurrency).
		WithGenerateTimeout(cfg.GenerateTimeout)

	// http
	srv := server.New(cfg.RequestTimeout, cfg.CORSAllowedOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, Chat: chat})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("catalog", cfg.CatalogSource).
			Str("cache", cfg.CacheBackend).
			Str("model", cfg.GeminiModel).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("API stopped")
}

type store interface {
	domain.Cache
	Close() error
}

// openCache picks the configured backend. The in-process cache only suits a
// single API instance since conversations would not be shared.
func openCache(cfg shared.Config) store {
	if cfg.CacheBackend == shared.CacheMemory {
		return memcache.New(5 * time.Minute)
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := c.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	return c
}
