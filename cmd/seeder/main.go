package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"heritage_explorer/internal/adapters/observability"
	redisad "heritage_explorer/internal/adapters/redis"
	"heritage_explorer/internal/app"
	"heritage_explorer/internal/catalog"
	"heritage_explorer/internal/domain"
	"heritage_explorer/internal/shared"
	mysqlrepo "heritage_explorer/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, "seeder")

	places := catalog.Places()
	log.Info().
		Int("places", len(places)).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		// seeding still works, stale cache entries just live until their TTL
		log.Warn().Err(err).Msg("redis unavailable, cache will not be invalidated")
	}

	seed := app.NewSeedService(mysqlrepo.New(db), cache)
	workers := cfg.SeedWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, p := range places {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(p domain.Place) {
			defer wg.Done()
			defer sem.Release(1)

			if err := seed.SeedPlace(ctx, p); err != nil {
				failed.Add(1)
				log.Warn().Str("id", p.ID).Err(err).Msg("seed failed")
				return
			}
			log.Info().Str("id", p.ID).Int("position", p.Position).Msg("seed ok")
		}(p)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed", n).Msg("seeding finished with errors")
	}
	log.Info().Msg("seeding completed")
}
