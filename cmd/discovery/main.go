// discovery-service — job search discovery core
//
// Serves tiered retrieval (cache → store → JIT acquisition → external
// fallback) over a thin HTTP surface and runs the scheduled refresh
// orchestrator on a cron cadence against the same store and cache.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/CredenceNG/jobs-matching-sub002/internal/cache"
	"github.com/CredenceNG/jobs-matching-sub002/internal/config"
	"github.com/CredenceNG/jobs-matching-sub002/internal/coordinator"
	"github.com/CredenceNG/jobs-matching-sub002/internal/db"
	"github.com/CredenceNG/jobs-matching-sub002/internal/fallback"
	"github.com/CredenceNG/jobs-matching-sub002/internal/httpapi"
	"github.com/CredenceNG/jobs-matching-sub002/internal/jit"
	"github.com/CredenceNG/jobs-matching-sub002/internal/logging"
	"github.com/CredenceNG/jobs-matching-sub002/internal/refresh"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
	"github.com/CredenceNG/jobs-matching-sub002/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	_ = godotenv.Load() // optional .env for local development

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "discovery").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ──────────────────────────────────────────────────────────
	log.Info().Msg("connecting to postgres")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	// ── Redis ───────────────────────────────────────────────────────────────
	log.Info().Msg("connecting to redis")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// ── Adapter registry ────────────────────────────────────────────────────
	registry := scrape.NewRegistry()
	registry.RegisterFast(scrape.NewRemotiveAdapter())
	registry.RegisterFast(scrape.NewArbeitnowAdapter())
	registry.RegisterFallback(scrape.NewAdzunaAdapter(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry))
	registry.RegisterFallback(scrape.NewJSearchAdapter(cfg.JSearchAPIKey))

	// ── Retrieval tiers ─────────────────────────────────────────────────────
	jobCache := cache.New(rdb, cfg.CacheReadBudget, cfg.CacheTTL, log)
	jobStore := store.New(pool, log)
	jitOrch := jit.New(registry.Fast(), jobStore, jobCache, cfg.JITDeadline, log)
	fbChain := fallback.New(registry.Fallback(), jobStore, jobCache, cfg.FallbackTimeout, log)

	coord := coordinator.New(jobCache, jobStore, jitOrch, fbChain, coordinator.Config{
		StoreQueryBudget: cfg.StoreQueryBudget,
		FreshnessWindow:  cfg.FreshnessWindow,
		JITEnabled:       cfg.JITEnabled,
	}, log)
	log.Info().Bool("jitEnabled", cfg.JITEnabled).Msg("retrieval coordinator wired")

	// ── Scheduled refresh ───────────────────────────────────────────────────
	scheduleStore := refresh.NewPGScheduleStore(pool, cfg.RefreshMaxRunningAge)
	refresher := refresh.New(scheduleStore, jobStore, jobCache, registry, refresh.Config{
		BatchCeiling: cfg.RefreshBatchCeiling,
		BatchSize:    cfg.RefreshBatchSize,
		BatchPause:   cfg.RefreshBatchPause,
		EntryTimeout: cfg.RefreshEntryTimeout,
		MaxBackoff:   cfg.RefreshMaxBackoff,
	}, log)

	cronLog := log.With().Str("component", "cron").Logger()
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if err := refresher.RunCycle(ctx); err != nil {
			cronLog.Error().Err(err).Msg("refresh cycle failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.RefreshCron).Msg("invalid refresh cron spec")
	}
	c.Start()
	log.Info().Str("spec", cfg.RefreshCron).Msg("refresh cron started")

	if cfg.RefreshOnStart {
		// Populate the feed without waiting for the first tick.
		go func() {
			if err := refresher.RunCycle(ctx); err != nil {
				cronLog.Error().Err(err).Msg("startup refresh cycle failed")
			}
		}()
	}

	// ── HTTP server ─────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	httpapi.NewHandler(coord, version, log).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // JIT tier may legitimately take several seconds
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	<-c.Stop().Done() // let an in-flight refresh cycle finish

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("stopped")
}
