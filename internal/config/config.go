// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the discovery service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Logging
	LogLevel  string // debug|info|warn|error
	LogPretty bool   // pretty console logs in dev

	// Retrieval tier budgets
	CacheReadBudget  time.Duration // cache answers within this or it is a miss
	CacheTTL         time.Duration // default fingerprint TTL
	StoreQueryBudget time.Duration
	FreshnessWindow  time.Duration // age ceiling for store reads

	// JIT acquisition
	JITEnabled  bool // heavyweight in-request scraping gate
	JITDeadline time.Duration

	// External fallback
	FallbackTimeout time.Duration // per fallback adapter

	// Scheduled refresh
	RefreshCron          string // robfig/cron spec, e.g. "@every 1h"
	RefreshOnStart       bool   // run one cycle immediately at startup
	RefreshBatchCeiling  int    // max due entries fetched per cycle
	RefreshBatchSize     int    // entries processed concurrently
	RefreshBatchPause    time.Duration
	RefreshEntryTimeout  time.Duration
	RefreshMaxRunningAge time.Duration // watchdog: reclaim stuck running entries
	RefreshMaxBackoff    time.Duration // failure backoff cap

	// Adapter credentials (empty disables the keyed adapter gracefully)
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "gb", "us", "fr"
	JSearchAPIKey string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg := &Config{
		Port:        getenv("DISCOVERY_PORT", "8081"),
		DatabaseURL: dbURL,
		RedisURL:    redisURL,

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		CacheReadBudget:  getdur("CACHE_READ_BUDGET", 50*time.Millisecond),
		CacheTTL:         getdur("CACHE_TTL", 6*time.Hour),
		StoreQueryBudget: getdur("STORE_QUERY_BUDGET", 300*time.Millisecond),
		FreshnessWindow:  getdur("FRESHNESS_WINDOW", 24*time.Hour),

		JITEnabled:  getbool("JIT_ENABLED", true),
		JITDeadline: getdur("JIT_DEADLINE", 8*time.Second),

		FallbackTimeout: getdur("FALLBACK_TIMEOUT", 10*time.Second),

		RefreshCron:          getenv("REFRESH_CRON", "@every 1h"),
		RefreshOnStart:       getbool("REFRESH_ON_START", true),
		RefreshBatchCeiling:  getint("REFRESH_BATCH_CEILING", 24),
		RefreshBatchSize:     getint("REFRESH_BATCH_SIZE", 3),
		RefreshBatchPause:    getdur("REFRESH_BATCH_PAUSE", 2*time.Second),
		RefreshEntryTimeout:  getdur("REFRESH_ENTRY_TIMEOUT", 90*time.Second),
		RefreshMaxRunningAge: getdur("REFRESH_MAX_RUNNING_AGE", 30*time.Minute),
		RefreshMaxBackoff:    getdur("REFRESH_MAX_BACKOFF", 24*time.Hour),

		AdzunaAppID:   os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:  os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry: getenv("ADZUNA_COUNTRY", "gb"),
		JSearchAPIKey: os.Getenv("JSEARCH_API_KEY"),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}
	if cfg.RefreshBatchSize < 1 {
		return nil, fmt.Errorf("REFRESH_BATCH_SIZE must be >= 1")
	}
	if cfg.RefreshBatchCeiling < cfg.RefreshBatchSize {
		return nil, fmt.Errorf("REFRESH_BATCH_CEILING must be >= REFRESH_BATCH_SIZE")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
