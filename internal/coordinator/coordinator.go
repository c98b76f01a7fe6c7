// Package coordinator sequences the four retrieval tiers — cache, store,
// JIT acquisition, external fallback — under a falling-through
// continue-on-miss rule. Tier-internal errors are swallowed and logged at
// their origin; the only failure a caller ever sees is upstream
// exhaustion.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/metrics"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/retry"
	"github.com/CredenceNG/jobs-matching-sub002/internal/search"
)

// ErrUpstreamExhausted is returned when every tier failed or was empty.
// It is the only retrieval error surfaced to callers — an empty result set
// is never silently reported as success when no source could answer.
var ErrUpstreamExhausted = errors.New("no upstream source could answer the search")

// PageSize is the fixed page length of retrieval responses.
const PageSize = 20

// Cache is the fingerprint cache tier contract.
type Cache interface {
	Get(ctx context.Context, spec model.SearchSpec) []int64
	Set(ctx context.Context, spec model.SearchSpec, ids []int64) error
}

// Store is the persistent store tier contract.
type Store interface {
	QueryFresh(ctx context.Context, spec model.SearchSpec, maxAge time.Duration, limit, offset int) ([]model.Job, error)
	CountFresh(ctx context.Context, spec model.SearchSpec, maxAge time.Duration) (int, error)
	ResolveIDs(ctx context.Context, ids []int64) ([]model.Job, error)
}

// Acquirer is the JIT tier contract.
type Acquirer interface {
	Acquire(ctx context.Context, spec model.SearchSpec) []model.Job
}

// FallbackChain is the external fallback tier contract.
type FallbackChain interface {
	Run(ctx context.Context, spec model.SearchSpec) []model.Job
}

// Result is the unified retrieval response.
type Result struct {
	Jobs    []model.Job `json:"items"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	HasMore bool        `json:"hasMore"`
}

// Config tunes the per-tier budgets.
type Config struct {
	StoreQueryBudget time.Duration
	FreshnessWindow  time.Duration
	JITEnabled       bool
}

// Coordinator is the retrieval façade.
type Coordinator struct {
	cache    Cache
	store    Store
	jit      Acquirer
	fallback FallbackChain
	cfg      Config
	log      zerolog.Logger
}

// New wires the four tiers together.
func New(ca Cache, st Store, jit Acquirer, fb FallbackChain, cfg Config, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		cache:    ca,
		store:    st,
		jit:      jit,
		fallback: fb,
		cfg:      cfg,
		log:      log.With().Str("component", "coordinator").Logger(),
	}
}

// Retrieve answers a search by falling through the tiers in order. Every
// tier boundary continues on empty or timeout; only full exhaustion
// returns an error.
func (c *Coordinator) Retrieve(ctx context.Context, spec model.SearchSpec) (*Result, error) {
	spec = search.Normalize(spec)
	log := c.log.With().Str("fingerprint", search.Fingerprint(spec)[:12]).Logger()

	// Tier 1: cache. The cache applies its own read budget and demotes
	// slow or failed reads to misses internally; id resolution runs under
	// the store budget so a slow store cannot stall the fast tier. The
	// resolved list is paged like every other tier — cache entries may
	// hold a full acquisition's ids, not just one page.
	if ids := c.cache.Get(ctx, spec); len(ids) > 0 {
		jobs, err := retry.WithTimeout(ctx, c.cfg.StoreQueryBudget, func(ctx context.Context) ([]model.Job, error) {
			return c.store.ResolveIDs(ctx, ids)
		})
		switch {
		case errors.Is(err, retry.ErrDeadline):
			log.Warn().Dur("budget", c.cfg.StoreQueryBudget).Msg("cache id resolution exceeded budget, falling through")
			metrics.TierTimeouts.WithLabelValues("cache").Inc()
		case err != nil:
			log.Warn().Err(err).Msg("cache ids did not resolve, falling through")
		default:
			if paged := page(jobs, spec.Page); len(paged) > 0 {
				log.Debug().Int("count", len(paged)).Msg("served from cache")
				metrics.TierServed.WithLabelValues("cache").Inc()
				return c.respond(ctx, spec, paged, len(ids)), nil
			}
		}
	}

	// Tier 2: persistent store within the freshness window, under its own
	// budget. A slow store is a miss, not a failure.
	jobs, err := retry.WithTimeout(ctx, c.cfg.StoreQueryBudget, func(ctx context.Context) ([]model.Job, error) {
		return c.store.QueryFresh(ctx, spec, c.cfg.FreshnessWindow, PageSize, (spec.Page-1)*PageSize)
	})
	switch {
	case errors.Is(err, retry.ErrDeadline):
		log.Warn().Dur("budget", c.cfg.StoreQueryBudget).Msg("store query exceeded budget, treating as miss")
		metrics.TierTimeouts.WithLabelValues("store").Inc()
	case err != nil:
		log.Warn().Err(err).Msg("store query failed, treating as miss")
	case len(jobs) > 0:
		log.Debug().Int("count", len(jobs)).Msg("served from store")
		metrics.TierServed.WithLabelValues("store").Inc()
		c.populateCache(ctx, spec, jobs)
		return c.respond(ctx, spec, jobs, 0), nil
	}

	// Tier 3: JIT acquisition, only where heavyweight in-request scraping
	// is permitted. The gate decision must be explicit in logs.
	if c.cfg.JITEnabled {
		if jobs := c.jit.Acquire(ctx, spec); len(jobs) > 0 {
			metrics.TierServed.WithLabelValues("jit").Inc()
			return c.respond(ctx, spec, page(jobs, spec.Page), len(jobs)), nil
		}
	} else {
		log.Info().Msg("jit acquisition disabled by configuration, skipping tier")
	}

	// Tier 4: external API fallback, sequential until success or
	// exhaustion.
	if jobs := c.fallback.Run(ctx, spec); len(jobs) > 0 {
		metrics.TierServed.WithLabelValues("fallback").Inc()
		return c.respond(ctx, spec, page(jobs, spec.Page), len(jobs)), nil
	}

	log.Warn().Msg("all retrieval tiers exhausted")
	metrics.UpstreamExhaustion.Inc()
	return nil, ErrUpstreamExhausted
}

// respond assembles the unified response. When total is zero it is
// recomputed from the store under the store budget; a failed or slow
// count falls back to the page length.
func (c *Coordinator) respond(ctx context.Context, spec model.SearchSpec, jobs []model.Job, total int) *Result {
	if total == 0 {
		n, err := retry.WithTimeout(ctx, c.cfg.StoreQueryBudget, func(ctx context.Context) (int, error) {
			return c.store.CountFresh(ctx, spec, c.cfg.FreshnessWindow)
		})
		if err == nil {
			total = n
		}
	}
	if total < len(jobs) {
		total = len(jobs)
	}
	return &Result{
		Jobs:    jobs,
		Total:   total,
		Page:    spec.Page,
		HasMore: spec.Page*PageSize < total,
	}
}

// populateCache writes a store hit back into the cache. Best-effort: a
// failed write is logged, never surfaced.
func (c *Coordinator) populateCache(ctx context.Context, spec model.SearchSpec, jobs []model.Job) {
	ids := make([]int64, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	if err := c.cache.Set(ctx, spec, ids); err != nil {
		c.log.Warn().Err(err).Msg("cache populate failed")
	}
}

// page slices freshly acquired results down to the requested page.
func page(jobs []model.Job, pageNum int) []model.Job {
	start := (pageNum - 1) * PageSize
	if start >= len(jobs) {
		return nil
	}
	end := start + PageSize
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[start:end]
}
