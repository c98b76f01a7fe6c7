// Package fallback is the last-resort tier: paid, rate-limited external
// search APIs tried strictly one at a time so their rate-limit budgets are
// never burned in parallel.
package fallback

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/metrics"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/retry"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
	"github.com/CredenceNG/jobs-matching-sub002/internal/store"
)

// Persister is the slice of the job store the chain writes through.
type Persister interface {
	Upsert(ctx context.Context, jobs []model.Job) store.UpsertReport
}

// CacheWriter is the slice of the cache the chain writes through.
type CacheWriter interface {
	Set(ctx context.Context, spec model.SearchSpec, ids []int64) error
}

// Chain tries adapters sequentially, in registration priority order, each
// under its own timeout. The first non-empty result short-circuits the
// rest.
type Chain struct {
	adapters []scrape.Adapter
	store    Persister
	cache    CacheWriter
	timeout  time.Duration // per adapter
	log      zerolog.Logger
}

// New returns a Chain over the given fallback adapters.
func New(adapters []scrape.Adapter, st Persister, ca CacheWriter, timeout time.Duration, log zerolog.Logger) *Chain {
	return &Chain{
		adapters: adapters,
		store:    st,
		cache:    ca,
		timeout:  timeout,
		log:      log.With().Str("component", "fallback").Logger(),
	}
}

// Run walks the chain until one adapter returns a non-empty result or all
// are exhausted. Failures and timeouts are logged and isolated; exhaustion
// is reported by an empty return — the coordinator decides how to surface
// it.
func (c *Chain) Run(ctx context.Context, spec model.SearchSpec) []model.Job {
	opts := scrape.Options{
		Keywords: spec.Keywords,
		Location: spec.Location,
		Remote:   spec.Remote,
		MaxPages: 1,
	}

	for _, a := range c.adapters {
		result, err := retry.WithTimeout(ctx, c.timeout, func(ctx context.Context) (scrape.Result, error) {
			return a.Scrape(ctx, opts), nil
		})
		if err != nil {
			c.log.Warn().Str("source", a.Name()).Err(err).Msg("fallback adapter timed out")
			metrics.TierTimeouts.WithLabelValues("fallback").Inc()
			continue
		}
		if !result.Success {
			c.log.Warn().Str("source", a.Name()).Str("err", result.Err).Msg("fallback adapter failed")
			metrics.AdapterFailures.WithLabelValues(a.Name()).Inc()
			continue
		}
		if len(result.Jobs) == 0 {
			c.log.Debug().Str("source", a.Name()).Msg("fallback adapter returned no results")
			continue
		}

		c.persist(ctx, spec, result.Jobs)
		return result.Jobs
	}

	return nil
}

func (c *Chain) persist(ctx context.Context, spec model.SearchSpec, jobs []model.Job) {
	report := c.store.Upsert(ctx, jobs)
	c.log.Info().
		Int("found", len(jobs)).
		Int("stored", report.Stored).
		Int("duplicates", report.Duplicates).
		Int("errors", report.Errors).
		Msg("fallback acquisition persisted")

	if len(report.IDs) == 0 {
		return
	}
	if err := c.cache.Set(ctx, spec, report.IDs); err != nil {
		c.log.Warn().Err(err).Msg("fallback cache write-back failed")
	}
}
