// Package jit implements just-in-time acquisition: a deadline-bounded
// parallel fan-out to the fast adapter pool, invoked synchronously inside
// a retrieval request when both cache and store miss.
package jit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/metrics"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
	"github.com/CredenceNG/jobs-matching-sub002/internal/store"
)

// Persister is the slice of the job store the orchestrator writes through.
type Persister interface {
	Upsert(ctx context.Context, jobs []model.Job) store.UpsertReport
}

// CacheWriter is the slice of the cache the orchestrator writes through.
type CacheWriter interface {
	Set(ctx context.Context, spec model.SearchSpec, ids []int64) error
}

// Orchestrator fans out to the fast adapters under one shared deadline.
type Orchestrator struct {
	adapters []scrape.Adapter
	store    Persister
	cache    CacheWriter
	deadline time.Duration
	log      zerolog.Logger
}

// New returns an Orchestrator over the given fast adapter pool.
func New(adapters []scrape.Adapter, st Persister, ca CacheWriter, deadline time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		store:    st,
		cache:    ca,
		deadline: deadline,
		log:      log.With().Str("component", "jit").Logger(),
	}
}

type outcome struct {
	source string
	result scrape.Result
}

// Acquire races every fast adapter in parallel and merges all results that
// land before the shared deadline — not just the first. Individual adapter
// failures are logged and isolated; they never fail the call. Zero results
// at the deadline is an empty return, not an error.
//
// Merged results are persisted to the store and cache before returning so
// the next request for the same fingerprint hits the cache.
func (o *Orchestrator) Acquire(ctx context.Context, spec model.SearchSpec) []model.Job {
	if len(o.adapters) == 0 {
		return nil
	}

	raceCtx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	opts := scrape.Options{
		Keywords: spec.Keywords,
		Location: spec.Location,
		Remote:   spec.Remote,
		MaxPages: 1, // JIT calls stay cheap; depth belongs to scheduled refresh
	}

	results := make(chan outcome, len(o.adapters))
	for _, a := range o.adapters {
		go func(a scrape.Adapter) {
			results <- outcome{source: a.Name(), result: a.Scrape(raceCtx, opts)}
		}(a)
	}

	// Collect until every adapter reports or the deadline fires. Late
	// finishers write into the buffered channel and are discarded.
	var merged []model.Job
	seen := make(map[string]bool)
collect:
	for pending := len(o.adapters); pending > 0; pending-- {
		select {
		case out := <-results:
			if !out.result.Success {
				o.log.Warn().Str("source", out.source).Str("err", out.result.Err).Msg("jit adapter failed")
				metrics.AdapterFailures.WithLabelValues(out.source).Inc()
				continue
			}
			for _, j := range out.result.Jobs {
				if seen[j.Identity()] {
					continue
				}
				seen[j.Identity()] = true
				merged = append(merged, j)
			}
		case <-raceCtx.Done():
			o.log.Info().Int("pending", pending).Dur("deadline", o.deadline).
				Msg("jit deadline elapsed, abandoning remaining adapters")
			metrics.TierTimeouts.WithLabelValues("jit").Inc()
			break collect
		}
	}

	if len(merged) == 0 {
		return nil
	}

	o.persist(ctx, spec, merged)
	return merged
}

// persist writes acquired jobs through to the store and cache. Failures
// here are persistence failures: logged, never propagated — the caller
// already has its results.
func (o *Orchestrator) persist(ctx context.Context, spec model.SearchSpec, jobs []model.Job) {
	report := o.store.Upsert(ctx, jobs)
	o.log.Info().
		Int("found", len(jobs)).
		Int("stored", report.Stored).
		Int("duplicates", report.Duplicates).
		Int("errors", report.Errors).
		Msg("jit acquisition persisted")

	if len(report.IDs) == 0 {
		return
	}
	if err := o.cache.Set(ctx, spec, report.IDs); err != nil {
		o.log.Warn().Err(err).Msg("jit cache write-back failed")
	}
}
