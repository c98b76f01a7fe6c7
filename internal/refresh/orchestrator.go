// Package refresh implements the scheduled refresh orchestrator: a
// cron-driven loop that pulls due ScheduleEntries, executes their source
// adapters in fixed-size concurrency batches under per-entry timeouts,
// persists results, records an AcquisitionRun per attempt, and advances
// each entry's scheduling state whatever the outcome.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/CredenceNG/jobs-matching-sub002/internal/metrics"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/retry"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
	"github.com/CredenceNG/jobs-matching-sub002/internal/store"
)

// ScheduleStore is the schedule persistence contract the orchestrator
// consumes. PGScheduleStore is the production implementation.
type ScheduleStore interface {
	DueEntries(ctx context.Context, limit int) ([]model.ScheduleEntry, error)
	Claim(ctx context.Context, entryID string) (bool, error)
	Complete(ctx context.Context, entryID string, nextRun time.Time, consecutiveFailures int) error
	RecordRun(ctx context.Context, run model.AcquisitionRun) error
}

// JobStore is the slice of the job store the orchestrator writes through.
type JobStore interface {
	Upsert(ctx context.Context, jobs []model.Job) store.UpsertReport
}

// CacheWriter refreshes the fingerprint cache after a successful run.
type CacheWriter interface {
	Set(ctx context.Context, spec model.SearchSpec, ids []int64) error
}

// AdapterResolver maps an entry's source name to its adapter.
type AdapterResolver interface {
	ByName(name string) (scrape.Adapter, error)
}

// Config tunes one refresh cycle.
type Config struct {
	BatchCeiling int           // max due entries per cycle
	BatchSize    int           // entries in flight at once
	BatchPause   time.Duration // pause between batches
	EntryTimeout time.Duration // hard per-entry deadline
	MaxBackoff   time.Duration // failure backoff cap
}

// Orchestrator runs refresh cycles. It is safe to invoke RunCycle from
// overlapping triggers: entry-level claims make double dispatch a no-op.
type Orchestrator struct {
	schedule ScheduleStore
	jobs     JobStore
	cache    CacheWriter
	adapters AdapterResolver
	cfg      Config
	log      zerolog.Logger
}

// New returns an Orchestrator.
func New(schedule ScheduleStore, jobs JobStore, cache CacheWriter, adapters AdapterResolver, cfg Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		schedule: schedule,
		jobs:     jobs,
		cache:    cache,
		adapters: adapters,
		cfg:      cfg,
		log:      log.With().Str("component", "refresh").Logger(),
	}
}

// RunCycle executes one full refresh cycle: fetch due entries up to the
// batch ceiling, then process them in fixed-size batches — never all at
// once — with a short pause between batches so shared downstream capacity
// is not burst. One entry's fault never aborts its siblings.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	entries, err := o.schedule.DueEntries(ctx, o.cfg.BatchCeiling)
	if err != nil {
		return fmt.Errorf("load due entries: %w", err)
	}
	if len(entries) == 0 {
		o.log.Debug().Msg("no due entries, nothing to refresh")
		return nil
	}

	o.log.Info().Int("due", len(entries)).Int("batchSize", o.cfg.BatchSize).Msg("refresh cycle started")

	for start := 0; start < len(entries); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(entries) {
			end = len(entries)
		}

		// allSettled: workers report nothing upward, so no entry can
		// cancel its siblings through the group.
		var g errgroup.Group
		for _, entry := range entries[start:end] {
			entry := entry
			g.Go(func() error {
				o.processEntry(ctx, entry)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(entries) {
			select {
			case <-time.After(o.cfg.BatchPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	o.log.Info().Msg("refresh cycle complete")
	return nil
}

// processEntry runs one acquisition attempt end to end. It always
// finalises an AcquisitionRun and always advances the entry's scheduling
// state, so a permanently broken source cannot wedge the queue.
func (o *Orchestrator) processEntry(ctx context.Context, entry model.ScheduleEntry) {
	log := o.log.With().Str("entry", entry.ID).Str("source", entry.Source).Logger()

	claimed, err := o.schedule.Claim(ctx, entry.ID)
	if err != nil {
		log.Error().Err(err).Msg("claim failed")
		return
	}
	if !claimed {
		log.Debug().Msg("entry already running elsewhere, skipping")
		return
	}

	run := model.NewRun(entry)
	outcome, detail := o.execute(ctx, entry, &run)
	run.Finalize(outcome, detail)

	if err := o.schedule.RecordRun(ctx, run); err != nil {
		log.Error().Err(err).Msg("record run failed")
	}
	metrics.RefreshRuns.WithLabelValues(string(outcome)).Inc()

	failures := AdvanceFailures(entry.ConsecutiveFailures, outcome)
	nextRun := NextRun(time.Now().UTC(), entry.Cadence, outcome, failures, o.cfg.MaxBackoff)
	if err := o.schedule.Complete(ctx, entry.ID, nextRun, failures); err != nil {
		log.Error().Err(err).Msg("complete failed, entry will be reclaimed by the watchdog")
	}

	log.Info().
		Str("outcome", string(outcome)).
		Int("found", run.Found).
		Int("stored", run.Stored).
		Int("duplicates", run.Duplicates).
		Int("errors", run.Errors).
		Time("nextRun", nextRun).
		Msg("entry processed")
}

// execute performs the scrape and persist for one claimed entry under the
// per-entry timeout. The adapter's in-flight work is abandoned when the
// deadline elapses; a timeout is treated identically to an adapter
// failure.
func (o *Orchestrator) execute(ctx context.Context, entry model.ScheduleEntry, run *model.AcquisitionRun) (model.RunOutcome, string) {
	adapter, err := o.adapters.ByName(entry.Source)
	if err != nil {
		return model.RunFailed, err.Error()
	}

	opts := scrape.Options{
		Keywords: entry.Spec.Keywords,
		Location: entry.Spec.Location,
		Remote:   entry.Spec.Remote,
	}

	result, err := retry.WithTimeout(ctx, o.cfg.EntryTimeout, func(ctx context.Context) (scrape.Result, error) {
		return adapter.Scrape(ctx, opts), nil
	})
	if err != nil {
		metrics.AdapterFailures.WithLabelValues(entry.Source).Inc()
		return model.RunFailed, fmt.Sprintf("scrape timed out after %s", o.cfg.EntryTimeout)
	}
	if !result.Success {
		metrics.AdapterFailures.WithLabelValues(entry.Source).Inc()
		return model.RunFailed, result.Err
	}

	run.Found = len(result.Jobs)
	if run.Found == 0 {
		return model.RunSucceeded, ""
	}

	jobs, discarded := scrape.FilterExcluded(result.Jobs, entry.ExcludeTerms)
	if discarded > 0 {
		o.log.Debug().Str("entry", entry.ID).Int("discarded", discarded).Msg("exclusion terms filtered offers")
	}

	report := o.jobs.Upsert(ctx, jobs)
	run.Stored = report.Stored
	run.Duplicates = report.Duplicates
	run.Errors = report.Errors

	// Refresh the fingerprint entry so the coordinator's cache tier sees
	// the new acquisition. Best-effort.
	if len(report.IDs) > 0 {
		if err := o.cache.Set(ctx, entry.Spec, report.IDs); err != nil {
			o.log.Warn().Str("entry", entry.ID).Err(err).Msg("cache refresh failed")
		}
	}

	return model.RunSucceeded, ""
}
