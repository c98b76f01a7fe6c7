package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// PGScheduleStore persists ScheduleEntries and AcquisitionRuns in
// Postgres. The claim/complete pair is the serialization point that keeps
// one entry from running twice concurrently, even across overlapping
// cycle invocations or multiple service instances.
type PGScheduleStore struct {
	pool          *pgxpool.Pool
	maxRunningAge time.Duration // watchdog: running entries older than this are due again
}

// NewPGScheduleStore returns a schedule store.
func NewPGScheduleStore(pool *pgxpool.Pool, maxRunningAge time.Duration) *PGScheduleStore {
	return &PGScheduleStore{pool: pool, maxRunningAge: maxRunningAge}
}

// DueEntries returns up to limit entries ready to run, ordered by next-due
// ascending. A "running" entry whose attempt started longer ago than the
// max-running-age is treated as due again — the process that claimed it is
// presumed dead.
func (s *PGScheduleStore) DueEntries(ctx context.Context, limit int) ([]model.ScheduleEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, spec, exclude_terms, cadence_seconds, priority,
		        status, consecutive_failures, last_run_at, next_run_at, started_at
		 FROM schedule_entries
		 WHERE (status = 'idle' AND next_run_at <= NOW())
		    OR (status = 'running' AND started_at < NOW() - $1::interval)
		 ORDER BY next_run_at ASC, priority DESC
		 LIMIT $2`,
		s.maxRunningAge.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		var specJSON []byte
		var cadenceSeconds int64
		var status string
		if err := rows.Scan(
			&e.ID, &e.Source, &specJSON, &e.ExcludeTerms, &cadenceSeconds,
			&e.Priority, &status, &e.ConsecutiveFailures,
			&e.LastRunAt, &e.NextRunAt, &e.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if err := json.Unmarshal(specJSON, &e.Spec); err != nil {
			return nil, fmt.Errorf("decode spec for entry %s: %w", e.ID, err)
		}
		e.Cadence = time.Duration(cadenceSeconds) * time.Second
		e.Status = model.EntryStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Claim atomically marks an entry running. Returns false when another
// worker holds a live claim — the conditional UPDATE is what makes
// concurrent cycle invocations safe.
func (s *PGScheduleStore) Claim(ctx context.Context, entryID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE schedule_entries
		 SET status = 'running', started_at = NOW()
		 WHERE id = $1
		   AND (status = 'idle' OR started_at < NOW() - $2::interval)`,
		entryID, s.maxRunningAge.String(),
	)
	if err != nil {
		return false, fmt.Errorf("claim entry %s: %w", entryID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete finalises an attempt: the entry returns to idle with its
// scheduling state advanced. Success and failure both move next-due.
func (s *PGScheduleStore) Complete(ctx context.Context, entryID string, nextRun time.Time, consecutiveFailures int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE schedule_entries
		 SET status = 'idle',
		     started_at = NULL,
		     last_run_at = NOW(),
		     next_run_at = $2,
		     consecutive_failures = $3
		 WHERE id = $1`,
		entryID, nextRun, consecutiveFailures,
	)
	if err != nil {
		return fmt.Errorf("complete entry %s: %w", entryID, err)
	}
	return nil
}

// RecordRun appends a finalised AcquisitionRun to the audit log.
func (s *PGScheduleStore) RecordRun(ctx context.Context, run model.AcquisitionRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO acquisition_runs
		   (id, entry_id, source, started_at, finished_at,
		    found, stored, duplicates, errors, outcome, error_detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.EntryID, run.Source, run.StartedAt, run.FinishedAt,
		run.Found, run.Stored, run.Duplicates, run.Errors,
		string(run.Outcome), run.ErrorDetail,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}
