// Package store is the persistent job store backed by Postgres. Jobs are
// keyed by (source, external_id); upserts are idempotent per identity and
// report partial success instead of failing a batch. Reads apply the
// freshness ceiling server-side — stale rows stay in the table but are
// invisible to retrieval.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/search"
)

const jobColumns = `id, source, external_id, title, company, location,
	employment_type, salary, salary_min, salary_max, description, url,
	posted_at, scraped_at, raw`

// UpsertReport summarises one Upsert call. A duplicate is a re-submitted
// identity, never an error. IDs holds the row ids of every item that is
// now present (stored or duplicate), in submission order.
type UpsertReport struct {
	Stored     int
	Duplicates int
	Errors     int
	IDs        []int64
}

// DB is the slice of pgxpool.Pool the store depends on.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store wraps the database with the job read/write contract.
type Store struct {
	db  DB
	log zerolog.Logger
}

// New returns a Store.
func New(db DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}
}

// QueryFresh returns jobs matching spec that were acquired within maxAge,
// newest first. Older rows remain in the table but are not returned.
func (s *Store) QueryFresh(ctx context.Context, spec model.SearchSpec, maxAge time.Duration, limit, offset int) ([]model.Job, error) {
	where, args := buildFilter(search.Normalize(spec), maxAge)
	args = append(args, limit, offset)

	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s
		ORDER BY scraped_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, jobColumns, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CountFresh returns the number of jobs matching spec within maxAge.
func (s *Store) CountFresh(ctx context.Context, spec model.SearchSpec, maxAge time.Duration) (int, error) {
	where, args := buildFilter(search.Normalize(spec), maxAge)

	var total int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}

// ResolveIDs fetches jobs by id, preserving the order of ids. Missing ids
// are silently dropped (they may have been purged since the cache entry
// was written).
func (s *Store) ResolveIDs(ctx context.Context, ids []int64) ([]model.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM jobs WHERE id = ANY($1)`, jobColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("resolve ids: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(jobs, ids), nil
}

// Upsert writes jobs idempotently. Re-acquiring a known identity refreshes
// mutable fields (description, salary, raw) but preserves the original
// scraped_at. One malformed item never aborts the rest of the batch.
func (s *Store) Upsert(ctx context.Context, jobs []model.Job) UpsertReport {
	var report UpsertReport
	now := time.Now().UTC()

	for i := range jobs {
		job := jobs[i]
		if err := validateJob(job); err != nil {
			s.log.Warn().Err(err).Str("identity", job.Identity()).Msg("skipping malformed job")
			report.Errors++
			continue
		}
		if job.ScrapedAt.IsZero() {
			job.ScrapedAt = now
		}

		rawJSON, err := json.Marshal(job.Raw)
		if err != nil {
			s.log.Warn().Err(err).Str("identity", job.Identity()).Msg("skipping job with unserialisable payload")
			report.Errors++
			continue
		}

		var id int64
		var inserted bool
		err = s.db.QueryRow(ctx,
			`INSERT INTO jobs (source, external_id, title, company, location,
			                   employment_type, salary, salary_min, salary_max,
			                   description, url, posted_at, scraped_at, raw)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb)
			 ON CONFLICT (source, external_id) DO UPDATE
			 SET description = EXCLUDED.description,
			     salary      = EXCLUDED.salary,
			     salary_min  = EXCLUDED.salary_min,
			     salary_max  = EXCLUDED.salary_max,
			     raw         = EXCLUDED.raw
			 RETURNING id, (xmax = 0)`,
			job.Source, job.ExternalID, job.Title, job.Company, job.Location,
			job.EmploymentType, job.Salary, job.SalaryMin, job.SalaryMax,
			job.Description, job.URL, job.PostedAt, job.ScrapedAt, string(rawJSON),
		).Scan(&id, &inserted)
		if err != nil {
			s.log.Warn().Err(err).Str("identity", job.Identity()).Msg("job insert failed")
			report.Errors++
			continue
		}

		report.IDs = append(report.IDs, id)
		if inserted {
			report.Stored++
		} else {
			report.Duplicates++
		}
	}

	return report
}

// buildFilter assembles the WHERE clause shared by QueryFresh and
// CountFresh. The spec must already be normalised.
func buildFilter(spec model.SearchSpec, maxAge time.Duration) (string, []any) {
	clauses := []string{"scraped_at > NOW() - $1::interval"}
	args := []any{maxAge.String()}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if spec.Keywords != "" {
		add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+spec.Keywords+"%")
	}
	if spec.Remote {
		add("location ILIKE $%d", "%remote%")
	} else if spec.Location != "" {
		add("location ILIKE $%d", "%"+spec.Location+"%")
	}
	if spec.EmploymentType != "" {
		add("employment_type ILIKE $%d", spec.EmploymentType)
	}
	if spec.SalaryMin != nil {
		add("(salary_max = 0 OR salary_max >= $%d)", *spec.SalaryMin)
	}
	if spec.SalaryMax != nil {
		add("(salary_min = 0 OR salary_min <= $%d)", *spec.SalaryMax)
	}

	return strings.Join(clauses, " AND "), args
}

// validateJob rejects items that lack an identity or a title. Upstream
// payloads are opaque; this is the minimum shape the store requires.
func validateJob(job model.Job) error {
	if job.Source == "" {
		return fmt.Errorf("missing source")
	}
	if job.ExternalID == "" {
		return fmt.Errorf("missing external id")
	}
	if job.Title == "" {
		return fmt.Errorf("missing title")
	}
	return nil
}

// orderByIDs reorders jobs to match the given id sequence, dropping ids
// with no corresponding row.
func orderByIDs(jobs []model.Job, ids []int64) []model.Job {
	byID := make(map[int64]model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	out := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		if j, ok := byID[id]; ok {
			out = append(out, j)
		}
	}
	return out
}

func scanJobs(rows pgx.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var rawJSON []byte
		if err := rows.Scan(
			&j.ID, &j.Source, &j.ExternalID, &j.Title, &j.Company, &j.Location,
			&j.EmploymentType, &j.Salary, &j.SalaryMin, &j.SalaryMax,
			&j.Description, &j.URL, &j.PostedAt, &j.ScrapedAt, &rawJSON,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if len(rawJSON) > 0 {
			// Raw payload corruption is not fatal to the read.
			_ = json.Unmarshal(rawJSON, &j.Raw)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
