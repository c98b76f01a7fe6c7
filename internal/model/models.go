// Package model defines the shared data structures of the discovery core:
// search specifications, normalised job postings, refresh schedule entries
// and acquisition audit records.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchSpec is a normalised job search query. Two specs that are
// semantically equal after normalisation produce an identical fingerprint
// (see the search package). Treat a spec as immutable once normalised.
type SearchSpec struct {
	Keywords       string `json:"keywords"`
	Location       string `json:"location,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
	Remote         bool   `json:"remote,omitempty"`
	SalaryMin      *int   `json:"salaryMin,omitempty"`
	SalaryMax      *int   `json:"salaryMax,omitempty"`
	Page           int    `json:"page"`
}

// Job is a normalised posting fetched from an upstream source.
// Identity is the (Source, ExternalID) pair; uniqueness is enforced by the
// store. ScrapedAt is always set by the writer, never by the source.
type Job struct {
	ID             int64          `json:"id"`
	Source         string         `json:"source"`
	ExternalID     string         `json:"externalId"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	EmploymentType string         `json:"employmentType,omitempty"`
	Salary         string         `json:"salary,omitempty"`
	SalaryMin      float64        `json:"salaryMin,omitempty"`
	SalaryMax      float64        `json:"salaryMax,omitempty"`
	Description    string         `json:"description"`
	URL            string         `json:"url,omitempty"`
	PostedAt       *time.Time     `json:"postedAt,omitempty"`
	ScrapedAt      time.Time      `json:"scrapedAt"`
	Raw            map[string]any `json:"raw,omitempty"`
}

// Identity returns the dedup key for a job.
func (j Job) Identity() string { return j.Source + ":" + j.ExternalID }

// EntryStatus is the lifecycle state of a ScheduleEntry.
type EntryStatus string

const (
	EntryIdle    EntryStatus = "idle"
	EntryRunning EntryStatus = "running"
)

// ScheduleEntry is a persisted search specification refreshed periodically
// by the scheduled orchestrator. Exactly one attempt may be running per
// entry at a time; the schedule store enforces the claim.
type ScheduleEntry struct {
	ID                  string
	Source              string
	Spec                SearchSpec
	ExcludeTerms        []string // matching offers are discarded before insert
	Cadence             time.Duration
	Priority            int
	Status              EntryStatus
	LastRunAt           *time.Time
	NextRunAt           time.Time
	StartedAt           *time.Time
	ConsecutiveFailures int
}

// RunOutcome is the terminal result of one acquisition attempt.
type RunOutcome string

const (
	RunSucceeded RunOutcome = "succeeded"
	RunFailed    RunOutcome = "failed"
)

// AcquisitionRun is the audit record of one orchestrator execution for one
// ScheduleEntry. It is finalised exactly once and never updated afterwards.
type AcquisitionRun struct {
	ID          string
	EntryID     string
	Source      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Found       int
	Stored      int
	Duplicates  int
	Errors      int
	Outcome     RunOutcome
	ErrorDetail string
}

// NewRun opens an AcquisitionRun for the given entry.
func NewRun(entry ScheduleEntry) AcquisitionRun {
	return AcquisitionRun{
		ID:        uuid.NewString(),
		EntryID:   entry.ID,
		Source:    entry.Source,
		StartedAt: time.Now().UTC(),
	}
}

// Finalize stamps the end time and outcome. ErrorDetail stays empty on
// success.
func (r *AcquisitionRun) Finalize(outcome RunOutcome, detail string) {
	r.FinishedAt = time.Now().UTC()
	r.Outcome = outcome
	r.ErrorDetail = detail
}
