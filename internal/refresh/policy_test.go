package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	cadence := time.Hour
	maxBackoff := 24 * time.Hour

	cases := []struct {
		name     string
		outcome  model.RunOutcome
		failures int
		want     time.Duration
	}{
		{"success at cadence", model.RunSucceeded, 0, time.Hour},
		{"success ignores old failures", model.RunSucceeded, 7, time.Hour},
		{"first failure doubles", model.RunFailed, 1, 2 * time.Hour},
		{"second failure doubles again", model.RunFailed, 2, 4 * time.Hour},
		{"third failure", model.RunFailed, 3, 8 * time.Hour},
		{"backoff capped", model.RunFailed, 10, 24 * time.Hour},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NextRun(now, cadence, c.outcome, c.failures, maxBackoff)
			assert.Equal(t, now.Add(c.want), got)
		})
	}
}

func TestNextRun_AlwaysAdvances(t *testing.T) {
	now := time.Now().UTC()
	got := NextRun(now, time.Minute, model.RunFailed, 0, 24*time.Hour)
	assert.True(t, got.After(now), "next due must always move into the future")
}

func TestAdvanceFailures(t *testing.T) {
	assert.Zero(t, AdvanceFailures(5, model.RunSucceeded), "success resets the streak")
	assert.Equal(t, 1, AdvanceFailures(0, model.RunFailed))
	assert.Equal(t, 6, AdvanceFailures(5, model.RunFailed))
}
