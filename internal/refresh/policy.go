package refresh

import (
	"time"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// NextRun computes when an entry is due again after an attempt. Success
// reschedules at the entry's own cadence. Each consecutive failure doubles
// the wait, capped at maxBackoff, so a permanently broken source backs off
// instead of being hammered every cycle. Both outcomes always advance
// next-due into the future.
func NextRun(now time.Time, cadence time.Duration, outcome model.RunOutcome, consecutiveFailures int, maxBackoff time.Duration) time.Time {
	wait := cadence
	if outcome == model.RunFailed {
		for i := 0; i < consecutiveFailures && wait < maxBackoff; i++ {
			wait *= 2
		}
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
	return now.Add(wait)
}

// AdvanceFailures returns the updated consecutive-failure count after an
// attempt: reset on success, incremented on failure.
func AdvanceFailures(current int, outcome model.RunOutcome) int {
	if outcome == model.RunSucceeded {
		return 0
	}
	return current + 1
}
