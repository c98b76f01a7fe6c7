// Package scrape implements job offer fetching from upstream sources.
//
// Every source satisfies the Adapter contract: it accepts normalised
// search options, returns a bounded list of offers or a failure value, and
// never panics across the boundary. Adapters do not write to the store —
// only orchestrators persist, after receiving a bounded result — so an
// abandoned in-flight call can never corrupt persisted state.
package scrape

import (
	"context"
	"fmt"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// Options are the normalised search parameters passed to every adapter.
type Options struct {
	Keywords string
	Location string
	Remote   bool
	MaxPages int // 0 means the adapter's own default
}

// Result is the outcome of one scrape call. Failures are values, not
// panics: Success is false and Err carries the reason.
type Result struct {
	Success      bool        `json:"success"`
	Jobs         []model.Job `json:"data,omitempty"`
	ItemsScraped int         `json:"itemsScraped,omitempty"`
	Err          string      `json:"error,omitempty"`
}

// Adapter is implemented once per upstream source. Scrape must honour ctx
// cancellation: when the caller's deadline elapses, in-flight work is
// abandoned and partial output for that call is discarded.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context, opts Options) Result
}

// Fail builds a failure Result. Adapters use it so no error ever escapes
// the boundary as anything but a value.
func Fail(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Ok builds a success Result.
func Ok(jobs []model.Job) Result {
	return Result{Success: true, Jobs: jobs, ItemsScraped: len(jobs)}
}

// statusError reports a non-200 upstream response.
func statusError(source string, code int) error {
	return fmt.Errorf("%s returned %d", source, code)
}
