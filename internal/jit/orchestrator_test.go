package jit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CredenceNG/jobs-matching-sub002/internal/jit"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
	"github.com/CredenceNG/jobs-matching-sub002/internal/store"
)

// ── Fakes ─────────────────────────────────────────────────────────────────

type fakeAdapter struct {
	name   string
	delay  time.Duration
	result scrape.Result
	stuck  bool // never resolves until ctx is done
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Scrape(ctx context.Context, opts scrape.Options) scrape.Result {
	if f.stuck {
		<-ctx.Done()
		return scrape.Fail("cancelled")
	}
	select {
	case <-time.After(f.delay):
		return f.result
	case <-ctx.Done():
		return scrape.Fail("cancelled")
	}
}

type fakeStore struct {
	mu      sync.Mutex
	batches [][]model.Job
	nextID  int64
}

func (f *fakeStore) Upsert(ctx context.Context, jobs []model.Job) store.UpsertReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, jobs)
	report := store.UpsertReport{Stored: len(jobs)}
	for range jobs {
		f.nextID++
		report.IDs = append(report.IDs, f.nextID)
	}
	return report
}

type fakeCache struct {
	mu   sync.Mutex
	sets map[string][]int64
}

func (f *fakeCache) Set(ctx context.Context, spec model.SearchSpec, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets == nil {
		f.sets = make(map[string][]int64)
	}
	f.sets[spec.Keywords] = ids
	return nil
}

func jobsFor(source string, n int) []model.Job {
	out := make([]model.Job, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Job{
			Source:     source,
			ExternalID: string(rune('a' + i)),
			Title:      "Go Developer",
		})
	}
	return out
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestAcquire_MergesAllAdaptersBeforeDeadline(t *testing.T) {
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "one", result: scrape.Ok(jobsFor("one", 2))},
		&fakeAdapter{name: "two", delay: 20 * time.Millisecond, result: scrape.Ok(jobsFor("two", 3))},
	}, st, ca, time.Second, zerolog.Nop())

	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1})

	// All results before the deadline are merged, not just the first.
	assert.Len(t, got, 5)
}

func TestAcquire_StuckAdapterDoesNotDelayBeyondDeadline(t *testing.T) {
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "fast", result: scrape.Ok(jobsFor("fast", 3))},
		&fakeAdapter{name: "stuck", stuck: true},
	}, st, ca, 100*time.Millisecond, zerolog.Nop())

	start := time.Now()
	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1})

	assert.Len(t, got, 3, "fast adapter's results survive the stuck sibling")
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquire_AdapterFailureIsIsolated(t *testing.T) {
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "broken", result: scrape.Fail("structure changed")},
		&fakeAdapter{name: "healthy", result: scrape.Ok(jobsFor("healthy", 2))},
	}, st, ca, time.Second, zerolog.Nop())

	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1})

	assert.Len(t, got, 2)
}

func TestAcquire_AllEmptyReturnsNilNotError(t *testing.T) {
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "one", result: scrape.Fail("blocked")},
		&fakeAdapter{name: "two", result: scrape.Ok(nil)},
	}, st, ca, 100*time.Millisecond, zerolog.Nop())

	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1})

	assert.Nil(t, got)
	assert.Empty(t, st.batches, "nothing to persist")
}

func TestAcquire_DeduplicatesByIdentity(t *testing.T) {
	shared := model.Job{Source: "both", ExternalID: "same", Title: "Go Developer"}
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "one", result: scrape.Ok([]model.Job{shared})},
		&fakeAdapter{name: "two", delay: 10 * time.Millisecond, result: scrape.Ok([]model.Job{shared})},
	}, st, ca, time.Second, zerolog.Nop())

	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1})

	assert.Len(t, got, 1)
}

func TestAcquire_PersistsToStoreAndCache(t *testing.T) {
	st := &fakeStore{}
	ca := &fakeCache{}
	o := jit.New([]scrape.Adapter{
		&fakeAdapter{name: "one", result: scrape.Ok(jobsFor("one", 3))},
	}, st, ca, time.Second, zerolog.Nop())

	got := o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang developer", Page: 1})

	require.Len(t, got, 3)
	require.Len(t, st.batches, 1)
	assert.Len(t, st.batches[0], 3)
	assert.Len(t, ca.sets["golang developer"], 3, "cache entry carries one id per stored job")
}

func TestAcquire_NoAdaptersIsANoop(t *testing.T) {
	st := &fakeStore{}
	o := jit.New(nil, st, &fakeCache{}, time.Second, zerolog.Nop())

	assert.Nil(t, o.Acquire(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1}))
}
