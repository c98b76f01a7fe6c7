package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CredenceNG/jobs-matching-sub002/internal/cache"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return cache.New(rdb, 100*time.Millisecond, time.Hour, zerolog.Nop()), mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	spec := model.SearchSpec{Keywords: "golang developer", Location: "remote", Page: 1}
	ids := []int64{42, 7, 19}

	require.NoError(t, c.Set(ctx, spec, ids))
	assert.Equal(t, ids, c.Get(ctx, spec), "ids must come back unchanged and in order")
}

func TestCache_MissOnUnknownSpec(t *testing.T) {
	c, _ := newTestCache(t)

	got := c.Get(context.Background(), model.SearchSpec{Keywords: "nothing here", Page: 1})
	assert.Nil(t, got)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	spec := model.SearchSpec{Keywords: "golang", Page: 1}

	require.NoError(t, c.SetWithTTL(ctx, spec, []int64{1, 2, 3}, time.Millisecond))

	// Expired entries behave as absent.
	mr.FastForward(10 * time.Millisecond)
	assert.Nil(t, c.Get(ctx, spec))
}

func TestCache_OverwriteReplacesWhole(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	spec := model.SearchSpec{Keywords: "golang", Page: 1}

	require.NoError(t, c.Set(ctx, spec, []int64{1, 2, 3}))
	require.NoError(t, c.Set(ctx, spec, []int64{9}))

	assert.Equal(t, []int64{9}, c.Get(ctx, spec))
}

func TestCache_EmptyIDListIsNotWritten(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	spec := model.SearchSpec{Keywords: "golang", Page: 1}

	require.NoError(t, c.Set(ctx, spec, nil))
	assert.Nil(t, c.Get(ctx, spec))
}

// An unreachable cache is a miss, never a hard failure that aborts
// retrieval.
func TestCache_UnavailableIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	spec := model.SearchSpec{Keywords: "golang", Page: 1}

	require.NoError(t, c.Set(ctx, spec, []int64{1}))
	mr.Close()

	assert.Nil(t, c.Get(ctx, spec))
}

// Writes are retried with backoff before the failure is reported, so a
// single blip does not cost an entry.
func TestCache_WriteFailureIsRetriedBeforeReported(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	err := c.Set(context.Background(), model.SearchSpec{Keywords: "golang", Page: 1}, []int64{1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

// Different pages of the same search are distinct cache entries.
func TestCache_PagesAreIndependent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	p1 := model.SearchSpec{Keywords: "golang", Page: 1}
	p2 := model.SearchSpec{Keywords: "golang", Page: 2}

	require.NoError(t, c.Set(ctx, p1, []int64{1}))
	require.NoError(t, c.Set(ctx, p2, []int64{2}))

	assert.Equal(t, []int64{1}, c.Get(ctx, p1))
	assert.Equal(t, []int64{2}, c.Get(ctx, p2))
}
