package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remotivePayload = `{
	"jobs": [
		{
			"id": 1001,
			"url": "https://remotive.com/jobs/1001",
			"title": "Senior Go Developer",
			"company_name": "Acme",
			"job_type": "full_time",
			"candidate_required_location": "Worldwide",
			"salary": "$100k-$140k",
			"description": "Build distributed systems.",
			"publication_date": "2026-08-20T07:00:00"
		},
		{
			"id": 1002,
			"url": "https://remotive.com/jobs/1002",
			"title": "Go Backend Engineer",
			"company_name": "Globex",
			"job_type": "contract",
			"candidate_required_location": "Europe",
			"salary": "",
			"description": "APIs and pipelines.",
			"publication_date": "not-a-date"
		}
	]
}`

func newRemotiveTestAdapter(handler http.Handler) (*RemotiveAdapter, *httptest.Server) {
	srv := httptest.NewServer(handler)
	a := NewRemotiveAdapter()
	a.baseURL = srv.URL
	return a, srv
}

func TestRemotive_ParsesPayload(t *testing.T) {
	a, srv := newRemotiveTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("search"))
		w.Write([]byte(remotivePayload))
	}))
	defer srv.Close()

	result := a.Scrape(context.Background(), Options{Keywords: "golang"})

	require.True(t, result.Success)
	require.Len(t, result.Jobs, 2)
	assert.Equal(t, 2, result.ItemsScraped)

	first := result.Jobs[0]
	assert.Equal(t, "remotive", first.Source)
	assert.Equal(t, "1001", first.ExternalID)
	assert.Equal(t, "Senior Go Developer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "full_time", first.EmploymentType)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, 2026, first.PostedAt.Year())

	// Unparseable dates are dropped, not fatal.
	assert.Nil(t, result.Jobs[1].PostedAt)
	// The writer stamps acquisition time, never the adapter.
	assert.True(t, first.ScrapedAt.IsZero())
}

func TestRemotive_UpstreamErrorIsAFailureValue(t *testing.T) {
	a, srv := newRemotiveTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	result := a.Scrape(context.Background(), Options{Keywords: "golang"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "429")
	assert.Empty(t, result.Jobs)
}

func TestRemotive_MalformedJSONIsAFailureValue(t *testing.T) {
	a, srv := newRemotiveTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	result := a.Scrape(context.Background(), Options{Keywords: "golang"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "unmarshal")
}

// Cancellation must abandon in-flight work promptly and discard partial
// output for the call.
func TestRemotive_HonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	a, srv := newRemotiveTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := a.Scrape(ctx, Options{Keywords: "golang"})

	assert.False(t, result.Success)
	assert.Empty(t, result.Jobs)
	assert.Less(t, time.Since(start), time.Second)
}
