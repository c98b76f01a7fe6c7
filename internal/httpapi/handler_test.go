package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CredenceNG/jobs-matching-sub002/internal/coordinator"
	"github.com/CredenceNG/jobs-matching-sub002/internal/httpapi"
	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

type fakeRetriever struct {
	lastSpec model.SearchSpec
	result   *coordinator.Result
	err      error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, spec model.SearchSpec) (*coordinator.Result, error) {
	f.lastSpec = spec
	return f.result, f.err
}

func newTestServer(rt *fakeRetriever) *httptest.Server {
	mux := http.NewServeMux()
	httpapi.NewHandler(rt, "test", zerolog.Nop()).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func TestSearch_HappyPath(t *testing.T) {
	rt := &fakeRetriever{result: &coordinator.Result{
		Jobs:    []model.Job{{ID: 1, Source: "remotive", ExternalID: "1", Title: "Go Developer"}},
		Total:   1,
		Page:    1,
		HasMore: false,
	}}
	srv := newTestServer(rt)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/jobs/search?keywords=golang&location=berlin&remote=true&salaryMin=60000&page=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body coordinator.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "Go Developer", body.Jobs[0].Title)

	assert.Equal(t, "golang", rt.lastSpec.Keywords)
	assert.Equal(t, "berlin", rt.lastSpec.Location)
	assert.True(t, rt.lastSpec.Remote)
	require.NotNil(t, rt.lastSpec.SalaryMin)
	assert.Equal(t, 60000, *rt.lastSpec.SalaryMin)
	assert.Equal(t, 2, rt.lastSpec.Page)
}

func TestSearch_PageDefaultsToOne(t *testing.T) {
	rt := &fakeRetriever{result: &coordinator.Result{Page: 1}}
	srv := newTestServer(rt)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/jobs/search?keywords=golang")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, rt.lastSpec.Page)
}

func TestSearch_InvalidParamsAreRejected(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"non-numeric page", "keywords=go&page=abc"},
		{"zero page", "keywords=go&page=0"},
		{"negative page", "keywords=go&page=-1"},
		{"non-numeric salaryMin", "keywords=go&salaryMin=lots"},
		{"non-numeric salaryMax", "keywords=go&salaryMax=many"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rt := &fakeRetriever{result: &coordinator.Result{}}
			srv := newTestServer(rt)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/jobs/search?" + c.query)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSearch_ExhaustionMapsToBadGateway(t *testing.T) {
	rt := &fakeRetriever{err: coordinator.ErrUpstreamExhausted}
	srv := newTestServer(rt)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/jobs/search?keywords=golang")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "no job source")
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeRetriever{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/jobs/search", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeRetriever{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}
