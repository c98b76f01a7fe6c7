package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

const (
	remotiveSource  = "remotive"
	remotiveBaseURL = "https://remotive.com/api/remote-jobs"
	remotiveLimit   = 50
)

// RemotiveAdapter fetches remote job offers from the Remotive public API.
// Keyless and fast, so it qualifies for the JIT adapter pool.
type RemotiveAdapter struct {
	baseURL string
	client  *http.Client
}

// NewRemotiveAdapter constructs the adapter with a shared HTTP client.
func NewRemotiveAdapter() *RemotiveAdapter {
	return &RemotiveAdapter{
		baseURL: remotiveBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *RemotiveAdapter) Name() string { return remotiveSource }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID              json.Number `json:"id"`
	URL             string      `json:"url"`
	Title           string      `json:"title"`
	CompanyName     string      `json:"company_name"`
	JobType         string      `json:"job_type"`
	Location        string      `json:"candidate_required_location"`
	Salary          string      `json:"salary"`
	Description     string      `json:"description"`
	PublicationDate string      `json:"publication_date"`
}

// Scrape fetches up to one page of offers. Remotive has no pagination on
// this endpoint; MaxPages is ignored.
func (a *RemotiveAdapter) Scrape(ctx context.Context, opts Options) Result {
	params := url.Values{}
	params.Set("search", opts.Keywords)
	params.Set("limit", strconv.Itoa(remotiveLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Fail("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Fail("http GET: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Fail("remotive returned %d", resp.StatusCode)
	}

	var apiResp remotiveResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Fail("json unmarshal: %v", err)
	}

	jobs := make([]model.Job, 0, len(apiResp.Jobs))
	for _, r := range apiResp.Jobs {
		job := model.Job{
			Source:         remotiveSource,
			ExternalID:     r.ID.String(),
			Title:          r.Title,
			Company:        r.CompanyName,
			Location:       r.Location,
			EmploymentType: r.JobType,
			Salary:         r.Salary,
			Description:    r.Description,
			URL:            r.URL,
			Raw:            map[string]any{"publication_date": r.PublicationDate},
		}
		if t, err := time.Parse("2006-01-02T15:04:05", r.PublicationDate); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}

	return Ok(jobs)
}

var _ Adapter = (*RemotiveAdapter)(nil)
