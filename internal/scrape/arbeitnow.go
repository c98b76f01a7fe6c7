package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

const (
	arbeitnowSource   = "arbeitnow"
	arbeitnowBaseURL  = "https://www.arbeitnow.com/api/job-board-api"
	arbeitnowMaxPages = 2
)

// ArbeitnowAdapter fetches offers from the Arbeitnow job board API.
// Keyless and fast, so it qualifies for the JIT adapter pool.
type ArbeitnowAdapter struct {
	baseURL string
	client  *http.Client
}

// NewArbeitnowAdapter constructs the adapter with a shared HTTP client.
func NewArbeitnowAdapter() *ArbeitnowAdapter {
	return &ArbeitnowAdapter{
		baseURL: arbeitnowBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *ArbeitnowAdapter) Name() string { return arbeitnowSource }

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

// Scrape iterates pages until no more results or the page cap is reached.
func (a *ArbeitnowAdapter) Scrape(ctx context.Context, opts Options) Result {
	maxPages := opts.MaxPages
	if maxPages <= 0 || maxPages > arbeitnowMaxPages {
		maxPages = arbeitnowMaxPages
	}

	var jobs []model.Job
	for page := 1; page <= maxPages; page++ {
		batch, err := a.fetchPage(ctx, opts, page)
		if err != nil {
			// Partial pages before the failure are discarded; the caller
			// gets all-or-nothing per call.
			return Fail("page %d: %v", page, err)
		}
		if len(batch) == 0 {
			break
		}
		jobs = append(jobs, batch...)
	}

	return Ok(jobs)
}

func (a *ArbeitnowAdapter) fetchPage(ctx context.Context, opts Options, page int) ([]model.Job, error) {
	params := url.Values{}
	params.Set("search", opts.Keywords)
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(arbeitnowSource, resp.StatusCode)
	}

	var apiResp arbeitnowResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(apiResp.Data))
	for _, r := range apiResp.Data {
		job := model.Job{
			Source:         arbeitnowSource,
			ExternalID:     r.Slug,
			Title:          r.Title,
			Company:        r.CompanyName,
			Location:       r.Location,
			EmploymentType: strings.Join(r.JobTypes, ", "),
			Description:    r.Description,
			URL:            r.URL,
			Raw:            map[string]any{"tags": r.Tags, "remote": r.Remote},
		}
		if r.Remote && job.Location == "" {
			job.Location = "Remote"
		}
		if r.CreatedAt > 0 {
			t := time.Unix(r.CreatedAt, 0).UTC()
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

var _ Adapter = (*ArbeitnowAdapter)(nil)
