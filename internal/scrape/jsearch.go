package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

const (
	jsearchSource  = "jsearch"
	jsearchBaseURL = "https://jsearch.p.rapidapi.com/search"
	jsearchHost    = "jsearch.p.rapidapi.com"
)

// JSearchAdapter fetches offers from the JSearch RapidAPI aggregator.
// Paid and rate-limited, so it belongs to the fallback pool only.
type JSearchAdapter struct {
	APIKey  string
	baseURL string
	client  *http.Client
}

// NewJSearchAdapter constructs the adapter with a shared HTTP client.
func NewJSearchAdapter(apiKey string) *JSearchAdapter {
	return &JSearchAdapter{
		APIKey:  apiKey,
		baseURL: jsearchBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *JSearchAdapter) Name() string { return jsearchSource }

type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

type jsearchJob struct {
	JobID          string  `json:"job_id"`
	Title          string  `json:"job_title"`
	EmployerName   string  `json:"employer_name"`
	City           string  `json:"job_city"`
	Country        string  `json:"job_country"`
	IsRemote       bool    `json:"job_is_remote"`
	Description    string  `json:"job_description"`
	ApplyLink      string  `json:"job_apply_link"`
	EmploymentType string  `json:"job_employment_type"`
	MinSalary      float64 `json:"job_min_salary"`
	MaxSalary      float64 `json:"job_max_salary"`
	PostedAt       string  `json:"job_posted_at_datetime_utc"`
}

// Scrape fetches one page of aggregated results. JSearch bills per
// request, so the adapter never auto-paginates.
func (a *JSearchAdapter) Scrape(ctx context.Context, opts Options) Result {
	if a.APIKey == "" {
		return Fail("jsearch api key not configured")
	}

	query := opts.Keywords
	if opts.Remote {
		query += " remote"
	} else if opts.Location != "" {
		query += " in " + opts.Location
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("num_pages", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Fail("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", a.APIKey)
	req.Header.Set("X-RapidAPI-Host", jsearchHost)

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
		return Fail("jsearch returned %d", resp.StatusCode)
	}

	var apiResp jsearchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Fail("json unmarshal: %v", err)
	}

	jobs := make([]model.Job, 0, len(apiResp.Data))
	for _, r := range apiResp.Data {
		location := strings.TrimPrefix(strings.TrimSpace(r.City+", "+r.Country), ", ")
		if r.IsRemote {
			location = "Remote"
		}
		job := model.Job{
			Source:         jsearchSource,
			ExternalID:     r.JobID,
			Title:          r.Title,
			Company:        r.EmployerName,
			Location:       location,
			EmploymentType: r.EmploymentType,
			SalaryMin:      r.MinSalary,
			SalaryMax:      r.MaxSalary,
			Description:    r.Description,
			URL:            r.ApplyLink,
			Raw:            map[string]any{"is_remote": r.IsRemote},
		}
		if t, err := time.Parse(time.RFC3339, r.PostedAt); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}

	return Ok(jobs)
}

var _ Adapter = (*JSearchAdapter)(nil)
