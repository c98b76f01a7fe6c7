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
	adzunaSource   = "adzuna"
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per call
)

// AdzunaAdapter fetches job offers from the Adzuna public API. The API is
// keyed and rate-limited, so this adapter belongs to the fallback pool and
// the scheduled refresh path, never the JIT pool.
//
// If AppID or AppKey is empty, Scrape fails gracefully with a descriptive
// error value rather than attempting an unauthenticated call.
type AdzunaAdapter struct {
	AppID   string
	AppKey  string
	Country string // "fr", "gb", "us", …
	baseURL string
	client  *http.Client
}

// NewAdzunaAdapter constructs an adapter with a shared HTTP client.
func NewAdzunaAdapter(appID, appKey, country string) *AdzunaAdapter {
	return &AdzunaAdapter{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		baseURL: adzunaBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *AdzunaAdapter) Name() string { return adzunaSource }

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    float64        `json:"salary_min"`
	SalaryMax    float64        `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	ContractType string         `json:"contract_type"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Scrape retrieves offers for the options, iterating through pages until
// no more results or the page cap is reached.
func (a *AdzunaAdapter) Scrape(ctx context.Context, opts Options) Result {
	if a.AppID == "" || a.AppKey == "" {
		return Fail("adzuna credentials not configured")
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 || maxPages > adzunaMaxPages {
		maxPages = adzunaMaxPages
	}

	var jobs []model.Job
	for page := 1; page <= maxPages; page++ {
		batch, err := a.fetchPage(ctx, opts, page)
		if err != nil {
			return Fail("page %d: %v", page, err)
		}
		if len(batch) == 0 {
			break // no more results
		}
		jobs = append(jobs, batch...)
		if len(batch) < adzunaPageSize {
			break // last page
		}
	}

	return Ok(jobs)
}

func (a *AdzunaAdapter) fetchPage(ctx context.Context, opts Options, page int) ([]model.Job, error) {
	endpoint := a.baseURL + "/" + a.Country + "/search/" + strconv.Itoa(page)

	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", opts.Keywords)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")
	if opts.Remote {
		params.Set("where", "remote")
	} else if opts.Location != "" {
		params.Set("where", opts.Location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
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
		return nil, statusError(adzunaSource, resp.StatusCode)
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		job := model.Job{
			Source:         adzunaSource,
			ExternalID:     r.ID,
			Title:          r.Title,
			Company:        r.Company.DisplayName,
			Location:       r.Location.DisplayName,
			EmploymentType: r.ContractType,
			SalaryMin:      r.SalaryMin,
			SalaryMax:      r.SalaryMax,
			Description:    r.Description,
			URL:            r.RedirectURL,
			Raw:            map[string]any{"contract_time": r.ContractTime, "created": r.Created},
		}
		if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

var _ Adapter = (*AdzunaAdapter)(nil)
