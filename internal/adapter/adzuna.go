package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobscout/internal/model"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

// adzunaJob represents a single result in the Adzuna search response.
type adzunaJob struct {
	Title       string `json:"title"`
	RedirectURL string `json:"redirect_url"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter searches the Adzuna jobs API.
type AdzunaAdapter struct {
	appID          string
	appKey         string
	country        string
	resultsPerPage int
	client         *http.Client
}

// NewAdzunaAdapter creates an adapter for the given country index (e.g. "us", "gb").
func NewAdzunaAdapter(appID, appKey, country string, resultsPerPage int, client *http.Client) *AdzunaAdapter {
	if resultsPerPage <= 0 {
		resultsPerPage = 10
	}
	return &AdzunaAdapter{
		appID:          appID,
		appKey:         appKey,
		country:        country,
		resultsPerPage: resultsPerPage,
		client:         client,
	}
}

func (a *AdzunaAdapter) Name() string { return "adzuna" }

// Search fetches the first results page. Remote-only searches append
// "remote" to the keywords since the API has no remote flag.
func (a *AdzunaAdapter) Search(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	what := q.What
	if q.RemoteOnly {
		what += " remote"
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", what)
	params.Set("where", q.Where)
	params.Set("results_per_page", strconv.Itoa(a.resultsPerPage))

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", adzunaBaseURL, a.country, 1, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna search %q: %w", q.What, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna search %q: %w", q.What, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			Source:     a.Name(),
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna search %q: unexpected status %d", q.What, resp.StatusCode),
		}
	}

	var azResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&azResp); err != nil {
		return nil, fmt.Errorf("adzuna search %q: %w", q.What, err)
	}

	jobs := make([]model.JobRecord, 0, len(azResp.Results))
	for _, aj := range azResp.Results {
		jobs = append(jobs, model.JobRecord{
			Title:       extractText(aj.Title),
			CompanyName: aj.Company.DisplayName,
			Location:    aj.Location.DisplayName,
			URL:         aj.RedirectURL,
			Status:      model.StatusPending,
			Source:      a.Name(),
		})
	}

	return jobs, nil
}
