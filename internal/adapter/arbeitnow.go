package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amishk599/jobscout/internal/model"
)

const arbeitnowBaseURL = "https://www.arbeitnow.com/api/job-board-api"

type arbeitnowJob struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Remote      bool   `json:"remote"`
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter searches the public Arbeitnow job board API.
type ArbeitnowAdapter struct {
	client *http.Client
}

// NewArbeitnowAdapter creates a new adapter. The API needs no credentials.
func NewArbeitnowAdapter(client *http.Client) *ArbeitnowAdapter {
	return &ArbeitnowAdapter{client: client}
}

func (a *ArbeitnowAdapter) Name() string { return "arbeitnow" }

// Search fetches the first page of matching postings.
func (a *ArbeitnowAdapter) Search(ctx context.Context, q model.Query) ([]model.JobRecord, error) {
	params := url.Values{}
	params.Set("search", q.What)
	params.Set("location", q.Where)
	params.Set("page", "1")
	if q.RemoteOnly {
		params.Set("remote", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arbeitnowBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow search %q: %w", q.What, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow search %q: %w", q.What, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			Source:     a.Name(),
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("arbeitnow search %q: unexpected status %d", q.What, resp.StatusCode),
		}
	}

	var anResp arbeitnowResponse
	if err := json.NewDecoder(resp.Body).Decode(&anResp); err != nil {
		return nil, fmt.Errorf("arbeitnow search %q: %w", q.What, err)
	}

	jobs := make([]model.JobRecord, 0, len(anResp.Data))
	for _, aj := range anResp.Data {
		jobs = append(jobs, model.JobRecord{
			Title:       aj.Title,
			CompanyName: aj.CompanyName,
			Location:    aj.Location,
			URL:         aj.URL,
			Status:      model.StatusPending,
			Source:      a.Name(),
		})
	}

	return jobs, nil
}
