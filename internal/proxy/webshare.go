package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// webshareResponse is one page of the Webshare proxy list API.
type webshareResponse struct {
	Next    *string         `json:"next"`
	Results []webshareProxy `json:"results"`
}

type webshareProxy struct {
	ProxyAddress string  `json:"proxy_address"`
	Port         int     `json:"port"`
	Username     string  `json:"username"`
	Password     string  `json:"password"`
	CountryCode  string  `json:"country_code"`
	CityName     *string `json:"city_name"`
	Valid        bool    `json:"valid"`
}

// WebshareLister lists proxies from the Webshare API with token authentication.
type WebshareLister struct {
	apiKey   string
	url      string
	maxPages int
	client   *http.Client
}

// NewWebshareLister creates a lister that starts at url and follows at most
// maxPages "next" links (values below 1 mean a single page).
func NewWebshareLister(apiKey, url string, maxPages int, client *http.Client) *WebshareLister {
	if maxPages < 1 {
		maxPages = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebshareLister{
		apiKey:   apiKey,
		url:      url,
		maxPages: maxPages,
		client:   client,
	}
}

// List fetches proxy pages and returns the valid entries.
func (l *WebshareLister) List(ctx context.Context) ([]model.ProxyCredential, error) {
	var out []model.ProxyCredential
	next := l.url

	for page := 0; page < l.maxPages && next != ""; page++ {
		resp, err := l.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			if !p.Valid {
				continue
			}
			out = append(out, toCredential(p))
		}
		next = ""
		if resp.Next != nil {
			next = *resp.Next
		}
	}

	return out, nil
}

func (l *WebshareLister) fetchPage(ctx context.Context, url string) (*webshareResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("webshare: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+l.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webshare: fetching proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &model.HTTPError{
			Source:     "webshare",
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status fetching proxy list"),
		}
	}

	var body webshareResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("webshare: decoding response: %w", err)
	}
	return &body, nil
}

func toCredential(p webshareProxy) model.ProxyCredential {
	city := "N/A"
	if p.CityName != nil && *p.CityName != "" {
		city = *p.CityName
	}
	return model.ProxyCredential{
		Server:   fmt.Sprintf("http://%s:%d", p.ProxyAddress, p.Port),
		Username: p.Username,
		Password: p.Password,
		Location: fmt.Sprintf("%s - %s", p.CountryCode, city),
	}
}
