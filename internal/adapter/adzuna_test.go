package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func TestAdzunaSearch_Success(t *testing.T) {
	payload := `{
		"count": 2,
		"results": [
			{
				"title": "Senior <strong>Go</strong> Developer",
				"redirect_url": "https://www.adzuna.com/land/ad/111",
				"company": {"display_name": "Acme"},
				"location": {"display_name": "New York, NY"}
			},
			{
				"title": "Backend Engineer",
				"redirect_url": "https://www.adzuna.com/land/ad/222",
				"company": {"display_name": "Globex"},
				"location": {"display_name": "Remote"}
			}
		]
	}`

	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewAdzunaAdapter("my-id", "my-key", "us", 10, rewriteClient(srv))
	jobs, err := a.Search(context.Background(), model.Query{What: "go developer", Where: "new york", RemoteOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/api/jobs/us/search/1" {
		t.Errorf("path = %q", gotPath)
	}
	want := map[string]string{
		"app_id":           "my-id",
		"app_key":          "my-key",
		"what":             "go developer remote",
		"where":            "new york",
		"results_per_page": "10",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	j := jobs[0]
	if j.Title != "Senior Go Developer" {
		t.Errorf("expected highlight stripped from title, got %q", j.Title)
	}
	if j.CompanyName != "Acme" || j.Location != "New York, NY" {
		t.Errorf("unexpected company/location: %q / %q", j.CompanyName, j.Location)
	}
	if j.URL != "https://www.adzuna.com/land/ad/111" {
		t.Errorf("unexpected URL %q", j.URL)
	}
	if j.Status != model.StatusPending || j.Source != "adzuna" {
		t.Errorf("unexpected status/source: %q / %q", j.Status, j.Source)
	}
}

func TestAdzunaSearch_NotRemoteKeepsKeywords(t *testing.T) {
	var what string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		what = r.URL.Query().Get("what")
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	a := NewAdzunaAdapter("id", "key", "gb", 0, rewriteClient(srv))
	jobs, err := a.Search(context.Background(), model.Query{What: "data engineer", Where: "london"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
	if what != "data engineer" {
		t.Errorf("what = %q, want %q", what, "data engineer")
	}
}

func TestAdzunaSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewAdzunaAdapter("id", "key", "us", 10, rewriteClient(srv))
	_, err := a.Search(context.Background(), model.Query{What: "go"})

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("unexpected HTTPError: %+v", httpErr)
	}
	if httpErr.Source != "adzuna" {
		t.Errorf("Source = %q, want adzuna", httpErr.Source)
	}
}

func TestAdzunaSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	a := NewAdzunaAdapter("id", "key", "us", 10, rewriteClient(srv))
	if _, err := a.Search(context.Background(), model.Query{What: "go"}); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
