package model

import (
	"context"
	"time"
)

// Status is the lifecycle label of a JobRecord.
type Status string

const (
	StatusPending            Status = "pending"
	StatusScraped            Status = "scraped"
	StatusBlocked            Status = "blocked"
	StatusFailedAfterRetries Status = "failed_after_retries"
)

// Description values that mark a failure category instead of scraped text.
const (
	SentinelBlocked = "SCRAPING_BLOCKED"
	SentinelFailed  = "SCRAPING_FAILED"
)

// IsSentinel reports whether desc is one of the reserved failure markers.
func IsSentinel(desc string) bool {
	return desc == SentinelBlocked || desc == SentinelFailed
}

// JobRecord is a job posting as it moves through the pipeline. Stages take a
// record by value and return a new one.
type JobRecord struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Email       string `json:"email,omitempty"`
	Description string `json:"job_description,omitempty"`
	Status      Status `json:"status"`
	Source      string `json:"source,omitempty"` // provider name, e.g. "adzuna"
}

// Enriched reports whether the record reached a terminal enrichment status.
func (j JobRecord) Enriched() bool {
	switch j.Status {
	case StatusScraped, StatusBlocked, StatusFailedAfterRetries:
		return true
	}
	return false
}

// StoredJob is a JobRecord as handed to sinks and read back from storage.
type StoredJob struct {
	JobRecord
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Language  string    `json:"language,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Query describes one search across all job sources.
type Query struct {
	What       string
	Where      string
	RemoteOnly bool
}

// Summary holds the end-of-run counters.
type Summary struct {
	Fetched   int // jobs returned by all sources
	Processed int // jobs that went through enrichment
	Saved     int // records written to at least one sink
	Blocked   int // records whose final status is blocked
	Failed    int // records whose final status is failed_after_retries
	Filtered  int // records dropped by the language filter
	Skipped   int // records dropped by the title/location filter
}

// JobSource fetches job postings from one search provider.
type JobSource interface {
	Name() string
	Search(ctx context.Context, q Query) ([]JobRecord, error)
}

// Sink appends enriched records to durable storage.
type Sink interface {
	Name() string
	Append(ctx context.Context, job StoredJob) error
	Close() error
}

// JobFilter decides whether a job is worth enriching.
type JobFilter interface {
	Match(job JobRecord) bool
}

// Notifier reports the result of a run.
type Notifier interface {
	NotifySummary(ctx context.Context, q Query, s Summary) error
}

// ProxyCredential is one proxy endpoint with its login.
type ProxyCredential struct {
	Server   string // e.g. "http://1.2.3.4:8080"
	Username string
	Password string
	Location string // e.g. "US - New York"
}
