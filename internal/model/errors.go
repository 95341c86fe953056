package model

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPError carries the status of a failed API call so retry logic can
// decide whether the failure is transient.
type HTTPError struct {
	Source     string // provider or API name, e.g. "adzuna", "webshare"
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	prefix := fmt.Sprintf("HTTP %d", e.StatusCode)
	if e.Source != "" {
		prefix = e.Source + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status is worth another attempt (429 or 5xx).
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ParseRetryAfter reads a Retry-After header relative to the current time.
func ParseRetryAfter(value string) time.Duration {
	return RetryAfterAt(value, time.Now())
}

// RetryAfterAt accepts both delta-seconds ("120") and HTTP-date forms.
// Absent, unparseable or past values yield zero.
func RetryAfterAt(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d
	}
	return 0
}
