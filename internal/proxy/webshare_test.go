package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

func TestWebshareLister_FiltersInvalidAndMaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"next": null,
			"results": [
				{"proxy_address": "1.2.3.4", "port": 8080, "username": "u1", "password": "p1", "country_code": "US", "city_name": "New York", "valid": true},
				{"proxy_address": "5.6.7.8", "port": 3128, "username": "u2", "password": "p2", "country_code": "DE", "city_name": null, "valid": true},
				{"proxy_address": "9.9.9.9", "port": 1, "username": "x", "password": "y", "country_code": "FR", "city_name": "Paris", "valid": false}
			]
		}`)
	}))
	defer srv.Close()

	got, err := NewWebshareLister("secret", srv.URL, 1, srv.Client()).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []model.ProxyCredential{
		{Server: "http://1.2.3.4:8080", Username: "u1", Password: "p1", Location: "US - New York"},
		{Server: "http://5.6.7.8:3128", Username: "u2", Password: "p2", Location: "DE - N/A"},
	}, got)
}

func TestWebshareLister_FollowsNextUpToMaxPages(t *testing.T) {
	var srv *httptest.Server
	pages := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		next := fmt.Sprintf("%q", fmt.Sprintf("%s/?page=%d", srv.URL, pages+1))
		fmt.Fprintf(w, `{"next": %s, "results": [{"proxy_address": "10.0.0.%d", "port": 80, "username": "u", "password": "p", "country_code": "US", "valid": true}]}`, next, pages)
	}))
	defer srv.Close()

	got, err := NewWebshareLister("k", srv.URL, 2, srv.Client()).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, pages)
}

func TestWebshareLister_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewWebshareLister("bad", srv.URL, 1, srv.Client()).List(context.Background())
	require.Error(t, err)

	var httpErr *model.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.False(t, httpErr.Retryable())
}

func TestWebshareLister_RetryAfterHTTPDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewWebshareLister("k", srv.URL, 1, srv.Client()).List(context.Background())

	var httpErr *model.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.True(t, httpErr.Retryable())
	assert.Greater(t, httpErr.RetryAfter, 50*time.Second)
	assert.LessOrEqual(t, httpErr.RetryAfter, time.Minute)
}
