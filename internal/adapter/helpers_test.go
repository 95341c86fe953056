package adapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// rewriteClient sends every request to srv regardless of the requested host.
func rewriteClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "highlighted keyword",
			input: "Senior <strong>Go</strong> Developer",
			want:  "Senior Go Developer",
		},
		{
			name:  "entity-encoded markup",
			input: "&lt;strong&gt;Backend&lt;/strong&gt; Engineer &amp; SRE",
			want:  "Backend Engineer & SRE",
		},
		{
			name:  "plain text with extra whitespace",
			input: "  Platform   Engineer\n",
			want:  "Platform Engineer",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractText(tc.input)
			if got != tc.want {
				t.Errorf("extractText(%q)\n got  %q\n want %q", tc.input, got, tc.want)
			}
		})
	}
}
