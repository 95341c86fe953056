package browser

import (
	"math/rand/v2"
	"strings"
)

// DefaultUserAgents is the rotation set used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

// DefaultViewport matches a common desktop resolution.
var DefaultViewport = Viewport{Width: 1920, Height: 1080}

const DefaultAcceptLanguage = "en-US,en;q=0.9"

// RandomUserAgent picks one entry from pool, falling back to DefaultUserAgents when pool is empty.
func RandomUserAgent(pool []string) string {
	if len(pool) == 0 {
		pool = DefaultUserAgents
	}
	return pool[rand.IntN(len(pool))]
}

// localeFromAcceptLanguage returns the first language range of an
// Accept-Language value, e.g. "en-US" for "en-US,en;q=0.9".
func localeFromAcceptLanguage(v string) string {
	first, _, _ := strings.Cut(v, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}
