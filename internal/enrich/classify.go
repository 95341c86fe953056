package enrich

import (
	"regexp"
	"strings"
)

// blockMarkers are phrases anti-bot interstitials show instead of the posting.
var blockMarkers = []string{
	"suspicious behaviour",
	"access denied",
}

// IsBlocked reports whether text looks like a bot-detection page.
func IsBlocked(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)

// placeholderDomains appear in page boilerplate and are never a real contact.
var placeholderDomains = []string{
	"example.com",
	"sentry.io",
}

// ExtractEmail returns the first address in text that does not belong to a
// placeholder domain, or "" when there is none.
func ExtractEmail(text string) string {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		if !isPlaceholder(candidate) {
			return candidate
		}
	}
	return ""
}

func isPlaceholder(email string) bool {
	for _, d := range placeholderDomains {
		if strings.Contains(email, d) {
			return true
		}
	}
	return false
}
