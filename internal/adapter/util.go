package adapter

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText turns an HTML fragment into plain text. Search APIs wrap
// matched keywords in tags (Adzuna returns "<strong>Go</strong> Developer"),
// sometimes entity-encoded.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}
