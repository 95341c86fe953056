package filter

import (
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// KeywordFilter decides which postings are worth visiting before any page is
// opened. A job must contain an include keyword in its title (when any are
// set) and a location keyword (when any are set), and must contain none of
// the exclude keywords. Matching is case-insensitive substring search.
type KeywordFilter struct {
	titleInclude    []string
	titleExclude    []string
	locationInclude []string
	locationExclude []string
}

// NewKeywordFilter lowercases all keywords once. Empty include lists match everything.
func NewKeywordFilter(titleInclude, titleExclude, locationInclude, locationExclude []string) *KeywordFilter {
	return &KeywordFilter{
		titleInclude:    lowerAll(titleInclude),
		titleExclude:    lowerAll(titleExclude),
		locationInclude: lowerAll(locationInclude),
		locationExclude: lowerAll(locationExclude),
	}
}

// Match reports whether job passes every configured rule.
func (f *KeywordFilter) Match(job model.JobRecord) bool {
	title := strings.ToLower(job.Title)
	location := strings.ToLower(job.Location)

	if len(f.titleInclude) > 0 && !containsAny(title, f.titleInclude) {
		return false
	}
	if containsAny(title, f.titleExclude) {
		return false
	}
	if len(f.locationInclude) > 0 && !containsAny(location, f.locationInclude) {
		return false
	}
	if containsAny(location, f.locationExclude) {
		return false
	}
	return true
}

// Empty reports whether the filter has no rules and so matches every job.
func (f *KeywordFilter) Empty() bool {
	return len(f.titleInclude)+len(f.titleExclude)+len(f.locationInclude)+len(f.locationExclude) == 0
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
