package notifier

import (
	"fmt"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// queryTitle renders a query as a short human-readable label.
func queryTitle(q model.Query) string {
	var b strings.Builder
	b.WriteString(q.What)
	if q.Where != "" {
		b.WriteString(" in ")
		b.WriteString(q.Where)
	}
	if q.RemoteOnly {
		b.WriteString(" (remote)")
	}
	return b.String()
}

// counters returns the summary as ordered label/value pairs.
func counters(s model.Summary) [][2]string {
	return [][2]string{
		{"Fetched", fmt.Sprint(s.Fetched)},
		{"Processed", fmt.Sprint(s.Processed)},
		{"Saved", fmt.Sprint(s.Saved)},
		{"Blocked", fmt.Sprint(s.Blocked)},
		{"Failed", fmt.Sprint(s.Failed)},
		{"Filtered", fmt.Sprint(s.Filtered)},
		{"Skipped", fmt.Sprint(s.Skipped)},
	}
}
