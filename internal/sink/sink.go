// Package sink persists enriched job records. Every sink is append-only;
// repeated runs add new rows.
package sink

import (
	"fmt"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Open creates one sink per format ("csv", "jsonl", "sqlite"). File sinks are
// named after the query and now; the SQLite sink uses sqlitePath. On error
// any sink already opened is closed.
func Open(formats []string, dir, sqlitePath string, q model.Query, now time.Time) ([]model.Sink, error) {
	base := BaseName(dir, q, now)

	var sinks []model.Sink
	for _, format := range formats {
		var (
			s   model.Sink
			err error
		)
		switch format {
		case "csv":
			s, err = NewCSVSink(base + ".csv")
		case "jsonl":
			s, err = NewJSONLSink(base + ".jsonl")
		case "sqlite":
			s, err = NewSQLiteSink(sqlitePath)
		default:
			err = fmt.Errorf("unknown sink format %q", format)
		}
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink and returns the first error.
func CloseAll(sinks []model.Sink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing %s sink: %w", s.Name(), err)
		}
	}
	return first
}
