package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// BaseName builds the extension-less output path for a search, e.g.
// data/remote_go_developer_20240131_154500.
func BaseName(dir string, q model.Query, now time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(q.What), " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	if q.RemoteOnly {
		name = "remote_" + name
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s", name, now.Format("20060102_150405")))
}

func openAppend(path string) (*os.File, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	return f, info.Size() == 0, nil
}

// csvHeader is the column order of CSV output.
var csvHeader = []string{"title", "company_name", "location", "url", "email", "job_description", "status", "source", "language", "scraped_at"}

// CSVSink appends records to a CSV file, writing the header once when the file is new.
type CSVSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

// NewCSVSink opens path for appending.
func NewCSVSink(path string) (*CSVSink, error) {
	f, isNew, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	s := &CSVSink{path: path, f: f, w: csv.NewWriter(f)}
	if isNew {
		if err := s.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the output file.
func (s *CSVSink) Path() string { return s.path }

// Append writes one row and flushes it to the file.
func (s *CSVSink) Append(_ context.Context, job model.StoredJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		job.Title,
		job.CompanyName,
		job.Location,
		job.URL,
		job.Email,
		job.Description,
		string(job.Status),
		job.Source,
		job.Language,
		job.ScrapedAt.UTC().Format(time.RFC3339),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("csv append %s: %w", job.URL, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("csv append %s: %w", job.URL, err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// JSONLSink appends one JSON object per line.
type JSONLSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewJSONLSink opens path for appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, _, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{path: path, f: f}, nil
}

func (s *JSONLSink) Name() string { return "jsonl" }

// Path returns the output file.
func (s *JSONLSink) Path() string { return s.path }

// Append encodes job as a single line.
func (s *JSONLSink) Append(_ context.Context, job model.StoredJob) error {
	line, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jsonl encode %s: %w", job.URL, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("jsonl append %s: %w", job.URL, err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
