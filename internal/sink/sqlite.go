package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobscout/internal/model"
)

// SQLiteSink stores every enriched record as a new row in enriched_jobs.
// Rows are never updated or deduplicated.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the SQLite database at dbPath and ensures
// the enriched_jobs table exists.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS enriched_jobs (
		id              TEXT PRIMARY KEY,
		run_id          TEXT NOT NULL,
		title           TEXT NOT NULL,
		company_name    TEXT NOT NULL,
		location        TEXT NOT NULL,
		url             TEXT NOT NULL,
		email           TEXT NOT NULL DEFAULT '',
		job_description TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		source          TEXT NOT NULL DEFAULT '',
		language        TEXT NOT NULL DEFAULT '',
		scraped_at      DATETIME NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating enriched_jobs table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_enriched_jobs_status ON enriched_jobs(status, scraped_at)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating status index: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

// Append inserts job. Missing ids and timestamps are filled in.
func (s *SQLiteSink) Append(ctx context.Context, job model.StoredJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.ScrapedAt.IsZero() {
		job.ScrapedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enriched_jobs
			(id, run_id, title, company_name, location, url, email, job_description, status, source, language, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.RunID, job.Title, job.CompanyName, job.Location, job.URL,
		job.Email, job.Description, string(job.Status), job.Source, job.Language, job.ScrapedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.URL, err)
	}
	return nil
}

// List returns stored jobs newest first. An empty status returns every row.
func (s *SQLiteSink) List(ctx context.Context, status model.Status) ([]model.StoredJob, error) {
	query := `SELECT id, run_id, title, company_name, location, url, email, job_description, status, source, language, scraped_at
		FROM enriched_jobs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY scraped_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.StoredJob
	for rows.Next() {
		var j model.StoredJob
		var st string
		if err := rows.Scan(&j.ID, &j.RunID, &j.Title, &j.CompanyName, &j.Location, &j.URL,
			&j.Email, &j.Description, &st, &j.Source, &j.Language, &j.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		j.Status = model.Status(st)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return jobs, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
