// Package datasource persists pipeline run history to a local SQLite
// database so the dashboard can show how the current run compares with
// earlier ones.
package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
)

// RunOutcome classifies how a recorded step run ended.
type RunOutcome string

const (
	OutcomeOK       RunOutcome = "ok"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// RunEntry is one recorded pipeline step execution.
type RunEntry struct {
	ID       int64
	Step     string
	Started  time.Time
	Duration time.Duration
	Outcome  RunOutcome
	// Summary holds the aggregated simulation metrics for steps that
	// produce them, nil otherwise.
	Summary *pipeline.Summary
}

// History is a run-history store backed by SQLite.
type History struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	step        TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	summary     TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_step_started ON runs(step, started_at DESC);
`

// OpenHistory opens (creating if needed) the run-history database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create history directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize history schema: %w", err)
	}

	return &History{db: db, path: path}, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (h *History) Path() string {
	return h.path
}

// Record inserts a run entry and returns it with its assigned ID.
func (h *History) Record(entry RunEntry) (RunEntry, error) {
	if !pipeline.Valid(entry.Step) {
		return entry, fmt.Errorf("unknown step: %s", entry.Step)
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeOK
	}

	var summaryJSON sql.NullString
	if entry.Summary != nil {
		raw, err := json.Marshal(entry.Summary)
		if err != nil {
			return entry, fmt.Errorf("cannot encode summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(raw), Valid: true}
	}

	res, err := h.db.Exec(
		`INSERT INTO runs (step, started_at, duration_ms, outcome, summary) VALUES (?, ?, ?, ?, ?)`,
		entry.Step, entry.Started.UTC(), entry.Duration.Milliseconds(), string(entry.Outcome), summaryJSON,
	)
	if err != nil {
		return entry, fmt.Errorf("cannot record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return entry, fmt.Errorf("cannot read inserted id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// Recent returns up to limit most recent runs for the given step, newest
// first. An empty step returns runs across all steps.
func (h *History) Recent(step string, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, step, started_at, duration_ms, outcome, summary FROM runs`
	args := []any{}
	if step != "" {
		query += ` WHERE step = ?`
		args = append(args, step)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		entry, err := scanRun(rows)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return entries, nil
}

// Last returns the most recent run of a step, or nil if it never ran.
func (h *History) Last(step string) (*RunEntry, error) {
	entries, err := h.Recent(step, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Count returns the number of recorded runs for a step; an empty step
// counts everything.
func (h *History) Count(step string) (int, error) {
	var (
		count int
		err   error
	)
	if step == "" {
		err = h.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	} else {
		err = h.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE step = ?`, step).Scan(&count)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastModified returns the start time of the newest recorded run.
func (h *History) LastModified() (time.Time, error) {
	var started sql.NullTime
	if err := h.db.QueryRow(`SELECT MAX(started_at) FROM runs`).Scan(&started); err != nil {
		return time.Time{}, err
	}
	if !started.Valid {
		return time.Time{}, nil
	}
	return started.Time, nil
}

func scanRun(rows *sql.Rows) (RunEntry, error) {
	var (
		entry      RunEntry
		started    sql.NullTime
		durationMS int64
		outcome    string
		summary    sql.NullString
	)
	if err := rows.Scan(&entry.ID, &entry.Step, &started, &durationMS, &outcome, &summary); err != nil {
		return entry, err
	}
	if started.Valid {
		entry.Started = started.Time
	}
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.Outcome = RunOutcome(outcome)
	if summary.Valid && summary.String != "" && summary.String != "null" {
		var s pipeline.Summary
		if err := json.Unmarshal([]byte(summary.String), &s); err == nil {
			entry.Summary = &s
		}
	}
	return entry, nil
}
