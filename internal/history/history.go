// Package history keeps an SQLite journal of batches and per-file outcomes.
// The journal is an audit trail for --history; it is never read back to
// resume or skip work.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/backmassage/smbfix/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	input_dir TEXT NOT NULL,
	output_dir TEXT,
	policy TEXT NOT NULL,
	preset TEXT NOT NULL,
	encoder TEXT,
	dry_run INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	encoded INTEGER,
	skipped INTEGER,
	failed INTEGER,
	input_bytes INTEGER,
	output_bytes INTEGER,
	cancelled INTEGER
);

CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id TEXT NOT NULL REFERENCES batches(id),
	source TEXT NOT NULL,
	destination TEXT,
	streams TEXT,
	outcome TEXT NOT NULL,
	error TEXT,
	input_bytes INTEGER NOT NULL DEFAULT 0,
	output_bytes INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_batch ON results(batch_id);
CREATE INDEX IF NOT EXISTS idx_results_source ON results(source);
`

// Journal records batches into an SQLite database. It implements
// pipeline.Recorder.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

var _ pipeline.Recorder = (*Journal)(nil)

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One connection: every write comes from the batch goroutine.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginBatch inserts the batch row.
func (j *Journal) BeginBatch(ctx context.Context, b pipeline.BatchInfo) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO batches (id, input_dir, output_dir, policy, preset, encoder, dry_run, total, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.InputDir, b.OutputDir, string(b.Policy), b.Preset.Label(), b.Encoder,
		b.DryRun, b.Total, b.Started.UnixMilli())
	if err != nil {
		return fmt.Errorf("record batch %s: %w", b.ID, err)
	}
	return nil
}

// RecordFile appends one per-file result.
func (j *Journal) RecordFile(ctx context.Context, r pipeline.FileResult) error {
	var errText sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO results (batch_id, source, destination, streams, outcome, error,
			input_bytes, output_bytes, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.BatchID, r.File.Path, r.Destination, r.Info.String(), r.Outcome.String(), errText,
		r.InputBytes, r.OutputBytes, r.Duration.Milliseconds(), j.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record %s: %w", r.File.Path, err)
	}
	return nil
}

// EndBatch stores the batch totals.
func (j *Journal) EndBatch(ctx context.Context, s pipeline.RunStats) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE batches SET finished_at = ?, encoded = ?, skipped = ?, failed = ?,
			input_bytes = ?, output_bytes = ?, cancelled = ?
		WHERE id = ?
	`, j.now().UnixMilli(), s.Encoded, s.Skipped, s.Failed+s.FinalizeFailed,
		s.TotalInputBytes, s.TotalOutputBytes, s.Cancelled, s.BatchID)
	if err != nil {
		return fmt.Errorf("finish batch %s: %w", s.BatchID, err)
	}
	return nil
}

// Entry is one journaled per-file result.
type Entry struct {
	BatchID     string
	Source      string
	Destination string
	Streams     string
	Outcome     string
	Error       string
	InputBytes  int64
	OutputBytes int64
	Duration    time.Duration
	RecordedAt  time.Time
}

// Recent returns the newest limit results, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT batch_id, source, COALESCE(destination, ''), COALESCE(streams, ''), outcome,
			COALESCE(error, ''), input_bytes, output_bytes, duration_ms, recorded_at
		FROM results
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durMS, recMS int64
		if err := rows.Scan(&e.BatchID, &e.Source, &e.Destination, &e.Streams, &e.Outcome,
			&e.Error, &e.InputBytes, &e.OutputBytes, &durMS, &recMS); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Duration = time.Duration(durMS) * time.Millisecond
		e.RecordedAt = time.UnixMilli(recMS)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Batch is one journaled batch with its totals. Finished is zero for a
// batch that never reached EndBatch (e.g. the process was killed).
type Batch struct {
	ID          string
	InputDir    string
	OutputDir   string
	Policy      string
	Preset      string
	Encoder     string
	DryRun      bool
	Total       int
	Started     time.Time
	Finished    time.Time
	Encoded     int
	Skipped     int
	Failed      int
	InputBytes  int64
	OutputBytes int64
	Cancelled   bool
}

// Batches returns the newest limit batches, newest first.
func (j *Journal) Batches(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, input_dir, COALESCE(output_dir, ''), policy, preset, COALESCE(encoder, ''),
			dry_run, total, started_at, finished_at, COALESCE(encoded, 0), COALESCE(skipped, 0),
			COALESCE(failed, 0), COALESCE(input_bytes, 0), COALESCE(output_bytes, 0),
			COALESCE(cancelled, 0)
		FROM batches
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		var startedMS int64
		var finishedMS sql.NullInt64
		if err := rows.Scan(&b.ID, &b.InputDir, &b.OutputDir, &b.Policy, &b.Preset, &b.Encoder,
			&b.DryRun, &b.Total, &startedMS, &finishedMS, &b.Encoded, &b.Skipped,
			&b.Failed, &b.InputBytes, &b.OutputBytes, &b.Cancelled); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		b.Started = time.UnixMilli(startedMS)
		if finishedMS.Valid {
			b.Finished = time.UnixMilli(finishedMS.Int64)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
