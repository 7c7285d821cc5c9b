// Package sqlite keeps run history and unknown-pattern records in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	_ "modernc.org/sqlite"
)

var (
	_ output.ResultStore        = (*Store)(nil)
	_ output.UnknownPatternSink = (*Store)(nil)
)

var ErrNoRuns = errors.New("no runs recorded")

const schema = `
CREATE TABLE IF NOT EXISTS page_results (
	run_id         TEXT    NOT NULL,
	url            TEXT    NOT NULL,
	outcome        TEXT    NOT NULL,
	reason         TEXT    NOT NULL,
	ts             INTEGER NOT NULL,
	counters       TEXT    NOT NULL,
	captcha        INTEGER NOT NULL,
	processing_ms  INTEGER NOT NULL,
	issue          TEXT    NOT NULL,
	summary        TEXT    NOT NULL,
	trace_path     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, url)
);
CREATE INDEX IF NOT EXISTS idx_page_results_ts ON page_results(ts);
CREATE TABLE IF NOT EXISTS unknown_patterns (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	ts            INTEGER NOT NULL,
	combined_text TEXT    NOT NULL,
	attributes    TEXT    NOT NULL,
	element_type  TEXT    NOT NULL
);
`

type Store struct {
	db     *sql.DB
	logger output.LoggerPort
}

// Open opens or creates the database at path. ":memory:" keeps one
// connection so every query sees the same database.
func Open(path string, logger output.LoggerPort) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: output.OrNop(logger)}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveResults upserts by (run, url) in one transaction.
func (s *Store) SaveResults(ctx context.Context, results []entity.PageResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO page_results (run_id, url, outcome, reason, ts, counters, captcha, processing_ms, issue, summary, trace_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, url) DO UPDATE SET
	outcome = excluded.outcome,
	reason = excluded.reason,
	ts = excluded.ts,
	counters = excluded.counters,
	captcha = excluded.captcha,
	processing_ms = excluded.processing_ms,
	issue = excluded.issue,
	summary = excluded.summary,
	trace_path = excluded.trace_path`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		counters, err := json.Marshal(r.Counters)
		if err != nil {
			return fmt.Errorf("encode counters: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			r.RunID, r.URL, string(r.Outcome), r.Reason, r.Timestamp.UnixMilli(),
			string(counters), boolInt(r.CaptchaFound), r.ProcessingTime.Milliseconds(),
			string(r.Issue), r.Summary, r.TracePath,
		)
		if err != nil {
			return fmt.Errorf("save %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Results returns one run's pages in the order they were processed.
func (s *Store) Results(ctx context.Context, runID string) ([]entity.PageResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, url, outcome, reason, ts, counters, captcha, processing_ms, issue, summary, trace_path
FROM page_results WHERE run_id = ? ORDER BY ts, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []entity.PageResult
	for rows.Next() {
		var (
			r                   entity.PageResult
			outcome, issue      string
			counters            string
			ts, procMs, captcha int64
		)
		if err := rows.Scan(&r.RunID, &r.URL, &outcome, &r.Reason, &ts, &counters, &captcha, &procMs, &issue, &r.Summary, &r.TracePath); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(counters), &r.Counters); err != nil {
			return nil, fmt.Errorf("decode counters: %w", err)
		}
		r.Outcome = entity.Outcome(outcome)
		r.Issue = entity.Issue(issue)
		r.Timestamp = time.UnixMilli(ts)
		r.CaptchaFound = captcha != 0
		r.ProcessingTime = time.Duration(procMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the run with the most recent page.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM page_results ORDER BY ts DESC, rowid DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

func (s *Store) Record(ctx context.Context, p entity.UnknownPattern) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO unknown_patterns (ts, combined_text, attributes, element_type) VALUES (?, ?, ?, ?)`,
		p.Timestamp.UnixMilli(), p.CombinedText, string(attrs), p.ElementType)
	if err != nil {
		return fmt.Errorf("record unknown pattern: %w", err)
	}
	return nil
}

// UnknownPatterns returns the most recent records first.
func (s *Store) UnknownPatterns(ctx context.Context, limit int) ([]entity.UnknownPattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, combined_text, attributes, element_type FROM unknown_patterns ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unknown patterns: %w", err)
	}
	defer rows.Close()

	var out []entity.UnknownPattern
	for rows.Next() {
		var (
			p     entity.UnknownPattern
			ts    int64
			attrs string
		)
		if err := rows.Scan(&ts, &p.CombinedText, &attrs, &p.ElementType); err != nil {
			return nil, fmt.Errorf("scan unknown pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
		p.Timestamp = time.UnixMilli(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
