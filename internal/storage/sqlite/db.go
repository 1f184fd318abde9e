// Package sqlite stores per-run category counts so a report can show how
// each trend moved since the previous run. Rule sets are not stored.
package sqlite

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

type RunRecord struct {
	RunID      string
	RunDate    time.Time
	Total      int
	Unmatched  int
	Categories map[string]int
	RecordedAt time.Time
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a lexically sortable run identifier.
func NewRunID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id      TEXT PRIMARY KEY,
		run_date    DATETIME NOT NULL,
		total       INTEGER NOT NULL,
		unmatched   INTEGER NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(run_date);

	CREATE TABLE IF NOT EXISTS category_counts (
		run_id   TEXT NOT NULL,
		label    TEXT NOT NULL,
		count    INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (run_id, label)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InsertRun stores a run and its category counts in one transaction. labels
// gives the order counts are stored in.
func InsertRun(db *sql.DB, run RunRecord, labels []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, run_date, total, unmatched) VALUES (?, ?, ?, ?)`,
		run.RunID, run.RunDate, run.Total, run.Unmatched,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO category_counts (run_id, label, count, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, label := range labels {
		if _, err := stmt.Exec(run.RunID, label, run.Categories[label], i); err != nil {
			return fmt.Errorf("insert category %q: %w", label, err)
		}
	}
	return tx.Commit()
}

// LatestRunBefore returns the most recent run whose run_id sorts before
// runID, or nil when there is none.
func LatestRunBefore(db *sql.DB, runID string) (*RunRecord, error) {
	var run RunRecord
	err := db.QueryRow(
		`SELECT run_id, run_date, total, unmatched, recorded_at FROM runs
		 WHERE run_id < ? ORDER BY run_id DESC LIMIT 1`,
		runID,
	).Scan(&run.RunID, &run.RunDate, &run.Total, &run.Unmatched, &run.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT label, count FROM category_counts WHERE run_id = ? ORDER BY position`, run.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	run.Categories = make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		run.Categories[label] = count
	}
	return &run, rows.Err()
}

func CountRuns(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}
