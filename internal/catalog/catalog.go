// Package catalog persists a history of sweep batches to a local SQLite
// database so repeated characterizations of the same design can be
// compared later. Recording is best-effort: callers log catalog failures
// instead of failing the sweep.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"emixa/internal/characterization"
)

const schema = `
CREATE TABLE IF NOT EXISTS characterizations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	test       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	module     TEXT NOT NULL,
	signed     INTEGER NOT NULL,
	width      INTEGER NOT NULL,
	params     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_characterizations_test ON characterizations(test);
`

// Entry is one recorded characterization.
type Entry struct {
	RunID     string
	Test      string
	Kind      characterization.Kind
	Module    characterization.ModuleKind
	Signed    bool
	Width     int
	Params    []string
	CreatedAt time.Time
}

// Catalog wraps the backing database.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordBatch stores one row per result of a completed sweep batch,
// atomically.
func (c *Catalog) RecordBatch(ctx context.Context, runID string, results []characterization.Result) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, res := range results {
		m := res.Metadata()
		signed := 0
		if m.Signed {
			signed = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO characterizations (run_id, test, kind, module, signed, width, params, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, m.Name, string(res.Kind()), string(m.Module), signed, m.Width,
			strings.Join(m.Params, " "), now)
		if err != nil {
			return fmt.Errorf("recording characterization for %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// Recent returns the newest n entries, most recent first.
func (c *Catalog) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT run_id, test, kind, module, signed, width, params, created_at
		 FROM characterizations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, module, params string
		var signed int
		var created int64
		if err := rows.Scan(&e.RunID, &e.Test, &kind, &module, &signed, &e.Width, &params, &created); err != nil {
			return nil, err
		}
		e.Kind = characterization.Kind(kind)
		e.Module = characterization.ModuleKind(module)
		e.Signed = signed != 0
		if params != "" {
			e.Params = strings.Split(params, " ")
		}
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
