// Package catalog implements the on-disk session journal. It records
// capture batches and export history in SQLite so a frontend can show
// what was scanned and where it went, across sessions. The journal is
// optional: the session core runs fully in memory without it.
package catalog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sheafscan/sheaf/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// dbFileName is the catalog database file inside the catalog directory.
const dbFileName = "catalog.db"

// Batch outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeComplete  = "complete"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Catalog is a SQLite-backed journal. Safe for concurrent use.
type Catalog struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates the catalog directory if needed and opens the journal,
// creating the schema on first use. Existing records are preserved.
func Open(dir string) (*Catalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database. Idempotent.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// BeginBatch records the start of a capture run and returns its ID.
func (c *Catalog) BeginBatch(deviceID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return "", types.ErrSessionClosed
	}

	id := newUUID()
	_, err := c.db.Exec(
		`INSERT INTO batches (batch_id, device_id, started_at, outcome, pages) VALUES (?, ?, ?, ?, 0)`,
		id, deviceID, time.Now().UTC().Format(time.RFC3339Nano), OutcomeRunning)
	if err != nil {
		return "", fmt.Errorf("record batch start: %w", err)
	}
	return id, nil
}

// FinishBatch closes out a capture run with its outcome and page count.
func (c *Catalog) FinishBatch(batchID, outcome string, pages int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return types.ErrSessionClosed
	}

	res, err := c.db.Exec(
		`UPDATE batches SET finished_at = ?, outcome = ?, pages = ? WHERE batch_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), outcome, pages, batchID)
	if err != nil {
		return fmt.Errorf("record batch finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish batch %s: %w", batchID, sql.ErrNoRows)
	}
	return nil
}

// Batches returns all recorded capture runs, most recent first.
func (c *Catalog) Batches() ([]types.BatchRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, types.ErrSessionClosed
	}

	// rowid reflects insertion order; the RFC3339Nano text trims
	// fractional zeros and does not sort reliably.
	rows, err := c.db.Query(
		`SELECT batch_id, device_id, started_at, finished_at, outcome, pages
		 FROM batches ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []types.BatchRecord
	for rows.Next() {
		var b types.BatchRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&b.BatchID, &b.DeviceID, &started, &finished, &b.Outcome, &b.Pages); err != nil {
			return nil, err
		}
		if b.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse batch timestamp: %w", err)
		}
		if finished.Valid {
			ts, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parse batch timestamp: %w", err)
			}
			b.FinishedAt = &ts
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordExport journals a written artifact.
func (c *Catalog) RecordExport(doc types.Document, path, format string, pages int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return "", types.ErrSessionClosed
	}

	id := newUUID()
	_, err := c.db.Exec(
		`INSERT INTO exports (export_id, document_id, title, path, format, pages, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, doc.DocumentID, doc.Title, path, format, pages,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("record export: %w", err)
	}
	return id, nil
}

// Exports returns all recorded artifacts, most recent first.
func (c *Catalog) Exports() ([]types.ExportRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, types.ErrSessionClosed
	}

	rows, err := c.db.Query(
		`SELECT export_id, document_id, title, path, format, pages, exported_at
		 FROM exports ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []types.ExportRecord
	for rows.Next() {
		var e types.ExportRecord
		var ts string
		if err := rows.Scan(&e.ExportID, &e.DocumentID, &e.Title, &e.Path, &e.Format, &e.Pages, &ts); err != nil {
			return nil, err
		}
		if e.ExportedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse export timestamp: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
