// Package matchup persists satellite values extracted at observation points.
package matchup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 500

// Record is one extracted point of one satellite file.
type Record struct {
	ID        int64           `json:"id"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Date      time.Time       `json:"date"`
	File      string          `json:"file"`
	Values    json.RawMessage `json:"values"` // Ordered JSON object of variable values.
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the persistence interface used by the extraction service.
type Store interface {
	Save(ctx context.Context, records []Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// SQLiteStore implements Store on the pure Go sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path and applies the schema.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match-up database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS matchups (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        lat REAL NOT NULL,
        lon REAL NOT NULL,
        date TEXT NOT NULL,
        file TEXT NOT NULL,
        vals TEXT NOT NULL,
        created_at TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS matchups_date ON matchups(date);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save inserts records in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matchups(lat, lon, date, file, vals, created_at) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if !json.Valid(r.Values) {
			return fmt.Errorf("match-up values for %s are not valid JSON", r.File)
		}
		if _, err := stmt.ExecContext(ctx, r.Lat, r.Lon, r.Date.UTC().Format(time.RFC3339), r.File, string(r.Values), now); err != nil {
			return fmt.Errorf("failed to insert match-up: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the most recent records, newest file date first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lat, lon, date, file, vals, created_at FROM matchups ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		var date, created, vals string
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon, &date, &r.File, &vals, &created); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("match-up %d: %w", r.ID, err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		r.Values = json.RawMessage(vals)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
