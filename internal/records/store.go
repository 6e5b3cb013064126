// Package records is a SQLite-backed gown inventory store.
//
// It implements both kiosk collaborators: the lookup side (flow.Lookup,
// via Lookup) and the mutation side (exec.Backend). Mutations use
// compare-and-swap UPDATEs on the assigned flag, which is the backend
// contract the kiosk core relies on when several kiosks target the same
// record concurrently.
package records

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Record is one gown inventory row.
type Record struct {
	ID         string
	EventID    string
	EventName  string
	Holder     string
	Assigned   bool
	Returnable bool
	DueAt      *time.Time
}

// Store wraps the inventory database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the inventory database at the given path.
// Idempotent; applies pragmas and schema automatically.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set user_version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns one record, or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, event_name, holder, assigned, returnable, due_at
		FROM gown_records WHERE id = ?
	`, id)

	var (
		rec      Record
		assigned int
		ret      int
		dueAt    sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.EventID, &rec.EventName, &rec.Holder, &assigned, &ret, &dueAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	rec.Assigned = assigned != 0
	rec.Returnable = ret != 0
	if dueAt.Valid && dueAt.String != "" {
		ts, err := time.Parse(time.RFC3339, dueAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse due_at: %w", err)
		}
		rec.DueAt = &ts
	}
	return &rec, nil
}

// Put inserts or replaces a record. Used by seeding.
func (s *Store) Put(ctx context.Context, rec Record) error {
	var dueAt any
	if rec.DueAt != nil {
		dueAt = rec.DueAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gown_records (id, event_id, event_name, holder, assigned, returnable, due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id = excluded.event_id,
			event_name = excluded.event_name,
			holder = excluded.holder,
			assigned = excluded.assigned,
			returnable = excluded.returnable,
			due_at = excluded.due_at
	`, rec.ID, rec.EventID, rec.EventName, rec.Holder, boolInt(rec.Assigned), boolInt(rec.Returnable), dueAt)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
