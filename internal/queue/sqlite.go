package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// SQLiteQueue is the durable Queue implementation.
// Uses SQLite with WAL mode; an Exec that returns without error has
// reached the WAL, which is the durable ack Enqueue promises.
type SQLiteQueue struct {
	db *sql.DB
}

// Open creates or opens the queue database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*SQLiteQueue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteQueue{db: db}, nil
}

// Close closes the database connection.
func (q *SQLiteQueue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Enqueue durably stores an operation and returns its UUIDv7 ID.
// The ID only escapes this function after ExecContext has returned,
// so callers observing an ID hold a durable ack.
func (q *SQLiteQueue) Enqueue(ctx context.Context, kind string, payload any) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("enqueue: marshal payload: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO pending_operations (id, kind, payload, enqueued_at, status)
		VALUES (?, ?, ?, ?, ?)
	`,
		id,
		kind,
		string(payloadJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusPending),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	return id, nil
}

// Pending returns not-yet-replayed operations in enqueue order.
func (q *SQLiteQueue) Pending(ctx context.Context) ([]PendingOperation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, kind, payload, enqueued_at, status
		FROM pending_operations
		WHERE status = ?
		ORDER BY enqueued_at, id
	`, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}
	defer rows.Close()

	var ops []PendingOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("pending: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}
	return ops, nil
}

// All returns every operation regardless of status, in enqueue order.
func (q *SQLiteQueue) All(ctx context.Context) ([]PendingOperation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, kind, payload, enqueued_at, status
		FROM pending_operations
		ORDER BY enqueued_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}
	defer rows.Close()

	var ops []PendingOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("all: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}
	return ops, nil
}

// MarkReplayed flips an operation to replayed.
// Idempotent: an already-replayed ID is a no-op. An unknown ID is an error
// since it means the caller is confirming an operation that was never queued.
func (q *SQLiteQueue) MarkReplayed(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE pending_operations
		SET status = ?, replayed_at = ?
		WHERE id = ? AND status = ?
	`,
		string(StatusReplayed),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark replayed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark replayed: %w", err)
	}
	if n == 0 {
		// Distinguish "already replayed" (fine) from "never existed" (not).
		var status string
		err := q.db.QueryRowContext(ctx,
			"SELECT status FROM pending_operations WHERE id = ?", id,
		).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("mark replayed: unknown operation %q", id)
		}
		if err != nil {
			return fmt.Errorf("mark replayed: %w", err)
		}
	}
	return nil
}

func scanOperation(rows *sql.Rows) (PendingOperation, error) {
	var (
		op         PendingOperation
		payload    string
		enqueuedAt string
		status     string
	)
	if err := rows.Scan(&op.ID, &op.Kind, &payload, &enqueuedAt, &status); err != nil {
		return PendingOperation{}, fmt.Errorf("scan operation: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, enqueuedAt)
	if err != nil {
		return PendingOperation{}, fmt.Errorf("parse enqueued_at: %w", err)
	}

	op.Payload = json.RawMessage(payload)
	op.EnqueuedAt = ts
	op.Status = Status(status)
	return op, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
