package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Status tracks the lifecycle of a pending operation.
type Status string

const (
	// StatusPending means the operation has not been applied to the backend.
	StatusPending Status = "pending"
	// StatusReplayed means the operation was applied during a replay pass.
	StatusReplayed Status = "replayed"
)

// PendingOperation is one durably queued state-changing operation.
type PendingOperation struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Status     Status          `json:"status"`
}

// Queue is the durable offline queue collaborator.
//
// Enqueue returns only after the write is durable; returning earlier would
// let the UI claim "queued" for an operation that could still be lost.
type Queue interface {
	// Enqueue durably stores an operation and returns its ID.
	Enqueue(ctx context.Context, kind string, payload any) (string, error)

	// Pending returns not-yet-replayed operations in enqueue order.
	Pending(ctx context.Context) ([]PendingOperation, error)

	// MarkReplayed records that an operation was applied.
	// Idempotent: marking an already-replayed operation is a no-op.
	MarkReplayed(ctx context.Context, id string) error
}
