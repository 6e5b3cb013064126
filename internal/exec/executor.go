// Package exec executes validated operations against a live backend when
// online, or hands them to the durable offline queue when not, and
// reconciles the two paths into a single outcome.
package exec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gradhall/kiosk/internal/queue"
)

// OpKind identifies the shape of a state-changing operation.
type OpKind string

const (
	// OpAssign assigns a resource to a holder.
	OpAssign OpKind = "assign"
	// OpRelease returns a resource to the pool.
	OpRelease OpKind = "release"
	// OpSwap releases the old resource then assigns the new one,
	// as a single logical unit.
	OpSwap OpKind = "swap"
)

// Operation is one validated, executable state change.
// JSON tags define the offline queue payload format.
type Operation struct {
	Kind      OpKind            `json:"kind"`
	SessionID string            `json:"session_id"`
	Release   string            `json:"release,omitempty"`
	Assign    string            `json:"assign,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
	Key       string            `json:"key"`
}

// OutcomeKind tags the executor result.
type OutcomeKind int

const (
	// OutcomeOnline means the backend applied the operation.
	OutcomeOnline OutcomeKind = iota + 1
	// OutcomeQueued means the operation was durably queued for replay.
	OutcomeQueued
	// OutcomeFailed means the operation did not fully apply.
	OutcomeFailed
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOnline:
		return "online"
	case OutcomeQueued:
		return "queued"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single reconciled result of Execute.
type Outcome struct {
	Kind      OutcomeKind
	PendingID string // set when Kind == OutcomeQueued
	Err       error  // set when Kind == OutcomeFailed
}

// ErrQueueWrite marks a failed offline-durability write. An operation
// carrying this error was NOT queued and must never be reported as queued.
var ErrQueueWrite = errors.New("offline queue write failed")

// PartialError reports a multi-step operation that applied some steps and
// then failed. It carries enough detail for manual reconciliation and is
// never collapsed into a plain success or a clean failure.
type PartialError struct {
	Op        Operation
	Completed []string
	Step      string
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("operation %s partially applied: step %q failed after [%s]: %v",
		e.Op.Key, e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Executor routes operations to the backend or the offline queue based on
// connectivity observed at execution time.
type Executor struct {
	backend Backend
	queue   queue.Queue
	conn    Connectivity
	keys    KeyGenerator
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithKeyGenerator overrides the operation key generator (for testing).
func WithKeyGenerator(g KeyGenerator) Option {
	return func(e *Executor) { e.keys = g }
}

// New creates an Executor.
func New(backend Backend, q queue.Queue, conn Connectivity, opts ...Option) *Executor {
	e := &Executor{
		backend: backend,
		queue:   q,
		conn:    conn,
		keys:    UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Online reports the connectivity the next Execute would observe.
// Callers sizing watchdog bounds use this; the executor re-checks at
// execution time, so the answer is advisory.
func (e *Executor) Online() bool {
	return e.conn.Online()
}

// Execute applies one operation and returns the reconciled outcome.
//
// Online: backend calls are awaited; a swap's release-then-assign is one
// logical unit - a second-step failure after a successful first step
// reports OutcomeFailed with a PartialError, never a silent success.
//
// Offline: the operation is written to the offline queue, and
// OutcomeQueued is returned only after the write's durable ack. A queue
// write failure is OutcomeFailed wrapping ErrQueueWrite.
func (e *Executor) Execute(ctx context.Context, op Operation) Outcome {
	if op.Key == "" {
		op.Key = e.keys.Generate()
	}

	if e.conn.Online() {
		return e.executeOnline(ctx, op)
	}
	return e.enqueueOffline(ctx, op)
}

func (e *Executor) executeOnline(ctx context.Context, op Operation) Outcome {
	var completed []string

	if op.Release != "" {
		if err := e.backend.ReleaseResource(ctx, op.SessionID, op.Release); err != nil {
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("release %s: %w", op.Release, err)}
		}
		completed = append(completed, "release "+op.Release)
	}

	if op.Assign != "" {
		if err := e.backend.AssignResource(ctx, op.SessionID, op.Assign, op.Extra); err != nil {
			if len(completed) > 0 {
				perr := &PartialError{Op: op, Completed: completed, Step: "assign " + op.Assign, Err: err}
				e.logger.Error("operation partially applied, manual reconciliation required",
					"key", op.Key, "completed", completed, "error", err)
				return Outcome{Kind: OutcomeFailed, Err: perr}
			}
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("assign %s: %w", op.Assign, err)}
		}
	}

	e.logger.Debug("operation applied online", "key", op.Key, "kind", op.Kind)
	return Outcome{Kind: OutcomeOnline}
}

func (e *Executor) enqueueOffline(ctx context.Context, op Operation) Outcome {
	id, err := e.queue.Enqueue(ctx, string(op.Kind), op)
	if err != nil {
		// Fatal to this cycle: the UI must not report "queued" success.
		e.logger.Error("offline queue write failed", "key", op.Key, "error", err)
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("%w: %v", ErrQueueWrite, err)}
	}

	e.logger.Info("operation queued for replay", "key", op.Key, "kind", op.Kind, "pending_id", id)
	return Outcome{Kind: OutcomeQueued, PendingID: id}
}

// DecodeOperation parses a queued payload back into an Operation.
// Used by replay tooling.
func DecodeOperation(op queue.PendingOperation) (Operation, error) {
	var out Operation
	if err := json.Unmarshal(op.Payload, &out); err != nil {
		return Operation{}, fmt.Errorf("decode operation %s: %w", op.ID, err)
	}
	return out, nil
}

// Apply executes a decoded queued operation against the backend directly.
// Used by replay, which runs only when connectivity has returned.
func (e *Executor) Apply(ctx context.Context, op Operation) error {
	out := e.executeOnline(ctx, op)
	if out.Kind == OutcomeFailed {
		return out.Err
	}
	return nil
}
