package queue

import (
	"context"
	"fmt"
	"log/slog"
)

// ApplyFunc applies one queued operation against the backend.
// Backends must be idempotent per operation key, so a crash between apply
// and MarkReplayed only costs a harmless re-apply on the next pass.
type ApplyFunc func(ctx context.Context, op PendingOperation) error

// Replay applies every pending operation in enqueue order.
//
// Stops at the first failing operation and returns the number applied so
// far: operations behind a failure must not be reordered past it, since
// later operations may depend on earlier ones (a swap's assign follows
// its release).
func (q *SQLiteQueue) Replay(ctx context.Context, apply ApplyFunc) (int, error) {
	ops, err := q.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("replay: %w", err)
	}

	applied := 0
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return applied, fmt.Errorf("replay: %w", err)
		}

		if err := apply(ctx, op); err != nil {
			return applied, fmt.Errorf("replay %s (%s): %w", op.ID, op.Kind, err)
		}
		if err := q.MarkReplayed(ctx, op.ID); err != nil {
			return applied, fmt.Errorf("replay %s: %w", op.ID, err)
		}

		slog.Info("replayed offline operation", "id", op.ID, "kind", op.Kind)
		applied++
	}
	return applied, nil
}
