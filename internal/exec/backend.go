package exec

import (
	"context"
	"log/slog"
)

// Backend is the mutation collaborator for resource state.
//
// Both calls must be idempotent when retried with the same operation key:
// the offline queue replays operations after crashes, and a replayed
// release of an already-released resource must be a no-op.
//
// The backend, not the kiosk, owns serialization of concurrent claims on
// the same resource: multiple kiosks can race on one gown record, and the
// kiosk performs a read-then-write, so the backend must compare-and-swap
// the availability flag.
type Backend interface {
	AssignResource(ctx context.Context, sessionID, resourceID string, extra map[string]string) error
	ReleaseResource(ctx context.Context, sessionID, resourceID string) error
}

// LogBackend is a Backend that only logs.
// Used by operator tooling when no mutation endpoint is configured.
type LogBackend struct {
	Logger *slog.Logger
}

func (b LogBackend) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b LogBackend) AssignResource(_ context.Context, sessionID, resourceID string, extra map[string]string) error {
	b.logger().Info("assign resource", "session", sessionID, "resource", resourceID, "extra", extra)
	return nil
}

func (b LogBackend) ReleaseResource(_ context.Context, sessionID, resourceID string) error {
	b.logger().Info("release resource", "session", sessionID, "resource", resourceID)
	return nil
}
