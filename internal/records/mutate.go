package records

import (
	"context"
	"fmt"
)

// AssignResource claims a record for a holder with a compare-and-swap on
// the assigned flag. Implements exec.Backend.
//
// Idempotent on retry: a record already assigned to the same session is a
// no-op success, so a replayed queued operation cannot fail spuriously.
// A record assigned to someone else is a conflict - the other kiosk won
// the race.
//
// With extra["create"] == "true", a missing record is created and
// assigned in one step (the create-new confirmation branch).
func (s *Store) AssignResource(ctx context.Context, sessionID, resourceID string, extra map[string]string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gown_records
		SET assigned = 1, holder = ?
		WHERE id = ? AND assigned = 0
	`, sessionID, resourceID)
	if err != nil {
		return fmt.Errorf("assign %s: %w", resourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign %s: %w", resourceID, err)
	}
	if n == 1 {
		return nil
	}

	rec, err := s.Get(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("assign %s: %w", resourceID, err)
	}
	if rec == nil {
		if extra["create"] != "true" {
			return fmt.Errorf("assign %s: no such record", resourceID)
		}
		return s.Put(ctx, Record{
			ID:         resourceID,
			EventID:    extra["event"],
			Holder:     sessionID,
			Assigned:   true,
			Returnable: true,
		})
	}
	if rec.Holder == sessionID {
		// Retried operation; already applied.
		return nil
	}
	return fmt.Errorf("assign %s: already assigned to another holder", resourceID)
}

// ReleaseResource returns a record to the pool with a compare-and-swap.
// Implements exec.Backend. Releasing an already-released record is a
// no-op success for the same replay reason as AssignResource.
func (s *Store) ReleaseResource(ctx context.Context, sessionID, resourceID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gown_records
		SET assigned = 0, holder = ''
		WHERE id = ? AND assigned = 1
	`, resourceID)
	if err != nil {
		return fmt.Errorf("release %s: %w", resourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release %s: %w", resourceID, err)
	}
	if n == 1 {
		return nil
	}

	rec, err := s.Get(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("release %s: %w", resourceID, err)
	}
	if rec == nil {
		return fmt.Errorf("release %s: no such record", resourceID)
	}
	// Already released; retried operation.
	return nil
}
