package records

import (
	"context"
	"fmt"
	"time"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/flow"
)

// Lookup adapts the store to flow.Lookup for the given operation shape.
// Assign-like surfaces treat an assigned record as a conflict; release
// surfaces care about returnability and lateness instead.
func (s *Store) Lookup(op exec.OpKind) flow.Lookup {
	return &lookupAdapter{store: s, op: op, now: time.Now}
}

type lookupAdapter struct {
	store *Store
	op    exec.OpKind
	now   func() time.Time
}

func (l *lookupAdapter) LookupByIdentifier(ctx context.Context, id string, event flow.EventContext) (flow.LookupResult, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return flow.LookupResult{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	if rec == nil {
		return flow.LookupResult{Status: flow.LookupNotFound}, nil
	}
	if rec.EventID != event.EventID {
		return flow.LookupResult{Status: flow.LookupWrongEvent, EventName: rec.EventName}, nil
	}

	frec := &flow.Record{
		ID:     rec.ID,
		Holder: rec.Holder,
		Fields: map[string]string{"event": rec.EventID},
	}

	switch l.op {
	case exec.OpAssign, exec.OpSwap:
		if rec.Assigned {
			return flow.LookupResult{Status: flow.LookupAlreadyAssigned}, nil
		}
	case exec.OpRelease:
		if !rec.Returnable {
			return flow.LookupResult{Status: flow.LookupNotReturnable}, nil
		}
		if rec.DueAt != nil && l.now().After(*rec.DueAt) {
			return flow.LookupResult{Status: flow.LookupLate, Record: frec}, nil
		}
	}

	return flow.LookupResult{Status: flow.LookupFound, Record: frec}, nil
}
