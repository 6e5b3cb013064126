// Package testutil provides deterministic collaborator fakes for tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gradhall/kiosk/internal/flow"
	"github.com/gradhall/kiosk/internal/queue"
)

// ScriptedLookup answers lookups from a fixed script keyed by identifier.
type ScriptedLookup struct {
	mu      sync.Mutex
	Results map[string]flow.LookupResult
	Errs    map[string]error
	// Delay simulates lookup latency.
	Delay time.Duration

	calls []string
}

// LookupByIdentifier implements flow.Lookup.
// Identifiers missing from the script resolve to NotFound.
func (l *ScriptedLookup) LookupByIdentifier(ctx context.Context, id string, _ flow.EventContext) (flow.LookupResult, error) {
	l.mu.Lock()
	l.calls = append(l.calls, id)
	res, okRes := l.Results[id]
	err := l.Errs[id]
	delay := l.Delay
	l.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return flow.LookupResult{}, ctx.Err()
		}
	}

	if err != nil {
		return flow.LookupResult{}, err
	}
	if !okRes {
		return flow.LookupResult{Status: flow.LookupNotFound}, nil
	}
	return res, nil
}

// Calls returns the identifiers looked up so far.
func (l *ScriptedLookup) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// RecordingBackend implements exec.Backend, recording calls in order.
type RecordingBackend struct {
	mu    sync.Mutex
	calls []string

	FailAssign  error
	FailRelease error
	// Delay simulates backend latency.
	Delay time.Duration
}

func (b *RecordingBackend) AssignResource(ctx context.Context, _, resourceID string, _ map[string]string) error {
	if err := b.sleep(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailAssign != nil {
		return b.FailAssign
	}
	b.calls = append(b.calls, "assign "+resourceID)
	return nil
}

func (b *RecordingBackend) ReleaseResource(ctx context.Context, _, resourceID string) error {
	if err := b.sleep(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailRelease != nil {
		return b.FailRelease
	}
	b.calls = append(b.calls, "release "+resourceID)
	return nil
}

func (b *RecordingBackend) sleep(ctx context.Context) error {
	if b.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(b.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Calls returns the recorded backend calls in arrival order.
func (b *RecordingBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

// MemQueue is an in-memory queue.Queue with failure injection.
type MemQueue struct {
	mu  sync.Mutex
	ops []queue.PendingOperation

	FailEnqueue error
	// EnqueueDelay simulates a slow durability write.
	EnqueueDelay time.Duration
}

func (q *MemQueue) Enqueue(ctx context.Context, kind string, payload any) (string, error) {
	if q.EnqueueDelay > 0 {
		select {
		case <-time.After(q.EnqueueDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.FailEnqueue != nil {
		return "", q.FailEnqueue
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("pending-%d", len(q.ops)+1)
	q.ops = append(q.ops, queue.PendingOperation{
		ID:         id,
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: time.Now(),
		Status:     queue.StatusPending,
	})
	return id, nil
}

func (q *MemQueue) Pending(_ context.Context) ([]queue.PendingOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []queue.PendingOperation
	for _, op := range q.ops {
		if op.Status == queue.StatusPending {
			out = append(out, op)
		}
	}
	return out, nil
}

func (q *MemQueue) MarkReplayed(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ops {
		if q.ops[i].ID == id {
			q.ops[i].Status = queue.StatusReplayed
			return nil
		}
	}
	return fmt.Errorf("unknown operation %q", id)
}

// Len returns the total number of operations ever enqueued.
func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// TransitionLog collects machine transitions for assertions and golden
// transcripts.
type TransitionLog struct {
	mu          sync.Mutex
	transitions []flow.Transition
}

// Observe implements flow.Observer.
func (t *TransitionLog) Observe(tr flow.Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transitions = append(t.transitions, tr)
}

// Transitions returns a copy of the collected transitions.
func (t *TransitionLog) Transitions() []flow.Transition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]flow.Transition, len(t.transitions))
	copy(out, t.transitions)
	return out
}

// States returns the To states in order.
func (t *TransitionLog) States() []flow.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]flow.State, len(t.transitions))
	for i, tr := range t.transitions {
		out[i] = tr.To
	}
	return out
}

// Lines renders each transition as "seq from -> to: note" for transcripts.
func (t *TransitionLog) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.transitions))
	for i, tr := range t.transitions {
		out[i] = fmt.Sprintf("%d %s -> %s: %s", tr.Seq, tr.From, tr.To, tr.Note)
	}
	return out
}

// Wait polls until pred is true or the timeout elapses.
// Returns whether pred became true.
func Wait(timeout time.Duration, pred func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if pred() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return pred()
}
