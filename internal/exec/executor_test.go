package exec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradhall/kiosk/internal/queue"
)

// recordingBackend records calls and fails on demand.
type recordingBackend struct {
	mu      sync.Mutex
	calls   []string
	failOn  string // "release" or "assign"
	failErr error
}

func (b *recordingBackend) AssignResource(_ context.Context, sessionID, resourceID string, _ map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == "assign" {
		return b.failErr
	}
	b.calls = append(b.calls, "assign "+resourceID)
	return nil
}

func (b *recordingBackend) ReleaseResource(_ context.Context, sessionID, resourceID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == "release" {
		return b.failErr
	}
	b.calls = append(b.calls, "release "+resourceID)
	return nil
}

func (b *recordingBackend) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

// memQueue is an in-memory queue with failure injection.
type memQueue struct {
	mu      sync.Mutex
	ops     []queue.PendingOperation
	failErr error
}

func (q *memQueue) Enqueue(_ context.Context, kind string, payload any) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failErr != nil {
		return "", q.failErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("pending-%d", len(q.ops)+1)
	q.ops = append(q.ops, queue.PendingOperation{
		ID: id, Kind: kind, Payload: raw,
		EnqueuedAt: time.Now(), Status: queue.StatusPending,
	})
	return id, nil
}

func (q *memQueue) Pending(_ context.Context) ([]queue.PendingOperation, error) {
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

func (q *memQueue) MarkReplayed(_ context.Context, id string) error {
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

// online is a fixed Connectivity.
type online bool

func (o online) Online() bool { return bool(o) }

func TestExecutor_Online_Assign(t *testing.T) {
	backend := &recordingBackend{}
	e := New(backend, &memQueue{}, online(true), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpAssign, SessionID: "sess-1", Assign: "AB12CD34",
	})

	assert.Equal(t, OutcomeOnline, out.Kind)
	assert.NoError(t, out.Err)
	assert.Equal(t, []string{"assign AB12CD34"}, backend.snapshot())
}

func TestExecutor_Online_SwapOrdersReleaseBeforeAssign(t *testing.T) {
	backend := &recordingBackend{}
	e := New(backend, &memQueue{}, online(true), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpSwap, SessionID: "sess-1", Release: "AB12CD34", Assign: "ZZ99ZZ99",
	})

	require.Equal(t, OutcomeOnline, out.Kind)
	assert.Equal(t, []string{"release AB12CD34", "assign ZZ99ZZ99"}, backend.snapshot())
}

func TestExecutor_Online_PartialFailureIsNeverSilentSuccess(t *testing.T) {
	boom := errors.New("backend rejected assign")
	backend := &recordingBackend{failOn: "assign", failErr: boom}
	e := New(backend, &memQueue{}, online(true), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpSwap, SessionID: "sess-1", Release: "AB12CD34", Assign: "ZZ99ZZ99",
	})

	require.Equal(t, OutcomeFailed, out.Kind)

	var perr *PartialError
	require.ErrorAs(t, out.Err, &perr)
	assert.Equal(t, []string{"release AB12CD34"}, perr.Completed)
	assert.Equal(t, "assign ZZ99ZZ99", perr.Step)
	assert.ErrorIs(t, out.Err, boom)
}

func TestExecutor_Online_FirstStepFailureIsPlainFailure(t *testing.T) {
	boom := errors.New("resource not held")
	backend := &recordingBackend{failOn: "release", failErr: boom}
	e := New(backend, &memQueue{}, online(true), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpSwap, SessionID: "sess-1", Release: "AB12CD34", Assign: "ZZ99ZZ99",
	})

	require.Equal(t, OutcomeFailed, out.Kind)

	var perr *PartialError
	assert.False(t, errors.As(out.Err, &perr), "no step completed, so not a partial failure")
	assert.ErrorIs(t, out.Err, boom)
	assert.Empty(t, backend.snapshot())
}

func TestExecutor_Offline_QueuedAfterDurableAck(t *testing.T) {
	backend := &recordingBackend{}
	q := &memQueue{}
	e := New(backend, q, online(false), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpRelease, SessionID: "sess-1", Release: "AB12CD34",
	})

	require.Equal(t, OutcomeQueued, out.Kind)
	assert.Equal(t, "pending-1", out.PendingID)
	assert.Empty(t, backend.snapshot(), "offline execution must not touch the backend")

	ops, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 1)

	decoded, err := DecodeOperation(ops[0])
	require.NoError(t, err)
	assert.Equal(t, OpRelease, decoded.Kind)
	assert.Equal(t, "AB12CD34", decoded.Release)
	assert.Equal(t, "key-1", decoded.Key)
}

func TestExecutor_Offline_QueueFailureIsFatal(t *testing.T) {
	boom := errors.New("disk full")
	q := &memQueue{failErr: boom}
	e := New(&recordingBackend{}, q, online(false), WithKeyGenerator(NewFixedGenerator("key-1")))

	out := e.Execute(context.Background(), Operation{
		Kind: OpRelease, SessionID: "sess-1", Release: "AB12CD34",
	})

	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrQueueWrite)
	assert.Empty(t, out.PendingID, "a failed queue write must never look queued")
}

func TestExecutor_GeneratesKeyWhenMissing(t *testing.T) {
	q := &memQueue{}
	e := New(&recordingBackend{}, q, online(false))

	out := e.Execute(context.Background(), Operation{Kind: OpAssign, Assign: "AB12CD34"})
	require.Equal(t, OutcomeQueued, out.Kind)

	ops, err := q.Pending(context.Background())
	require.NoError(t, err)
	decoded, err := DecodeOperation(ops[0])
	require.NoError(t, err)
	assert.NotEmpty(t, decoded.Key)
}

func TestToggle_Connectivity(t *testing.T) {
	tog := NewToggle(false)
	assert.True(t, tog.Online())

	tog.SetNetworkDown(true)
	assert.False(t, tog.Online())

	// Flipping the operator switch does not mask a dead network.
	tog.SetOffline(false)
	assert.False(t, tog.Online())

	tog.SetNetworkDown(false)
	assert.True(t, tog.Online())

	tog.SetOffline(true)
	assert.False(t, tog.Online())
}
