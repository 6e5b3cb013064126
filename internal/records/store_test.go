package records

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/flow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func putRecord(t *testing.T, s *Store, rec Record) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), rec))
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	due := time.Date(2026, 5, 30, 18, 0, 0, 0, time.UTC)
	putRecord(t, s, Record{
		ID: "AB12CD34", EventID: "evt-1", EventName: "Spring Commencement",
		Holder: "J. Doe", Assigned: true, Returnable: true, DueAt: &due,
	})

	rec, err := s.Get(ctx, "AB12CD34")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "J. Doe", rec.Holder)
	assert.True(t, rec.Assigned)
	require.NotNil(t, rec.DueAt)
	assert.True(t, due.Equal(*rec.DueAt))

	missing, err := s.Get(ctx, "ZZ99ZZ99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAssignResource_CompareAndSwap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	putRecord(t, s, Record{ID: "AB12CD34", EventID: "evt-1", Returnable: true})

	require.NoError(t, s.AssignResource(ctx, "sess-1", "AB12CD34", nil))

	// Retry with the same session is idempotent.
	assert.NoError(t, s.AssignResource(ctx, "sess-1", "AB12CD34", nil))

	// Another session lost the race.
	assert.Error(t, s.AssignResource(ctx, "sess-2", "AB12CD34", nil))
}

func TestAssignResource_CreateNew(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.AssignResource(ctx, "sess-1", "ZZ99ZZ99", map[string]string{"create": "true", "event": "evt-1"})
	require.NoError(t, err)

	rec, err := s.Get(ctx, "ZZ99ZZ99")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Assigned)
	assert.Equal(t, "evt-1", rec.EventID)

	// Without the create flag, a missing record is an error.
	assert.Error(t, s.AssignResource(ctx, "sess-1", "QQ00QQ00", nil))
}

func TestReleaseResource_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	putRecord(t, s, Record{ID: "AB12CD34", EventID: "evt-1", Assigned: true, Holder: "J. Doe", Returnable: true})

	require.NoError(t, s.ReleaseResource(ctx, "sess-1", "AB12CD34"))

	rec, err := s.Get(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.False(t, rec.Assigned)
	assert.Empty(t, rec.Holder)

	// Replay of the same release is a no-op.
	assert.NoError(t, s.ReleaseResource(ctx, "sess-1", "AB12CD34"))

	assert.Error(t, s.ReleaseResource(ctx, "sess-1", "ZZ99ZZ99"))
}

func TestLookup_ReleaseSemantics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	event := flow.EventContext{EventID: "evt-1"}
	lk := s.Lookup(exec.OpRelease)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	putRecord(t, s, Record{ID: "AA11AA11", EventID: "evt-1", Assigned: true, Returnable: true, DueAt: &future})
	putRecord(t, s, Record{ID: "BB22BB22", EventID: "evt-1", Assigned: true, Returnable: false})
	putRecord(t, s, Record{ID: "CC33CC33", EventID: "evt-1", Assigned: true, Returnable: true, DueAt: &past})
	putRecord(t, s, Record{ID: "DD44DD44", EventID: "evt-2", EventName: "Winter Commencement", Assigned: true, Returnable: true})

	res, err := lk.LookupByIdentifier(ctx, "AA11AA11", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupFound, res.Status)
	require.NotNil(t, res.Record)

	res, err = lk.LookupByIdentifier(ctx, "BB22BB22", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupNotReturnable, res.Status)

	res, err = lk.LookupByIdentifier(ctx, "CC33CC33", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupLate, res.Status)
	require.NotNil(t, res.Record, "late results still carry the record for admin review")

	res, err = lk.LookupByIdentifier(ctx, "DD44DD44", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupWrongEvent, res.Status)
	assert.Equal(t, "Winter Commencement", res.EventName)

	res, err = lk.LookupByIdentifier(ctx, "ZZ99ZZ99", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupNotFound, res.Status)
}

func TestLookup_AssignSemantics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	event := flow.EventContext{EventID: "evt-1"}
	lk := s.Lookup(exec.OpAssign)

	putRecord(t, s, Record{ID: "AA11AA11", EventID: "evt-1", Returnable: true})
	putRecord(t, s, Record{ID: "BB22BB22", EventID: "evt-1", Assigned: true, Holder: "J. Doe", Returnable: true})

	res, err := lk.LookupByIdentifier(ctx, "AA11AA11", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupFound, res.Status)

	res, err = lk.LookupByIdentifier(ctx, "BB22BB22", event)
	require.NoError(t, err)
	assert.Equal(t, flow.LookupAlreadyAssigned, res.Status)
}

func TestSeed_LoadAndApply(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
event_id: evt-1
event_name: Spring Commencement
records:
  - id: AB12CD34
    holder: J. Doe
    assigned: true
    due_at: 2026-05-30T18:00:00Z
  - id: ZZ99ZZ99
`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)

	n, err := s.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := s.Get(ctx, "AB12CD34")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Assigned)
	require.NotNil(t, rec.DueAt)

	rec, err = s.Get(ctx, "ZZ99ZZ99")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Assigned)
	assert.True(t, rec.Returnable, "returnable defaults to true")
}

func TestLoadSeedFile_RequiresEventID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("records: []\n"), 0o644))

	_, err := LoadSeedFile(path)
	assert.Error(t, err)
}
