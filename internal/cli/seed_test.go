package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradhall/kiosk/internal/records"
)

func TestSeedLoadsRecords(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	seedPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
event_id: evt-1
event_name: Winter 2026
records:
  - id: AB12CD34
    holder: sess-0
    assigned: true
  - id: ZZ99XX11
`), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, seedPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Loaded 2 record(s)")

	st, err := records.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.Get(context.Background(), "AB12CD34")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Assigned)
	assert.Equal(t, "evt-1", rec.EventID)

	rec, err = st.Get(context.Background(), "ZZ99XX11")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Assigned)
	assert.True(t, rec.Returnable)
}

func TestSeedRejectsMissingEventID(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("records: []\n"), 0o644))

	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "test.db"), seedPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "event_id")
}
