package flow_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/flow"
)

// Transition transcripts are deterministic: logical seq stamps, fixed
// notes, no wall-clock content. Golden files pin the exact shape so flow
// changes are reviewed, not discovered.

func runTranscript(t *testing.T, cfg flow.Config, online bool, drive func(h *harness)) []string {
	t.Helper()

	h := newHarness(t, cfg, online)
	h.lookup.Results["AB12CD34"] = flow.LookupResult{
		Status: flow.LookupFound,
		Record: &flow.Record{ID: "AB12CD34", Holder: "J. Doe"},
	}
	drive(h)
	return h.log.Lines()
}

func TestGolden_ReturnsOfflineRelease(t *testing.T) {
	lines := runTranscript(t, testConfig(), false, func(h *harness) {
		h.scan("AB12CD34")
		h.waitState(t, flow.StateConfirmRequired)
		h.machine.Confirm()
		h.waitState(t, flow.StateSuccessTerminal)
		h.waitState(t, flow.StateIdle)
	})

	g := goldie.New(t)
	g.Assert(t, "returns_offline_release", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestGolden_StageQueuePreApproved(t *testing.T) {
	cfg := testConfig()
	cfg.Surface = "stagequeue"
	cfg.Op = exec.OpAssign
	cfg.PreApproved = true
	cfg.CreateOnNotFound = false

	lines := runTranscript(t, cfg, true, func(h *harness) {
		h.scan("AB12CD34")
		h.waitState(t, flow.StateSuccessTerminal)
		h.waitState(t, flow.StateIdle)
	})

	g := goldie.New(t)
	g.Assert(t, "stagequeue_preapproved_assign", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestGolden_InvalidFormat(t *testing.T) {
	h := newHarness(t, testConfig(), true)
	h.scan("AB12!!34")
	h.waitState(t, flow.StateErrorTerminal)
	h.waitState(t, flow.StateIdle)

	lines := h.log.Lines()
	require.NotEmpty(t, lines)

	g := goldie.New(t)
	g.Assert(t, "invalid_format", []byte(strings.Join(lines, "\n")+"\n"))
}

// Keep the harness honest: transcripts must never contain wall-clock text.
func TestTranscriptLinesStable(t *testing.T) {
	h := newHarness(t, testConfig(), true)
	h.scan("AB12!!34")
	h.waitState(t, flow.StateIdle)

	for _, line := range h.log.Lines() {
		require.NotContains(t, line, time.Now().Format("2006"))
	}
}
