package flow

import (
	"time"

	"github.com/gradhall/kiosk/internal/exec"
)

// Default timing bounds. Tunable per surface via profiles.
const (
	DefaultSettleWindow    = 400 * time.Millisecond
	DefaultResetDelay      = 3 * time.Second
	DefaultLookupTimeout   = 4 * time.Second
	DefaultWatchdogOnline  = 5 * time.Second
	DefaultWatchdogOffline = 1 * time.Second
	DefaultExitTapWindow   = 2 * time.Second
)

// Config is the per-surface machine configuration.
// The event context is injected here rather than read from ambient state,
// so independent surfaces never share mutable globals.
type Config struct {
	// Surface names the kiosk surface, for logs and transcripts.
	Surface string

	// Event scopes all lookups for this machine.
	Event EventContext

	// Op is the operation shape this surface executes.
	Op exec.OpKind

	// CurrentAssigned is the identifier of the currently assigned resource
	// for swap surfaces. Scanning it again is rejected as self-assignment.
	CurrentAssigned string

	// SettleWindow is the debounce window for input observations.
	SettleWindow time.Duration
	// ResetDelay is how long terminal states display before auto-reset.
	ResetDelay time.Duration
	// LookupTimeout bounds the lookup collaborator call.
	LookupTimeout time.Duration
	// WatchdogOnline bounds online execution before forced resolution.
	WatchdogOnline time.Duration
	// WatchdogOffline bounds the offline queue write; short, the write
	// is local.
	WatchdogOffline time.Duration
	// ExitTapWindow is the window for the triple-activation exit gesture.
	ExitTapWindow time.Duration

	// PreApproved skips operator confirmation (admin stage-queue scans).
	PreApproved bool
	// CreateOnNotFound routes NotFound to a create-new confirmation
	// instead of a rejection.
	CreateOnNotFound bool
	// RejectSameResource rejects scanning the currently assigned resource.
	RejectSameResource bool
	// AwaitRealtime holds confirmation until the realtime payment status
	// collaborator reports completion.
	AwaitRealtime bool
}

func (c *Config) applyDefaults() {
	if c.SettleWindow <= 0 {
		c.SettleWindow = DefaultSettleWindow
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = DefaultResetDelay
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = DefaultLookupTimeout
	}
	if c.WatchdogOnline <= 0 {
		c.WatchdogOnline = DefaultWatchdogOnline
	}
	if c.WatchdogOffline <= 0 {
		c.WatchdogOffline = DefaultWatchdogOffline
	}
	if c.ExitTapWindow <= 0 {
		c.ExitTapWindow = DefaultExitTapWindow
	}
	if c.Op == "" {
		c.Op = exec.OpAssign
	}
}
