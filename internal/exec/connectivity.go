package exec

import "sync/atomic"

// Connectivity reports whether the live backend should be used.
type Connectivity interface {
	Online() bool
}

// Toggle is the standard Connectivity implementation: offline when either
// the operator's explicit offline switch is set or a network-down signal
// has been observed. The two inputs are independent so flipping the
// operator switch back on does not mask a dead network.
//
// Safe for concurrent use.
type Toggle struct {
	offline atomic.Bool
	netDown atomic.Bool
}

// NewToggle creates a Toggle. offline sets the initial operator switch.
func NewToggle(offline bool) *Toggle {
	t := &Toggle{}
	t.offline.Store(offline)
	return t
}

// SetOffline flips the operator's explicit offline switch.
func (t *Toggle) SetOffline(v bool) {
	t.offline.Store(v)
}

// SetNetworkDown records the network probe signal.
func (t *Toggle) SetNetworkDown(v bool) {
	t.netDown.Store(v)
}

// Online reports true only when neither signal indicates offline.
func (t *Toggle) Online() bool {
	return !t.offline.Load() && !t.netDown.Load()
}
