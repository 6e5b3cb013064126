package scan

import (
	"sync"
	"time"
)

// Gate debounces a stream of input-change observations.
//
// Each Change restarts a settle timer. The settle callback fires at most
// once per burst, with the final text, only after the input has stopped
// changing for the full window. No value is ever delivered mid-keystroke.
//
// The callback runs on the timer goroutine; callers that need ordering
// with their own state must synchronize inside the callback.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	settle func(string)

	text  string
	gen   uint64
	timer *time.Timer
}

// NewGate creates a gate with the given settle window.
// The settle function is invoked with the final text of each burst.
func NewGate(window time.Duration, settle func(string)) *Gate {
	return &Gate{window: window, settle: settle}
}

// Change records a new observation and restarts the settle timer.
func (g *Gate) Change(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.text = text
	g.gen++
	gen := g.gen
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.window, func() { g.fire(gen) })
}

// Cancel discards the current burst without firing.
// A timer that has already started firing becomes a no-op.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Gate) fire(gen uint64) {
	g.mu.Lock()
	if gen != g.gen {
		// A later Change or Cancel superseded this timer.
		g.mu.Unlock()
		return
	}
	text := g.text
	g.timer = nil
	g.mu.Unlock()

	g.settle(text)
}
