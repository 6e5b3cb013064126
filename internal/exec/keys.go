package exec

import (
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator generates operation keys for idempotent backend calls.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type KeyGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 operation keys.
//
// UUIDv7 embeds a timestamp in the most significant bits, making keys
// sortable by creation time, which keeps the offline queue's tiebreak
// ordering aligned with real enqueue order.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined keys for deterministic tests.
//
// Panics when all keys are consumed - fail-fast for test misconfiguration
// (the test performed more operations than it expected to).
type FixedGenerator struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedGenerator creates a generator that returns keys in order.
func NewFixedGenerator(keys ...string) *FixedGenerator {
	return &FixedGenerator{keys: keys}
}

// Generate returns the next predetermined key.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.keys) {
		panic("FixedGenerator: all keys exhausted")
	}
	key := g.keys[g.idx]
	g.idx++
	return key
}
