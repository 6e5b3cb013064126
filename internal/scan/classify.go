package scan

import (
	"strings"
	"unicode/utf8"
)

// Classification distinguishes hardware scan bursts from manual typing.
type Classification int

const (
	// ClassUnknown means no observation has been made yet this session.
	ClassUnknown Classification = iota
	// ClassScan indicates characters arrived faster than human typing
	// (multiple characters appended in a single observation).
	ClassScan
	// ClassManual indicates a human is typing (single-character appends,
	// deletions, or edits).
	ClassManual
)

// String returns a human-readable name for the classification.
func (c Classification) String() string {
	switch c {
	case ClassScan:
		return "scan"
	case ClassManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Classifier decides, per input-change observation, whether arriving text
// came from a keystroke-emulating hardware reader or a human.
//
// Classification is STICKY: once a single-character append (or a deletion
// or edit) is observed, the session stays manual regardless of how later
// characters arrive, until Reset(). One manual character is enough evidence
// that a human is at the keyboard, and a human mid-edit must never trigger
// scan-path auto-submission.
//
// The classifier is a pure function of the last two observations plus the
// sticky flag. It performs no IO and owns no timers.
//
// Not safe for concurrent use; each session owns exactly one Classifier
// and feeds it from a single dispatch path.
type Classifier struct {
	manual bool
}

// NewClassifier creates a classifier with no sticky state.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Observe classifies the transition from prev to next.
//
// Rules, in order:
//   - sticky manual from an earlier observation -> ClassManual
//   - next is not an append of prev (deletion or edit) -> ClassManual, sticky
//   - exactly one character appended -> ClassManual, sticky
//   - two or more characters appended -> ClassScan
func (c *Classifier) Observe(prev, next string) Classification {
	if c.manual {
		return ClassManual
	}

	delta := utf8.RuneCountInString(next) - utf8.RuneCountInString(prev)
	if delta < 2 || !strings.HasPrefix(next, prev) {
		c.manual = true
		return ClassManual
	}
	return ClassScan
}

// Sticky reports whether the session has latched to manual.
func (c *Classifier) Sticky() bool {
	return c.manual
}

// Reset clears the sticky state for a new input session.
func (c *Classifier) Reset() {
	c.manual = false
}
