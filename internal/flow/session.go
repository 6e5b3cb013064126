package flow

// Session holds the per-cycle fields of the live flow session.
// Exactly one session is active per machine; reset clears it and bumps
// the epoch so stale async responses no-op.
type Session struct {
	// ID correlates backend calls and queued operations for this session.
	ID string
	// Identifier is the validated identifier of the current cycle.
	Identifier string
	// Record is the looked-up record, when the cycle reached resolution.
	Record *Record
	// AttemptCount counts validate cycles since the last reset.
	AttemptCount int
	// QueuedID is the offline queue ID when the cycle took the queued path.
	QueuedID string
	// TxID correlates realtime payment status updates, when the surface
	// awaits a payment terminal.
	TxID string
	// CreateNew marks a NotFound cycle confirmed as a create-new branch.
	CreateNew bool
}
