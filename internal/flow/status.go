package flow

// TxStatus is a realtime payment terminal status value.
type TxStatus int

const (
	// TxPending means the terminal transaction is still in progress.
	TxPending TxStatus = iota + 1
	// TxCompleted means the transaction succeeded.
	TxCompleted
	// TxCanceled means the transaction was cancelled at the terminal.
	TxCanceled
)

// String returns a human-readable name for the status.
func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxCompleted:
		return "completed"
	case TxCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StatusUpdate is one message from the realtime status collaborator,
// correlated to a session by transaction identifier.
type StatusUpdate struct {
	TxID   string
	Status TxStatus
}
