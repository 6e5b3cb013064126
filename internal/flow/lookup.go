package flow

import "context"

// EventContext scopes lookups to the event this surface is operating for.
// It is injected per machine, never read from ambient global state, so
// each surface's tests can run independently.
type EventContext struct {
	EventID   string
	EventName string
}

// LookupStatus tags the lookup collaborator's answer.
type LookupStatus int

const (
	// LookupFound means the identifier resolved to a usable record.
	LookupFound LookupStatus = iota + 1
	// LookupNotFound means no record matches the identifier.
	LookupNotFound
	// LookupWrongEvent means the record belongs to a different event.
	LookupWrongEvent
	// LookupAlreadyAssigned means the resource is already held.
	LookupAlreadyAssigned
	// LookupNotReturnable means the resource cannot be returned here.
	LookupNotReturnable
	// LookupLate means the record resolved but past its due time.
	LookupLate
)

// String returns a human-readable name for the lookup status.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupWrongEvent:
		return "wrong_event"
	case LookupAlreadyAssigned:
		return "already_assigned"
	case LookupNotReturnable:
		return "not_returnable"
	case LookupLate:
		return "late"
	default:
		return "unknown"
	}
}

// Record is the resource record a lookup resolves to.
type Record struct {
	ID     string
	Holder string
	Fields map[string]string
}

// LookupResult is the tagged lookup answer.
// Record is set for Found and Late; EventName is set for WrongEvent.
type LookupResult struct {
	Status    LookupStatus
	Record    *Record
	EventName string
}

// Lookup is the lookup collaborator.
// Errors are transient (network, backend) and surfaced as retryable;
// domain outcomes travel in LookupResult, not in the error.
type Lookup interface {
	LookupByIdentifier(ctx context.Context, id string, event EventContext) (LookupResult, error)
}
