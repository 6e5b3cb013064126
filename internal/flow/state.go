package flow

// State is a flow session state.
type State int

const (
	// StateIdle means no input cycle is active.
	StateIdle State = iota
	// StateAwaitingSettledInput means input is arriving but has not settled.
	StateAwaitingSettledInput
	// StateValidating means a settled value is being checked before lookup.
	StateValidating
	// StateResolving means a lookup is in flight.
	StateResolving
	// StateConfirmRequired means the operator must confirm before execution.
	StateConfirmRequired
	// StateLateReviewRequired means an admin must approve a late return.
	StateLateReviewRequired
	// StateExecuting means the executor is applying the operation.
	StateExecuting
	// StateRejectionTerminal is a terminal domain rejection display.
	StateRejectionTerminal
	// StateSuccessTerminal is a terminal success display.
	StateSuccessTerminal
	// StateErrorTerminal is a terminal error display.
	StateErrorTerminal
)

var stateNames = map[State]string{
	StateIdle:                 "idle",
	StateAwaitingSettledInput: "awaiting_settled_input",
	StateValidating:           "validating",
	StateResolving:            "resolving",
	StateConfirmRequired:      "confirm_required",
	StateLateReviewRequired:   "late_review_required",
	StateExecuting:            "executing",
	StateRejectionTerminal:    "rejection_terminal",
	StateSuccessTerminal:      "success_terminal",
	StateErrorTerminal:        "error_terminal",
}

// String returns the snake_case state name used in logs and transcripts.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether the state is a terminal display state that
// auto-resets to Idle.
func (s State) Terminal() bool {
	switch s {
	case StateRejectionTerminal, StateSuccessTerminal, StateErrorTerminal:
		return true
	}
	return false
}

// AcceptsInput reports whether input observations are consumed in this state.
func (s State) AcceptsInput() bool {
	return s == StateIdle || s == StateAwaitingSettledInput
}
