// Package flow implements the per-surface kiosk session controller.
//
// One Machine drives one kiosk surface (returns desk, gown change, stage
// queue, photo gallery). It consumes classifier and debounce output,
// validates identifiers, dispatches lookups, branches into confirmation,
// rejection or late-review, executes through the connectivity-aware
// executor, and always reaches a terminal state that auto-resets to Idle.
//
// ARCHITECTURE:
//
// Single entry point dispatch:
// Every external stimulus (input change, explicit submit, confirm, cancel,
// admin approval, realtime payment status, timer firing) funnels through
// methods that serialize on one mutex. There are no cross-cutting "suppress
// auto-submit" flags: a stimulus that arrives in a state that does not
// accept it is discarded and logged, nothing else.
//
// Session epochs:
// Asynchronous work (lookup, execution) captures the session epoch at
// dispatch. Responses for an abandoned session - reset, cancelled, or
// already force-resolved by the watchdog - compare epochs and become
// no-ops. In-flight backend calls are not cancelled (fire and forget once
// sent); staleness checking makes that safe.
//
// Watchdog:
// Entering Executing arms a timer sized for the path taken (short for
// offline queue writes, longer for network calls). The real outcome and
// the watchdog race through the same epoch-checked resolver; the first
// wins, the loser is discarded and logged. A watchdog firing is always an
// anomaly worth logging, even when the operator sees a clean screen: it
// means the primary path did not respond in time.
//
// Every transition is stamped with a monotonic logical sequence number so
// transcripts are deterministic and golden-testable.
package flow
