// Package queue implements the durable offline operation queue.
//
// When a kiosk is offline, state-changing operations are written here
// instead of being lost or faked. The contract is strict: an operation is
// reported as queued only after the write is durable, and a queued
// operation is never silently dropped - it is either replayed against the
// backend or surfaced as a failure.
//
// Rows are append-only from the kiosk's perspective. Replay marks rows
// replayed; nothing in this package deletes them.
package queue
