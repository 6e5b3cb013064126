package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/guard"
	"github.com/gradhall/kiosk/internal/scan"
)

// ExitAuth is the collaborator consulted before leaving kiosk mode.
type ExitAuth interface {
	// Authorize returns true when the operator may exit the surface.
	Authorize(ctx context.Context) (bool, error)
}

// Machine is the flow state machine for one kiosk surface.
//
// All state lives behind one mutex; every entry point dispatches under it.
// Async lookup and execution results re-enter through epoch-checked
// resolvers so responses to an abandoned session are discarded.
type Machine struct {
	cfg      Config
	lookup   Lookup
	executor *exec.Executor
	keys     exec.KeyGenerator
	exitAuth ExitAuth
	observer Observer
	logger   *slog.Logger
	clock    *Clock

	guard      *guard.Guard
	classifier *scan.Classifier
	gate       *scan.Gate

	mu             sync.Mutex
	state          State
	session        Session
	epoch          uint64
	lastText       string
	classification scan.Classification
	watchdog       *time.Timer
	resetTimer     *time.Timer
	exitTaps       int
	lastExitTap    time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observer = o }
}

// WithLogger sets the machine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithKeyGenerator overrides session/transaction ID generation (for testing).
func WithKeyGenerator(g exec.KeyGenerator) Option {
	return func(m *Machine) { m.keys = g }
}

// WithExitAuth sets the exit authorization collaborator.
// Without one, exit requests are granted.
func WithExitAuth(a ExitAuth) Option {
	return func(m *Machine) { m.exitAuth = a }
}

// New creates a machine in Idle with a fresh session.
func New(cfg Config, lookup Lookup, executor *exec.Executor, opts ...Option) *Machine {
	cfg.applyDefaults()

	m := &Machine{
		cfg:        cfg,
		lookup:     lookup,
		executor:   executor,
		keys:       exec.UUIDv7Generator{},
		logger:     slog.Default(),
		clock:      NewClock(),
		guard:      guard.New(),
		classifier: scan.NewClassifier(),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("surface", cfg.Surface)
	m.gate = scan.NewGate(cfg.SettleWindow, m.onSettle)
	m.session = Session{ID: m.keys.Generate()}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a snapshot of the live session.
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Input feeds one input-change observation (the field's current text).
// Accepted only in Idle and AwaitingSettledInput; anything else is
// discarded, which is the sole suppression mechanism in the machine.
func (m *Machine) Input(text string) {
	m.mu.Lock()
	if !m.state.AcceptsInput() {
		m.logger.Debug("input discarded", "state", m.state, "len", len(text))
		m.mu.Unlock()
		return
	}
	if m.state == StateIdle {
		m.transitionLocked(StateAwaitingSettledInput, "input")
	}
	m.classification = m.classifier.Observe(m.lastText, text)
	m.lastText = text
	m.mu.Unlock()

	m.gate.Change(text)
}

// Submit is the explicit submit action (Enter key or submit control).
// Manual typing never auto-submits; this is its only path to validation.
func (m *Machine) Submit() {
	m.gate.Cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingSettledInput {
		m.logger.Debug("submit discarded", "state", m.state)
		return
	}
	m.validateLocked(m.lastText)
}

// onSettle receives the debounced final text of a burst.
// Scan-classified input proceeds to validation; manual input stays put
// until an explicit Submit.
func (m *Machine) onSettle(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingSettledInput {
		m.logger.Debug("settled value discarded", "state", m.state)
		return
	}
	if m.classification != scan.ClassScan {
		m.logger.Debug("manual input settled, awaiting explicit submit")
		return
	}
	m.validateLocked(text)
}

// validateLocked runs the settled value through format validation, the
// self-assignment check, and the submission guard, then dispatches lookup.
func (m *Machine) validateLocked(text string) {
	id, err := scan.NormalizeIdentifier(text)
	if err != nil {
		// Malformed input never reaches lookup.
		m.enterTerminalLocked(StateErrorTerminal, fmt.Sprintf("invalid format: %v", err))
		return
	}

	m.transitionLocked(StateValidating, "settled "+m.classification.String())

	if m.cfg.RejectSameResource && id == m.cfg.CurrentAssigned {
		m.enterTerminalLocked(StateErrorTerminal, "same resource already assigned")
		return
	}

	if !m.guard.TryAcquire() {
		// A cycle is already in flight. Discard, never queue a second attempt.
		m.logger.Warn("submission guard held, discarding attempt", "identifier", id)
		m.transitionLocked(StateAwaitingSettledInput, "discarded: submission in flight")
		return
	}

	m.session.Identifier = id
	m.session.AttemptCount++

	m.transitionLocked(StateResolving, "lookup "+id)

	epoch := m.epoch
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.LookupTimeout)
		defer cancel()
		res, err := m.lookup.LookupByIdentifier(ctx, id, m.cfg.Event)
		m.resolve(epoch, res, err)
	}()
}

// resolve consumes the lookup answer, unless the session has moved on.
func (m *Machine) resolve(epoch uint64, res LookupResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || m.state != StateResolving {
		m.logger.Warn("stale lookup response ignored", "epoch", epoch)
		return
	}

	if err != nil {
		// Transient: surfaced as retryable, input auto-clears with the terminal.
		m.enterTerminalLocked(StateErrorTerminal, fmt.Sprintf("lookup failed, retry: %v", err))
		return
	}

	switch res.Status {
	case LookupWrongEvent:
		m.enterTerminalLocked(StateRejectionTerminal, "wrong event: "+res.EventName)
	case LookupAlreadyAssigned:
		m.enterTerminalLocked(StateRejectionTerminal, "already assigned")
	case LookupNotReturnable:
		m.enterTerminalLocked(StateRejectionTerminal, "not returnable")
	case LookupNotFound:
		if !m.cfg.CreateOnNotFound {
			m.enterTerminalLocked(StateRejectionTerminal, "not found")
			return
		}
		m.session.CreateNew = true
		m.transitionLocked(StateConfirmRequired, "confirm: create new")
	case LookupFound:
		m.session.Record = res.Record
		if m.cfg.PreApproved {
			m.startExecutingLocked("pre-approved")
			return
		}
		m.transitionLocked(StateConfirmRequired, "confirm")
	case LookupLate:
		m.session.Record = res.Record
		m.transitionLocked(StateLateReviewRequired, "late, admin review required")
	default:
		m.enterTerminalLocked(StateErrorTerminal, fmt.Sprintf("unexpected lookup status %v", res.Status))
	}
}

// Confirm is the operator's confirmation.
// On surfaces that await a payment terminal, confirmation opens the
// transaction and execution waits for the realtime Completed status.
func (m *Machine) Confirm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConfirmRequired {
		m.logger.Debug("confirm discarded", "state", m.state)
		return
	}

	if m.cfg.AwaitRealtime {
		if m.session.TxID != "" {
			m.logger.Debug("confirm discarded, transaction already open", "tx", m.session.TxID)
			return
		}
		m.session.TxID = m.keys.Generate()
		m.transitionLocked(StateConfirmRequired, "awaiting payment terminal "+m.session.TxID)
		return
	}

	m.startExecutingLocked("confirmed")
}

// HandleRealtimeStatus consumes one realtime payment status update.
// Updates for unknown or stale transactions are ignored.
func (m *Machine) HandleRealtimeStatus(u StatusUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConfirmRequired || m.session.TxID == "" || u.TxID != m.session.TxID {
		m.logger.Debug("realtime status ignored", "tx", u.TxID, "status", u.Status, "state", m.state)
		return
	}

	switch u.Status {
	case TxPending:
		// Still in progress.
	case TxCompleted:
		m.startExecutingLocked("payment completed")
	case TxCanceled:
		m.enterTerminalLocked(StateRejectionTerminal, "payment canceled")
	}
}

// AdminApprove approves a late return, bypassing standard confirmation.
func (m *Machine) AdminApprove() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLateReviewRequired {
		m.logger.Debug("admin approve discarded", "state", m.state)
		return
	}
	m.startExecutingLocked("admin approved")
}

// Cancel abandons a confirmation or late review and returns to Idle.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConfirmRequired && m.state != StateLateReviewRequired {
		m.logger.Debug("cancel discarded", "state", m.state)
		return
	}
	if !m.guard.Release() {
		m.logger.Error("guard was not held at cancel, lock accounting defect")
	}
	m.resetLocked("cancelled")
}

// startExecutingLocked builds the operation, arms the watchdog, and
// launches execution. The watchdog bound depends on the path: the offline
// queue write is local, so its bound is short.
func (m *Machine) startExecutingLocked(note string) {
	op := exec.Operation{
		Kind:      m.cfg.Op,
		SessionID: m.session.ID,
		Extra:     map[string]string{"event": m.cfg.Event.EventID},
	}
	switch m.cfg.Op {
	case exec.OpAssign:
		op.Assign = m.session.Identifier
	case exec.OpRelease:
		op.Release = m.session.Identifier
	case exec.OpSwap:
		op.Release = m.cfg.CurrentAssigned
		op.Assign = m.session.Identifier
	}
	if m.session.CreateNew {
		op.Extra["create"] = "true"
	}

	m.transitionLocked(StateExecuting, note)

	bound := m.cfg.WatchdogOnline
	if !m.executor.Online() {
		bound = m.cfg.WatchdogOffline
	}

	epoch := m.epoch
	m.watchdog = time.AfterFunc(bound, func() { m.watchdogFired(epoch) })

	go func() {
		// Not cancellable once sent; a late outcome is discarded by epoch.
		out := m.executor.Execute(context.Background(), op)
		m.finishExecuting(epoch, out)
	}()
}

// finishExecuting applies the executor outcome, unless the watchdog
// already forced a resolution - the race has exactly one winner.
func (m *Machine) finishExecuting(epoch uint64, out exec.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || m.state != StateExecuting {
		m.logger.Warn("late executor outcome discarded", "outcome", out.Kind, "epoch", epoch)
		return
	}
	m.stopWatchdogLocked()

	switch out.Kind {
	case exec.OutcomeOnline:
		m.enterTerminalLocked(StateSuccessTerminal, "completed")
	case exec.OutcomeQueued:
		// The durable ack has already happened; only now may the UI say queued.
		m.session.QueuedID = out.PendingID
		m.enterTerminalLocked(StateSuccessTerminal, "queued for replay")
	case exec.OutcomeFailed:
		m.enterTerminalLocked(StateErrorTerminal, fmt.Sprintf("execution failed: %v", out.Err))
	}
}

// watchdogFired forces a terminal resolution for a stuck execution.
// No durable ack has been observed (a confirmed outcome would have
// resolved the state already), so the forced resolution is an error.
// Always logged as an anomaly: the primary path did not respond in time.
func (m *Machine) watchdogFired(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || m.state != StateExecuting {
		// The real outcome won the race.
		return
	}
	m.watchdog = nil
	m.logger.Error("watchdog forced resolution, executor did not respond in time",
		"identifier", m.session.Identifier, "attempt", m.session.AttemptCount)
	m.enterTerminalLocked(StateErrorTerminal, "operation timed out")
}

// ExitTap registers one activation of the exit gesture (e.g. a tap on the
// title element). Returns true when the third tap inside the window
// completes the gesture. Ignored while executing.
func (m *Machine) ExitTap() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateExecuting {
		return false
	}

	now := time.Now()
	if now.Sub(m.lastExitTap) > m.cfg.ExitTapWindow {
		m.exitTaps = 0
	}
	m.exitTaps++
	m.lastExitTap = now

	if m.exitTaps < 3 {
		return false
	}
	m.exitTaps = 0
	return true
}

// RequestExit consults the exit authorization collaborator.
// Valid from any non-Executing state. Granted when no collaborator is
// configured.
func (m *Machine) RequestExit(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.state == StateExecuting {
		m.mu.Unlock()
		return false, nil
	}
	auth := m.exitAuth
	m.mu.Unlock()

	if auth == nil {
		return true, nil
	}
	return auth.Authorize(ctx)
}

// Close cancels all timers. The machine must not be used afterwards.
func (m *Machine) Close() {
	m.gate.Cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.stopWatchdogLocked()
	m.stopResetTimerLocked()
}

// enterTerminalLocked moves to a terminal display state, releases the
// guard if this cycle held it, and schedules the auto-reset.
func (m *Machine) enterTerminalLocked(to State, note string) {
	m.stopWatchdogLocked()

	if m.guard.Held() && !m.guard.Release() {
		m.logger.Error("guard release failed at terminal, lock accounting defect")
	}

	m.transitionLocked(to, note)

	epoch := m.epoch
	m.stopResetTimerLocked()
	m.resetTimer = time.AfterFunc(m.cfg.ResetDelay, func() { m.autoReset(epoch) })
}

// autoReset clears the terminal display after the fixed delay.
func (m *Machine) autoReset(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || !m.state.Terminal() {
		return
	}
	m.resetLocked("auto-reset")
}

// resetLocked returns the machine to Idle with a fresh session.
// Bumping the epoch makes every outstanding timer and async response
// for the old session a no-op.
func (m *Machine) resetLocked(note string) {
	m.epoch++
	m.stopWatchdogLocked()
	m.stopResetTimerLocked()
	m.gate.Cancel()

	if m.guard.Held() {
		// Terminal entry or cancel should have released it.
		m.guard.Release()
		m.logger.Error("guard leaked past terminal, released at reset")
	}

	m.classifier.Reset()
	m.classification = scan.ClassUnknown
	m.lastText = ""
	m.session = Session{ID: m.keys.Generate()}

	m.transitionLocked(StateIdle, note)
}

func (m *Machine) stopWatchdogLocked() {
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
}

func (m *Machine) stopResetTimerLocked() {
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
}

// transitionLocked records a state change, stamps it, and notifies the
// observer. Self-transitions are allowed (e.g. awaiting payment).
func (m *Machine) transitionLocked(to State, note string) {
	tr := Transition{
		Seq:  m.clock.Next(),
		From: m.state,
		To:   to,
		Note: note,
	}
	m.state = to

	m.logger.Debug("transition", "seq", tr.Seq, "from", tr.From, "to", tr.To, "note", tr.Note)
	if m.observer != nil {
		m.observer(tr)
	}
}
