package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// Phase is the current mode of the session state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFocus
	PhasePendingBreak
	PhaseBreak
)

var phaseNames = map[Phase]string{
	PhaseIdle:         "idle",
	PhaseFocus:        "focus",
	PhasePendingBreak: "pending",
	PhaseBreak:        "break",
}

func (p Phase) String() string { return phaseNames[p] }

// State is a snapshot of the machine, safe to copy. It is never persisted:
// the machine always re-derives it from the tail of the event log.
type State struct {
	Phase     Phase
	SessionID string
	// Since is when the current interval began: the focus start in Focus,
	// the break start in Break, the moment the pending window opened in
	// PendingBreak.
	Since time.Time
	// FocusStart holds the original focus start while a break is pending,
	// so a cancel restores it exactly. The focus segment is never split by
	// an aborted pending break.
	FocusStart time.Time
}

// EventLog is the persistence the machine appends to and restores from.
type EventLog interface {
	AppendEvent(store.Event) error
	FetchLastTransition() (*store.Event, error)
	FetchLastEventOfType(store.EventType) (*store.Event, error)
	FetchSessionEvents(sessionID string) ([]store.Event, error)
	ResetEvents() error
}

// Listener is called synchronously after every committed transition.
type Listener func(State)

// Machine owns the session state and emits an event for every transition.
// All public operations are serialized by an internal mutex; persistence
// failures are returned to the caller but never block the in-memory
// transition.
type Machine struct {
	mu    sync.Mutex
	log   EventLog
	cfg   Config
	clock func() time.Time

	state        State
	sessionStart time.Time // timestamp of the current session's start event
	lastEnded    string    // most recently ended session, for reflections

	pendingTimer *time.Timer
	pendingGen   int // invalidates stale pending-timer callbacks

	// lastWriteErr holds an append failure from a timer-driven transition,
	// which has no caller to return to, until the next status poll.
	lastWriteErr error

	listeners []Listener
	closed    bool
}

// New creates a machine in the Idle state. Call Restore to resume from a
// previously recorded log.
func New(log EventLog, cfg Config) *Machine {
	if cfg.PendingDuration <= 0 {
		cfg.PendingDuration = DefaultPendingDuration
	}
	return &Machine{
		log:   log,
		cfg:   cfg,
		clock: time.Now,
		state: State{Phase: PhaseIdle},
	}
}

// Subscribe registers a listener notified after each committed transition.
func (m *Machine) Subscribe(fn Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// State returns a snapshot of the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentSessionDuration is the wall-clock time since the session started,
// zero when idle.
func (m *Machine) CurrentSessionDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase == PhaseIdle {
		return 0
	}
	return m.clock().Sub(m.sessionStart)
}

// PendingRemaining is the time left before a pending break confirms,
// zero outside PendingBreak.
func (m *Machine) PendingRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase != PhasePendingBreak {
		return 0
	}
	remaining := m.cfg.PendingDuration - m.clock().Sub(m.state.Since)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Start begins a new session. A no-op outside Idle.
func (m *Machine) Start() error {
	m.mu.Lock()
	if m.state.Phase != PhaseIdle {
		m.mu.Unlock()
		return nil
	}
	err := m.startSessionLocked()
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return err
}

// Click is the single-toggle input: start when idle, request a break in
// focus, cancel the pending break, or return to focus from a break.
func (m *Machine) Click() error {
	m.mu.Lock()
	now := m.clock()
	var err error
	switch m.state.Phase {
	case PhaseIdle:
		err = m.startSessionLocked()

	case PhaseFocus:
		ev := m.newEvent(store.EventEnterPendingBreak, m.state.SessionID, now)
		m.state = State{
			Phase:      PhasePendingBreak,
			SessionID:  m.state.SessionID,
			Since:      now,
			FocusStart: m.state.Since,
		}
		m.armPendingLocked()
		err = m.log.AppendEvent(ev)

	case PhasePendingBreak:
		m.stopPendingLocked()
		ev := m.newEvent(store.EventCancelPendingBreak, m.state.SessionID, now)
		// The pending interval is invisible to statistics once cancelled.
		m.state = State{
			Phase:     PhaseFocus,
			SessionID: m.state.SessionID,
			Since:     m.state.FocusStart,
		}
		err = m.log.AppendEvent(ev)

	case PhaseBreak:
		ev := m.newEvent(store.EventSwitchToFocus, m.state.SessionID, now)
		m.state = State{Phase: PhaseFocus, SessionID: m.state.SessionID, Since: now}
		err = m.log.AppendEvent(ev)
	}
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return err
}

// EndSession closes the current session from any non-Idle phase.
func (m *Machine) EndSession() error {
	m.mu.Lock()
	if m.state.Phase == PhaseIdle {
		m.mu.Unlock()
		return nil
	}
	m.stopPendingLocked()
	ev := m.newEvent(store.EventSessionEnd, m.state.SessionID, m.clock())
	m.lastEnded = m.state.SessionID
	m.state = State{Phase: PhaseIdle}
	err := m.log.AppendEvent(ev)
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return err
}

// RecordReflection attaches a mood annotation to the active session, or to
// the most recently ended one. Reflections never change machine state.
func (m *Machine) RecordReflection(mood string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessionID := m.state.SessionID
	if m.state.Phase == PhaseIdle {
		sessionID = m.lastEnded
	}
	if sessionID == "" {
		return nil
	}
	ev := m.newEvent(store.EventSessionReflection, sessionID, m.clock())
	ev.Meta = map[string]string{store.MoodKey: mood}
	return m.log.AppendEvent(ev)
}

// CheckIdle feeds the machine an inactivity reading. When focus has been
// unattended past the configured threshold, the break is confirmed directly
// and backdated to shortly after input stopped: nobody is at the keyboard to
// cancel a pending window.
func (m *Machine) CheckIdle(idleFor time.Duration) error {
	m.mu.Lock()
	if m.cfg.AutoBreakIdle <= 0 || m.state.Phase != PhaseFocus || idleFor < m.cfg.AutoBreakIdle {
		m.mu.Unlock()
		return nil
	}
	now := m.clock()
	breakStart := now.Add(-idleFor).Add(m.cfg.AutoBreakFill)
	if breakStart.Before(m.state.Since) {
		breakStart = m.state.Since
	}
	if breakStart.After(now) {
		breakStart = now
	}
	ev := m.newEvent(store.EventConfirmBreakStart, m.state.SessionID, breakStart)
	m.state = State{Phase: PhaseBreak, SessionID: m.state.SessionID, Since: breakStart}
	err := m.log.AppendEvent(ev)
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return err
}

// Reset wipes the event log and returns to Idle. The one sanctioned
// destruction of history.
func (m *Machine) Reset() error {
	m.mu.Lock()
	m.stopPendingLocked()
	m.state = State{Phase: PhaseIdle}
	m.lastEnded = ""
	err := m.log.ResetEvents()
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return err
}

// TakeWriteError returns and clears the most recent append failure from a
// timer-driven transition. Append failures on caller-driven operations are
// returned directly and never land here.
func (m *Machine) TakeWriteError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.lastWriteErr
	m.lastWriteErr = nil
	return err
}

// Close invalidates timers. The machine must not be used afterwards.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopPendingLocked()
	m.mu.Unlock()
}

// Restore re-derives state from the tail of the event log after a process
// start. A pending break whose window already elapsed while the process was
// down is confirmed with a synthesized event backdated to when the window
// would have closed, so state always agrees with wall-clock time.
func (m *Machine) Restore() error {
	m.mu.Lock()
	last, err := m.log.FetchLastTransition()
	if err != nil {
		// Unreadable log degrades to a fresh Idle machine, never a crash.
		m.state = State{Phase: PhaseIdle}
		m.mu.Unlock()
		return err
	}
	if last == nil || last.Type == store.EventSessionEnd {
		m.state = State{Phase: PhaseIdle}
		if last != nil {
			m.lastEnded = last.SessionID
		}
		m.mu.Unlock()
		return nil
	}

	session, _ := m.log.FetchSessionEvents(last.SessionID)
	m.sessionStart = last.Timestamp
	if len(session) > 0 {
		m.sessionStart = session[0].Timestamp
	}

	var appendErr error
	switch last.Type {
	case store.EventSessionStart, store.EventSwitchToFocus:
		m.state = State{Phase: PhaseFocus, SessionID: last.SessionID, Since: last.Timestamp}

	case store.EventCancelPendingBreak:
		m.state = State{
			Phase:     PhaseFocus,
			SessionID: last.SessionID,
			Since:     replayFocusStart(session, last.Timestamp),
		}

	case store.EventConfirmBreakStart:
		m.state = State{Phase: PhaseBreak, SessionID: last.SessionID, Since: last.Timestamp}

	case store.EventEnterPendingBreak:
		if m.clock().Sub(last.Timestamp) >= m.cfg.PendingDuration {
			confirmedAt := last.Timestamp.Add(m.cfg.PendingDuration)
			ev := m.newEvent(store.EventConfirmBreakStart, last.SessionID, confirmedAt)
			m.state = State{Phase: PhaseBreak, SessionID: last.SessionID, Since: confirmedAt}
			appendErr = m.log.AppendEvent(ev)
		} else {
			m.state = State{
				Phase:      PhasePendingBreak,
				SessionID:  last.SessionID,
				Since:      last.Timestamp,
				FocusStart: replayFocusStart(session, last.Timestamp),
			}
			m.armPendingLocked()
		}
	}
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
	return appendErr
}

// startSessionLocked opens a new session, linking it to the previous one
// when the gap since its end falls within the auto-merge window.
func (m *Machine) startSessionLocked() error {
	now := m.clock()
	sessionID := uuid.NewString()
	ev := m.newEvent(store.EventSessionStart, sessionID, now)
	ev.ParentSessionID = m.mergeParentLocked(now)
	m.state = State{Phase: PhaseFocus, SessionID: sessionID, Since: now}
	m.sessionStart = now
	return m.log.AppendEvent(ev)
}

// mergeParentLocked resolves the parent link for a new session. The link
// always points at the root of a merge chain, so every physical session in
// the chain groups under one id at query time.
func (m *Machine) mergeParentLocked(now time.Time) *string {
	if m.cfg.AutoMergeWindow <= 0 {
		return nil
	}
	lastEnd, err := m.log.FetchLastEventOfType(store.EventSessionEnd)
	if err != nil || lastEnd == nil {
		return nil
	}
	if now.Sub(lastEnd.Timestamp) > m.cfg.AutoMergeWindow {
		return nil
	}
	root := lastEnd.SessionID
	if events, err := m.log.FetchSessionEvents(lastEnd.SessionID); err == nil {
		for _, e := range events {
			if e.Type == store.EventSessionStart && e.ParentSessionID != nil {
				root = *e.ParentSessionID
				break
			}
		}
	}
	return &root
}

// armPendingLocked schedules the break confirmation. The generation counter
// guards against a stale callback firing after a cancel.
func (m *Machine) armPendingLocked() {
	m.pendingGen++
	gen := m.pendingGen
	m.pendingTimer = time.AfterFunc(m.pendingRealDelayLocked(), func() {
		m.expirePending(gen)
	})
}

// pendingRealDelayLocked is the wall-clock delay until the pending window
// closes, which differs from the full duration when restoring mid-window.
func (m *Machine) pendingRealDelayLocked() time.Duration {
	d := m.state.Since.Add(m.cfg.PendingDuration).Sub(m.clock())
	if d < 0 {
		d = 0
	}
	return d
}

func (m *Machine) stopPendingLocked() {
	m.pendingGen++
	if m.pendingTimer != nil {
		m.pendingTimer.Stop()
		m.pendingTimer = nil
	}
}

// expirePending confirms the break when the pending window elapses. The
// event is stamped at pendingStart + pendingDuration, not at callback-fire
// time, so timer jitter never leaks into the log.
func (m *Machine) expirePending(gen int) {
	m.mu.Lock()
	if m.closed || gen != m.pendingGen || m.state.Phase != PhasePendingBreak {
		m.mu.Unlock()
		return
	}
	m.pendingTimer = nil
	breakStart := m.state.Since.Add(m.cfg.PendingDuration)
	ev := m.newEvent(store.EventConfirmBreakStart, m.state.SessionID, breakStart)
	m.state = State{Phase: PhaseBreak, SessionID: m.state.SessionID, Since: breakStart}
	if err := m.log.AppendEvent(ev); err != nil {
		m.lastWriteErr = err
	}
	st, ls := m.snapshotLocked()
	m.mu.Unlock()
	notify(ls, st)
}

func (m *Machine) newEvent(t store.EventType, sessionID string, at time.Time) store.Event {
	return store.Event{
		ID:        uuid.NewString(),
		Timestamp: at,
		Type:      t,
		SessionID: sessionID,
	}
}

func (m *Machine) snapshotLocked() (State, []Listener) {
	ls := make([]Listener, len(m.listeners))
	copy(ls, m.listeners)
	return m.state, ls
}

// notify runs outside the machine lock so listeners may call back into it.
func notify(ls []Listener, st State) {
	for _, fn := range ls {
		fn(st)
	}
}

// replayFocusStart walks a session's events the way the machine would and
// returns the start of the focus interval open after the last of them.
// An enter/cancel pair leaves the original focus start untouched, which is
// exactly the restoration the cancel contract requires.
func replayFocusStart(events []store.Event, fallback time.Time) time.Time {
	focusStart := fallback
	saved := fallback
	for _, e := range events {
		switch e.Type {
		case store.EventSessionStart, store.EventSwitchToFocus:
			focusStart = e.Timestamp
		case store.EventEnterPendingBreak:
			saved = focusStart
		case store.EventCancelPendingBreak:
			focusStart = saved
		}
	}
	return focusStart
}
