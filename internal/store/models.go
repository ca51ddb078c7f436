package store

import "time"

// EventType identifies a state transition recorded in the event log.
type EventType string

const (
	EventSessionStart       EventType = "session_start"
	EventEnterPendingBreak  EventType = "enter_pending_break"
	EventCancelPendingBreak EventType = "cancel_pending_break"
	EventConfirmBreakStart  EventType = "confirm_break_start"
	EventSwitchToFocus      EventType = "switch_to_focus"
	EventSessionEnd         EventType = "session_end"
	EventSessionReflection  EventType = "session_reflection"
)

// IsTransition reports whether the event type changes machine state.
// Reflections are annotations and never affect state or segments.
func (t EventType) IsTransition() bool {
	return t != EventSessionReflection
}

// Event is one immutable row of the append-only log. Events are never
// updated or deleted after append, except via a full data reset.
type Event struct {
	ID              string
	Timestamp       time.Time
	Type            EventType
	SessionID       string
	ParentSessionID *string
	Meta            map[string]string
}

// MoodKey is the meta key carrying the mood tag on reflection events.
const MoodKey = "mood"

type Setting struct {
	Key   string
	Value string
}

// Setting keys understood by the rest of the app.
const (
	SettingPendingDuration  = "pending_duration"  // seconds before a pending break confirms
	SettingAutoMergeWindow  = "auto_merge_window" // minutes, 0 disables session merging
	SettingAutoBreakIdle    = "auto_break_idle"   // minutes of inactivity before auto-break, 0 disables
	SettingAutoBreakFill    = "auto_break_fill"   // seconds of idle grace credited as focus
	SettingEnableReflection = "enable_reflection" // "1" to prompt for a mood after a session
)
