package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// appendAt is a test helper that appends an event at a fixed offset (in
// seconds) from a shared base time.
var base = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func appendAt(t *testing.T, s *Store, typ EventType, sessionID string, offset int) Event {
	t.Helper()
	e := Event{
		ID:        uuid.NewString(),
		Timestamp: base.Add(time.Duration(offset) * time.Second),
		Type:      typ,
		SessionID: sessionID,
	}
	if err := s.AppendEvent(e); err != nil {
		t.Fatalf("append event: %v", err)
	}
	return e
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/focusorb.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: must succeed without re-running migrations
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Events
// ============================================================

func TestAppendAndFetchAll(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "s1", 0)
	appendAt(t, s, EventConfirmBreakStart, "s1", 10)
	appendAt(t, s, EventSessionEnd, "s1", 20)

	events, err := s.FetchAllEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != EventSessionStart || events[2].Type != EventSessionEnd {
		t.Fatal("events not in timestamp order")
	}
	if !events[0].Timestamp.Equal(base) {
		t.Fatalf("timestamp not round-tripped: %v", events[0].Timestamp)
	}
}

func TestFetchAllOrdersByInsertionOnTies(t *testing.T) {
	s := newTestStore(t)

	// Same timestamp: insertion order must win.
	first := appendAt(t, s, EventSessionStart, "s1", 0)
	second := Event{ID: uuid.NewString(), Timestamp: first.Timestamp, Type: EventEnterPendingBreak, SessionID: "s1"}
	if err := s.AppendEvent(second); err != nil {
		t.Fatal(err)
	}

	events, _ := s.FetchAllEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != first.ID || events[1].ID != second.ID {
		t.Fatal("tie not broken by insertion order")
	}
}

func TestAppendEventWithParentAndMeta(t *testing.T) {
	s := newTestStore(t)

	parent := "root"
	e := Event{
		ID:              uuid.NewString(),
		Timestamp:       base,
		Type:            EventSessionStart,
		SessionID:       "s2",
		ParentSessionID: &parent,
		Meta:            map[string]string{"mood": "steady"},
	}
	if err := s.AppendEvent(e); err != nil {
		t.Fatal(err)
	}

	events, _ := s.FetchAllEvents()
	if len(events) != 1 {
		t.Fatal("expected 1 event")
	}
	got := events[0]
	if got.ParentSessionID == nil || *got.ParentSessionID != "root" {
		t.Fatalf("parent not round-tripped: %v", got.ParentSessionID)
	}
	if got.Meta["mood"] != "steady" {
		t.Fatalf("meta not round-tripped: %v", got.Meta)
	}
}

func TestAppendDuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	e := appendAt(t, s, EventSessionStart, "s1", 0)
	if err := s.AppendEvent(e); err == nil {
		t.Fatal("expected primary key error on duplicate id")
	}
}

func TestFetchSessionEvents(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "a", 0)
	appendAt(t, s, EventSessionEnd, "a", 10)
	appendAt(t, s, EventSessionStart, "b", 20)

	events, err := s.FetchSessionEvents("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for session a, got %d", len(events))
	}
	for _, e := range events {
		if e.SessionID != "a" {
			t.Fatal("wrong session in filtered result")
		}
	}
}

func TestFetchLastEventOfType(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "a", 0)
	appendAt(t, s, EventSessionEnd, "a", 10)
	appendAt(t, s, EventSessionStart, "b", 20)
	appendAt(t, s, EventSessionEnd, "b", 30)

	last, err := s.FetchLastEventOfType(EventSessionEnd)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.SessionID != "b" {
		t.Fatalf("expected last end for session b, got %+v", last)
	}
}

func TestFetchLastEventOfTypeNone(t *testing.T) {
	s := newTestStore(t)
	last, err := s.FetchLastEventOfType(EventSessionEnd)
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Fatal("expected nil for empty log")
	}
}

func TestFetchLastTransitionSkipsReflections(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "a", 0)
	appendAt(t, s, EventSessionEnd, "a", 10)
	appendAt(t, s, EventSessionReflection, "a", 20)

	last, err := s.FetchLastTransition()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Type != EventSessionEnd {
		t.Fatalf("expected session_end, got %+v", last)
	}
}

func TestFetchLastTransitionEmpty(t *testing.T) {
	s := newTestStore(t)
	last, err := s.FetchLastTransition()
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Fatal("expected nil for empty log")
	}
}

func TestMalformedMetaTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO events (id, timestamp, type, session_id, meta) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), base.Format(timeFormat), string(EventSessionReflection), "a", "{not json",
	)
	if err != nil {
		t.Fatal(err)
	}

	events, err := s.FetchAllEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("row with bad meta should still load, got %d rows", len(events))
	}
	if events[0].Meta != nil {
		t.Fatal("malformed meta should decode as nil")
	}
}

func TestMalformedTimestampSkipsRow(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "a", 0)
	_, err := s.db.Exec(
		`INSERT INTO events (id, timestamp, type, session_id) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), "garbage", string(EventSessionEnd), "a",
	)
	if err != nil {
		t.Fatal(err)
	}

	events, err := s.FetchAllEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("bad row should be skipped, not fail the scan; got %d rows", len(events))
	}
}

func TestResetEvents(t *testing.T) {
	s := newTestStore(t)

	appendAt(t, s, EventSessionStart, "a", 0)
	appendAt(t, s, EventSessionEnd, "a", 10)

	if err := s.ResetEvents(); err != nil {
		t.Fatal(err)
	}
	events, _ := s.FetchAllEvents()
	if events != nil {
		t.Fatalf("expected empty log after reset, got %d events", len(events))
	}

	// Settings survive a data reset.
	if _, err := s.GetSetting(SettingPendingDuration); err != nil {
		t.Fatal("settings should survive event reset")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		SettingPendingDuration:  "3",
		SettingAutoMergeWindow:  "5",
		SettingAutoBreakIdle:    "0",
		SettingAutoBreakFill:    "30",
		SettingEnableReflection: "1",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if err == nil {
		t.Fatal("expected error for missing setting")
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 5 {
		t.Fatalf("expected at least 5 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestTypedSettingGetters(t *testing.T) {
	s := newTestStore(t)

	if got := s.GetSettingInt(SettingAutoMergeWindow, 99); got != 5 {
		t.Fatalf("GetSettingInt = %d, want 5", got)
	}
	if got := s.GetSettingInt("missing", 99); got != 99 {
		t.Fatalf("GetSettingInt fallback = %d, want 99", got)
	}

	s.SetSetting("bad", "abc")
	if got := s.GetSettingInt("bad", 7); got != 7 {
		t.Fatalf("GetSettingInt on non-numeric = %d, want fallback 7", got)
	}

	if !s.GetSettingBool(SettingEnableReflection, false) {
		t.Fatal("enable_reflection default should be true")
	}
	if s.GetSettingBool("missing", false) {
		t.Fatal("missing bool should use fallback")
	}

	if got := s.GetSettingDuration(SettingPendingDuration, time.Second, 0); got != 3*time.Second {
		t.Fatalf("GetSettingDuration = %v, want 3s", got)
	}
	if got := s.GetSettingDuration(SettingAutoMergeWindow, time.Minute, 0); got != 5*time.Minute {
		t.Fatalf("GetSettingDuration = %v, want 5m", got)
	}
	if got := s.GetSettingDuration("missing", time.Second, time.Hour); got != time.Hour {
		t.Fatalf("GetSettingDuration fallback = %v, want 1h", got)
	}
}

// ============================================================
// Event type helpers
// ============================================================

func TestIsTransition(t *testing.T) {
	if EventSessionReflection.IsTransition() {
		t.Fatal("reflections are annotations, not transitions")
	}
	for _, typ := range []EventType{
		EventSessionStart, EventEnterPendingBreak, EventCancelPendingBreak,
		EventConfirmBreakStart, EventSwitchToFocus, EventSessionEnd,
	} {
		if !typ.IsTransition() {
			t.Fatalf("%s should be a transition", typ)
		}
	}
}
