package stats

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

func closed(kind Kind, id string, startSec, endSec int) Segment {
	end := base.Add(time.Duration(endSec) * time.Second)
	return Segment{
		SessionID: id,
		Kind:      kind,
		Start:     base.Add(time.Duration(startSec) * time.Second),
		End:       &end,
	}
}

// ============================================================
// Totals
// ============================================================

func TestTotals(t *testing.T) {
	segs := Segments(sampleSession("s1"))

	if got := FocusTotal(segs); got != 23*time.Second {
		t.Fatalf("focus total = %v, want 23s", got)
	}
	if got := BreakTotal(segs); got != 7*time.Second {
		t.Fatalf("break total = %v, want 7s", got)
	}
	if FocusTotal(segs)+BreakTotal(segs) != 30*time.Second {
		t.Fatal("totals must add up to the session span")
	}
}

func TestTotalsAddUpToSessionSpan(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		// One fully-closed session with a random transition walk.
		id := "s1"
		var events []store.Event
		offset := 0
		events = append(events, evAt(store.EventSessionStart, id, offset))
		inBreak := false
		steps := rapid.IntRange(0, 10).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			offset += rapid.IntRange(1, 3600).Draw(rt, "gap")
			if inBreak {
				events = append(events, evAt(store.EventSwitchToFocus, id, offset))
			} else {
				events = append(events, evAt(store.EventConfirmBreakStart, id, offset))
			}
			inBreak = !inBreak
		}
		offset += rapid.IntRange(1, 3600).Draw(rt, "tail")
		events = append(events, evAt(store.EventSessionEnd, id, offset))

		segs := Segments(events)
		span := time.Duration(offset) * time.Second
		if got := FocusTotal(segs) + BreakTotal(segs); got != span {
			rt.Fatalf("totals %v, session span %v", got, span)
		}
	})
}

func TestFocusRatio(t *testing.T) {
	segs := []Segment{
		closed(KindFocus, "a", 0, 30),
		closed(KindBreak, "a", 30, 40),
	}
	if got := FocusRatio(segs); got != 0.75 {
		t.Fatalf("ratio = %v, want 0.75", got)
	}
}

func TestFocusRatioEmpty(t *testing.T) {
	if got := FocusRatio(nil); got != 0 {
		t.Fatalf("ratio of nothing = %v, want 0", got)
	}
}

func TestFocusStreaks(t *testing.T) {
	segs := []Segment{
		closed(KindFocus, "a", 0, 10),
		closed(KindBreak, "a", 10, 100),
		closed(KindFocus, "a", 100, 130),
		{SessionID: "a", Kind: KindFocus, Start: base.Add(130 * time.Second)}, // open
	}

	if got := AvgFocusStreak(segs); got != 20*time.Second {
		t.Fatalf("avg streak = %v, want 20s", got)
	}
	if got := MaxFocusStreak(segs); got != 30*time.Second {
		t.Fatalf("max streak = %v, want 30s", got)
	}
}

func TestFocusStreaksEmpty(t *testing.T) {
	if AvgFocusStreak(nil) != 0 || MaxFocusStreak(nil) != 0 {
		t.Fatal("streaks over nothing must be zero")
	}
}

// ============================================================
// Range filtering
// ============================================================

func TestClosedWithin(t *testing.T) {
	from := base
	to := base.Add(100 * time.Second)
	segs := []Segment{
		closed(KindFocus, "a", 0, 100),   // exactly the range: kept
		closed(KindFocus, "b", -10, 50),  // starts before: dropped
		closed(KindFocus, "c", 50, 110),  // ends after: dropped
		closed(KindFocus, "d", 20, 80),   // inside: kept
		{SessionID: "e", Kind: KindFocus, Start: base.Add(20 * time.Second)}, // open: dropped
	}

	got := ClosedWithin(segs, from, to)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %+v", got)
	}
	if got[0].SessionID != "a" || got[1].SessionID != "d" {
		t.Fatalf("wrong segments kept: %+v", got)
	}
}

// ============================================================
// Daily trend
// ============================================================

func TestDailyTrendZeroFills(t *testing.T) {
	loc := time.UTC
	from := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 7)

	segs := []Segment{
		closed(KindFocus, "a", 0, 3600), // June 2, 1h focus
	}

	trend := DailyTrend(segs, from, to, loc)
	if len(trend) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(trend))
	}
	if trend[0].Focus != time.Hour || trend[0].Break != 0 {
		t.Fatalf("June 2 bucket = %+v", trend[0])
	}
	for i := 1; i < 7; i++ {
		if trend[i].Focus != 0 || trend[i].Break != 0 {
			t.Fatalf("day %d should be zero-filled: %+v", i, trend[i])
		}
		if !trend[i].Day.Equal(from.AddDate(0, 0, i)) {
			t.Fatalf("bucket %d day = %v", i, trend[i].Day)
		}
	}
}

func TestDailyTrendSplitsAtMidnight(t *testing.T) {
	loc := time.UTC
	from := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 2)

	start := time.Date(2025, 6, 2, 23, 0, 0, 0, loc)
	end := time.Date(2025, 6, 3, 2, 0, 0, 0, loc)
	segs := []Segment{{SessionID: "a", Kind: KindFocus, Start: start, End: &end}}

	trend := DailyTrend(segs, from, to, loc)
	if trend[0].Focus != time.Hour {
		t.Fatalf("June 2 = %v, want 1h", trend[0].Focus)
	}
	if trend[1].Focus != 2*time.Hour {
		t.Fatalf("June 3 = %v, want 2h", trend[1].Focus)
	}
}

func TestDailyTrendKeepsEveryDayTotal(t *testing.T) {
	loc := time.UTC
	from := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 7)

	// One hour of focus on every day of the range. Totals must land in
	// their own buckets, first days included.
	var segs []Segment
	for i := 0; i < 7; i++ {
		start := from.AddDate(0, 0, i).Add(9 * time.Hour)
		end := start.Add(time.Hour)
		segs = append(segs, Segment{SessionID: "a", Kind: KindFocus, Start: start, End: &end})
	}

	trend := DailyTrend(segs, from, to, loc)
	if len(trend) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(trend))
	}
	for i, b := range trend {
		if b.Focus != time.Hour {
			t.Fatalf("day %d bucket lost its total: got %v, want 1h", i, b.Focus)
		}
	}
}

// ============================================================
// Session grouping
// ============================================================

func TestGroupSessionsSingle(t *testing.T) {
	events := sampleSession("s1")
	refl := evAt(store.EventSessionReflection, "s1", 31)
	refl.Meta = map[string]string{store.MoodKey: "steady"}
	events = append(events, refl)

	// 30s is under MinSessionDuration; scale the session up by reusing
	// offsets in minutes instead.
	for i := range events {
		events[i].Timestamp = base.Add(events[i].Timestamp.Sub(base) * 60)
	}

	sessions := GroupSessions(events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != "s1" || len(s.Members) != 1 {
		t.Fatalf("unexpected group: %+v", s)
	}
	if s.Focus != 23*time.Minute || s.Break != 7*time.Minute {
		t.Fatalf("focus %v break %v, want 23m/7m", s.Focus, s.Break)
	}
	if s.Total() != 30*time.Minute {
		t.Fatalf("total = %v, want 30m", s.Total())
	}
	if s.Mood != "steady" {
		t.Fatalf("mood = %q, want steady", s.Mood)
	}
}

func TestGroupSessionsMergesChain(t *testing.T) {
	root := "root"
	child := "child"
	events := []store.Event{
		evAt(store.EventSessionStart, root, 0),
		evAt(store.EventSessionEnd, root, 120),
		evAt(store.EventSessionStart, child, 180),
		evAt(store.EventSessionEnd, child, 300),
	}
	events[2].ParentSessionID = &root

	sessions := GroupSessions(events)
	if len(sessions) != 1 {
		t.Fatalf("merged chain should group as one, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != root {
		t.Fatalf("group id = %s, want the chain root", s.ID)
	}
	if len(s.Members) != 2 {
		t.Fatalf("members = %v", s.Members)
	}
	if !s.Start.Equal(base) || !s.End.Equal(base.Add(300*time.Second)) {
		t.Fatalf("bounds %v-%v", s.Start, s.End)
	}
	if s.Focus != 240*time.Second {
		t.Fatalf("focus = %v, want 4m", s.Focus)
	}
}

func TestGroupSessionsImmediateParentChain(t *testing.T) {
	// Links written as immediate parents rather than roots still resolve.
	a, b, c := "a", "b", "c"
	events := []store.Event{
		evAt(store.EventSessionStart, a, 0),
		evAt(store.EventSessionEnd, a, 60),
		evAt(store.EventSessionStart, b, 120),
		evAt(store.EventSessionEnd, b, 180),
		evAt(store.EventSessionStart, c, 240),
		evAt(store.EventSessionEnd, c, 300),
	}
	events[2].ParentSessionID = &a
	events[4].ParentSessionID = &b

	sessions := GroupSessions(events)
	if len(sessions) != 1 || sessions[0].ID != a {
		t.Fatalf("chain should collapse to its root: %+v", sessions)
	}
	if len(sessions[0].Members) != 3 {
		t.Fatalf("members = %v", sessions[0].Members)
	}
}

func TestGroupSessionsFiltersShort(t *testing.T) {
	events := []store.Event{
		evAt(store.EventSessionStart, "blip", 0),
		evAt(store.EventSessionEnd, "blip", 10),
		evAt(store.EventSessionStart, "real", 600),
		evAt(store.EventSessionEnd, "real", 900),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 1 || sessions[0].ID != "real" {
		t.Fatalf("10s blip must be filtered: %+v", sessions)
	}
}

func TestGroupSessionsNewestFirst(t *testing.T) {
	events := []store.Event{
		evAt(store.EventSessionStart, "old", 0),
		evAt(store.EventSessionEnd, "old", 120),
		evAt(store.EventSessionStart, "new", 3600),
		evAt(store.EventSessionEnd, "new", 3720),
	}

	sessions := GroupSessions(events)
	if len(sessions) != 2 || sessions[0].ID != "new" {
		t.Fatalf("sessions must sort newest first: %+v", sessions)
	}
}

func TestGroupSessionsLatestMoodWins(t *testing.T) {
	root := "root"
	child := "child"
	events := []store.Event{
		evAt(store.EventSessionStart, root, 0),
		evAt(store.EventSessionEnd, root, 120),
		evAt(store.EventSessionStart, child, 180),
		evAt(store.EventSessionEnd, child, 300),
	}
	events[2].ParentSessionID = &root

	early := evAt(store.EventSessionReflection, root, 121)
	early.Meta = map[string]string{store.MoodKey: "distracted"}
	late := evAt(store.EventSessionReflection, child, 301)
	late.Meta = map[string]string{store.MoodKey: "energized"}
	events = append(events, early, late)

	sessions := GroupSessions(events)
	if sessions[0].Mood != "energized" {
		t.Fatalf("mood = %q, want the latest reflection across the group", sessions[0].Mood)
	}
}

func TestGroupSessionsIgnoresOpen(t *testing.T) {
	events := []store.Event{
		evAt(store.EventSessionStart, "s1", 0),
	}
	if sessions := GroupSessions(events); sessions != nil {
		t.Fatalf("an ongoing session has no closed segments to group: %+v", sessions)
	}
}

func TestResolveRootCycleGuard(t *testing.T) {
	parents := map[string]string{"a": "b", "b": "a"}
	if got := resolveRoot(parents, "a"); got != "a" && got != "b" {
		t.Fatalf("cycle walk escaped: %s", got)
	}
}
