package stats

import (
	"sort"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// MinSessionDuration filters noise sessions out of the display list.
// Aggregate totals still include them.
const MinSessionDuration = 60 * time.Second

func FocusTotal(segments []Segment) time.Duration {
	return totalByKind(segments, KindFocus)
}

func BreakTotal(segments []Segment) time.Duration {
	return totalByKind(segments, KindBreak)
}

func totalByKind(segments []Segment, k Kind) time.Duration {
	var total time.Duration
	for _, s := range segments {
		if s.Kind == k {
			total += s.Duration()
		}
	}
	return total
}

// FocusRatio is focus time over total tracked time, 0 when nothing is
// tracked.
func FocusRatio(segments []Segment) float64 {
	focus := FocusTotal(segments).Seconds()
	total := focus + BreakTotal(segments).Seconds()
	if total == 0 {
		return 0
	}
	return focus / total
}

// AvgFocusStreak is the mean duration of closed focus segments.
func AvgFocusStreak(segments []Segment) time.Duration {
	var total time.Duration
	var count int
	for _, s := range segments {
		if s.Kind == KindFocus && s.Closed() {
			total += s.Duration()
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// MaxFocusStreak is the longest closed focus segment.
func MaxFocusStreak(segments []Segment) time.Duration {
	var max time.Duration
	for _, s := range segments {
		if s.Kind == KindFocus && s.Duration() > max {
			max = s.Duration()
		}
	}
	return max
}

// ClosedWithin keeps only segments fully closed and fully contained in
// [from, to). Ongoing segments never appear in historical range views.
func ClosedWithin(segments []Segment, from, to time.Time) []Segment {
	var out []Segment
	for _, s := range segments {
		if !s.Closed() {
			continue
		}
		if s.Start.Before(from) || s.End.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DayBucket is one day's focus/break totals in a trend.
type DayBucket struct {
	Day   time.Time
	Focus time.Duration
	Break time.Duration
}

// DailyTrend buckets segments per calendar day in loc over [from, to),
// zero-filling days with no activity. Segments are day-split first so no
// time is double-counted across a midnight.
func DailyTrend(segments []Segment, from, to time.Time, loc *time.Location) []DayBucket {
	split := ClosedWithin(SplitByDay(segments, loc), from, to)

	// Indexes, not element pointers: appends reallocate the backing array.
	var buckets []DayBucket
	index := make(map[time.Time]int)
	for day := startOfDay(from, loc); day.Before(to); day = day.AddDate(0, 0, 1) {
		index[day] = len(buckets)
		buckets = append(buckets, DayBucket{Day: day})
	}

	for _, s := range split {
		i, ok := index[startOfDay(s.Start, loc)]
		if !ok {
			continue
		}
		switch s.Kind {
		case KindFocus:
			buckets[i].Focus += s.Duration()
		case KindBreak:
			buckets[i].Break += s.Duration()
		}
	}
	return buckets
}

// Session is a logical display session: one or more physical sessions
// collapsed through their auto-merge parent chain.
type Session struct {
	ID      string // root session id of the merge chain
	Start   time.Time
	End     time.Time
	Focus   time.Duration
	Break   time.Duration
	Mood    string
	Members []string // physical session ids in the group
}

func (s Session) Total() time.Duration { return s.Focus + s.Break }

// GroupSessions builds the display session list from the raw log: closed
// segments grouped by effective session id (the merge-chain root), bounds
// from the outermost segments, mood from the latest reflection across the
// group's physical sessions. Groups shorter than MinSessionDuration are
// dropped from the list.
func GroupSessions(events []store.Event) []Session {
	parents := make(map[string]string)
	reflections := make(map[string]store.Event)
	for _, e := range events {
		switch e.Type {
		case store.EventSessionStart:
			if e.ParentSessionID != nil {
				parents[e.SessionID] = *e.ParentSessionID
			}
		case store.EventSessionReflection:
			if prev, ok := reflections[e.SessionID]; !ok || e.Timestamp.After(prev.Timestamp) {
				reflections[e.SessionID] = e
			}
		}
	}

	groups := make(map[string]*Session)
	seen := make(map[string]map[string]bool)
	for _, seg := range Segments(events) {
		if !seg.Closed() {
			continue
		}
		root := resolveRoot(parents, seg.SessionID)
		g, ok := groups[root]
		if !ok {
			g = &Session{ID: root, Start: seg.Start, End: *seg.End}
			groups[root] = g
			seen[root] = make(map[string]bool)
		}
		if seg.Start.Before(g.Start) {
			g.Start = seg.Start
		}
		if seg.End.After(g.End) {
			g.End = *seg.End
		}
		switch seg.Kind {
		case KindFocus:
			g.Focus += seg.Duration()
		case KindBreak:
			g.Break += seg.Duration()
		}
		if !seen[root][seg.SessionID] {
			seen[root][seg.SessionID] = true
			g.Members = append(g.Members, seg.SessionID)
		}
	}

	var sessions []Session
	for root, g := range groups {
		if g.Total() < MinSessionDuration {
			continue
		}
		var latest *store.Event
		for _, member := range g.Members {
			if r, ok := reflections[member]; ok {
				if latest == nil || r.Timestamp.After(latest.Timestamp) {
					ev := r
					latest = &ev
				}
			}
		}
		if latest != nil {
			g.Mood = latest.Meta[store.MoodKey]
		}
		sessions = append(sessions, *groups[root])
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Start.After(sessions[j].Start)
	})
	return sessions
}

// resolveRoot follows the parent chain to its oldest ancestor. The machine
// writes root links directly, but replay tolerates immediate-parent chains
// too. A cycle guard keeps a corrupted log from hanging the walk.
func resolveRoot(parents map[string]string, id string) string {
	visited := map[string]bool{id: true}
	for {
		parent, ok := parents[id]
		if !ok || visited[parent] {
			return id
		}
		visited[parent] = true
		id = parent
	}
}
