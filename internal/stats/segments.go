package stats

import (
	"sort"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// Kind is the type of time a segment represents.
type Kind int

const (
	KindFocus Kind = iota
	KindBreak
)

func (k Kind) String() string {
	if k == KindBreak {
		return "break"
	}
	return "focus"
}

// Segment is a derived, typed interval reconstructed from the event log.
// Segments are never persisted; they are recomputed on every replay.
type Segment struct {
	SessionID string
	Kind      Kind
	Start     time.Time
	End       *time.Time // nil while still ongoing
}

func (s Segment) Closed() bool { return s.End != nil }

// Duration is the closed length of the segment; an ongoing segment reports
// zero. Use CloseOpenAt first for live views.
func (s Segment) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Segments replays the event log in timestamp order and reconstructs the
// focus/break intervals. Pure and deterministic: the same log always yields
// the same segments.
func Segments(events []store.Event) []Segment {
	sorted := make([]store.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var segments []Segment
	var open *Segment

	closeOpen := func(t time.Time) {
		if open == nil {
			return
		}
		end := t
		open.End = &end
		segments = append(segments, *open)
		open = nil
	}

	for _, e := range sorted {
		switch e.Type {
		case store.EventSessionStart:
			closeOpen(e.Timestamp)
			open = &Segment{SessionID: e.SessionID, Kind: KindFocus, Start: e.Timestamp}

		case store.EventSwitchToFocus, store.EventCancelPendingBreak:
			if open != nil && open.Kind == KindBreak {
				closeOpen(e.Timestamp)
				open = &Segment{SessionID: e.SessionID, Kind: KindFocus, Start: e.Timestamp}
			} else if open == nil {
				// Defensive: a focus opener with nothing open still opens focus.
				open = &Segment{SessionID: e.SessionID, Kind: KindFocus, Start: e.Timestamp}
			}
			// A cancel while focus is open is a no-op: the aborted pending
			// window never splits the focus segment.

		case store.EventConfirmBreakStart:
			closeOpen(e.Timestamp)
			open = &Segment{SessionID: e.SessionID, Kind: KindBreak, Start: e.Timestamp}

		case store.EventSessionEnd:
			closeOpen(e.Timestamp)

		case store.EventEnterPendingBreak, store.EventSessionReflection:
			// Neither starts nor ends a visible segment.
		}
	}

	if open != nil {
		segments = append(segments, *open)
	}
	return segments
}

// CloseOpenAt returns a copy of segments with any ongoing segment closed at
// now, for live aggregation.
func CloseOpenAt(segments []Segment, now time.Time) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	for i := range out {
		if out[i].End == nil {
			end := now
			out[i].End = &end
		}
	}
	return out
}

// SplitByDay splits every closed segment crossing a midnight in loc into
// per-day pieces, preserving session id and kind, so daily aggregates never
// attribute time to the wrong calendar day. Ongoing segments pass through
// unsplit.
func SplitByDay(segments []Segment, loc *time.Location) []Segment {
	var out []Segment
	for _, s := range segments {
		if s.End == nil {
			out = append(out, s)
			continue
		}
		start := s.Start
		for {
			midnight := startOfNextDay(start, loc)
			if !midnight.Before(*s.End) {
				break
			}
			end := midnight
			out = append(out, Segment{SessionID: s.SessionID, Kind: s.Kind, Start: start, End: &end})
			start = midnight
		}
		end := *s.End
		out = append(out, Segment{SessionID: s.SessionID, Kind: s.Kind, Start: start, End: &end})
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

func startOfNextDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1)
}
