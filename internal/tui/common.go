package tui

import (
	"fmt"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/stats"
	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewIndicator viewState = iota
	viewSessions
	viewReports
	viewSettings
)

var viewNames = []string{"Orb", "Sessions", "Reports", "Settings"}

// --- Messages ---

type tickMsg time.Time

// pendingTickMsg drives the high-frequency countdown redraw while a break
// is pending.
type pendingTickMsg time.Time

type idleTickMsg time.Time

type sessionsDataMsg struct {
	sessions []stats.Session
}

type reportsDataMsg struct {
	segments []stats.Segment
}

type settingsDataMsg struct {
	settings []store.Setting
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatShort(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
