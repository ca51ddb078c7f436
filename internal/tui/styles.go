package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorFocus     = lipgloss.Color("#2ECC71")
	colorBreak     = lipgloss.Color("#E74C3C")
	colorPending   = lipgloss.Color("#F39C12")
	colorMuted     = lipgloss.Color("#666666")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
	colorError     = lipgloss.Color("#E74C3C")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Orb states
	orbIdleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	orbFocusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFocus).
			Align(lipgloss.Center)

	orbPendingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPending).
			Align(lipgloss.Center)

	orbBreakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBreak).
			Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	focusStyle = lipgloss.NewStyle().
			Foreground(colorFocus)

	breakStyle = lipgloss.NewStyle().
			Foreground(colorBreak)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorPending)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)
