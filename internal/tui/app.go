package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZeruiLi/FocusOrb/internal/engine"
	"github.com/ZeruiLi/FocusOrb/internal/export"
	"github.com/ZeruiLi/FocusOrb/internal/platform"
	"github.com/ZeruiLi/FocusOrb/internal/stats"
	"github.com/ZeruiLi/FocusOrb/internal/store"
)

const idleCheckInterval = 30 * time.Second

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	machine *engine.Machine
	cfg     engine.Config
	idle    platform.IdleProvider
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	indicator indicatorModel
	sessions  sessionsModel
	reports   reportsModel
	settings  settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, m *engine.Machine, cfg engine.Config) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		machine:    m,
		cfg:        cfg,
		idle:       platform.NewIdleProvider(),
		activeView: viewIndicator,
		indicator:  newIndicatorModel(m, cfg),
		sessions:   newSessionsModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s, m),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.cfg.AutoBreakIdle > 0 {
		cmds = append(cmds, idleTickCmd())
	}
	// A restore may land mid-pending; keep the countdown fresh.
	if a.machine.State().Phase == engine.PhasePendingBreak {
		cmds = append(cmds, pendingTickCmd())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func idleTickCmd() tea.Cmd {
	return tea.Tick(idleCheckInterval, func(t time.Time) tea.Msg {
		return idleTickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.indicator.setSize(a.width, contentHeight)
		a.sessions.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (a form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewIndicator
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewSessions
			return a, a.sessions.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			if a.activeView == viewReports {
				// Reports uses tab to flip daily/weekly.
				return a.updateActiveView(msg)
			}
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// Timer-driven confirms have no caller to hand their append error to.
		if err := a.machine.TakeWriteError(); err != nil {
			a.status = errorStyle.Render(fmt.Sprintf("Write failed (kept in memory): %v", err))
		}
		return a, tickCmd()

	case idleTickMsg:
		return a, tea.Batch(idleTickCmd(), a.checkIdle())

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.status = errorStyle.Render(msg.text)
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// checkIdle feeds one inactivity reading into the machine. Unsupported
// platforms silently disable the policy.
func (a App) checkIdle() tea.Cmd {
	return func() tea.Msg {
		idleFor, err := a.idle.IdleDuration()
		if err != nil {
			if errors.Is(err, platform.ErrIdleUnsupported) {
				return nil
			}
			return statusMsg{text: fmt.Sprintf("Idle check failed: %v", err), isError: true}
		}
		if err := a.machine.CheckIdle(idleFor); err != nil {
			return statusMsg{text: fmt.Sprintf("Write failed (kept in memory): %v", err), isError: true}
		}
		return nil
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewIndicator:
		a.indicator, cmd = a.indicator.update(msg)
	case viewSessions:
		a.sessions, cmd = a.sessions.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewIndicator:
		return a.indicator.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewSessions:
		return a.sessions.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.exportPicking = false
		return a, nil
	case "up", "k":
		if a.exportCursor > 0 {
			a.exportCursor--
		}
		return a, nil
	case "down", "j":
		if a.exportCursor < 1 {
			a.exportCursor++
		}
		return a, nil
	case "enter":
		format := "csv"
		if a.exportCursor == 1 {
			format = "json"
		}
		return a, a.runExport(format)
	}
	return a, nil
}

func (a App) runExport(format string) tea.Cmd {
	return func() tea.Msg {
		events, err := a.store.FetchAllEvents()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
		}
		sessions := stats.GroupSessions(events)

		path := fmt.Sprintf("focusorb_%s.%s", time.Now().Format("20060102_150405"), format)
		if format == "json" {
			err = export.ToJSON(sessions, path)
		} else {
			err = export.ToCSV(sessions, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewIndicator:
		content = a.indicator.view()
	case viewSessions:
		content = a.sessions.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusorb")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Live state marker mirroring the orb in every view.
	stateInfo := ""
	switch a.machine.State().Phase {
	case engine.PhaseFocus:
		stateInfo = focusStyle.Render(" ● " + formatDuration(a.machine.CurrentSessionDuration()))
	case engine.PhasePendingBreak:
		stateInfo = pendingStyle.Render(fmt.Sprintf(" ◐ %.1fs", a.machine.PendingRemaining().Seconds()))
	case engine.PhaseBreak:
		stateInfo = breakStyle.Render(" ● " + formatDuration(a.machine.CurrentSessionDuration()))
	}

	left := footerStyle.Render(helpView)
	right := stateInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
