package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZeruiLi/FocusOrb/internal/engine"
)

const orbGlyph = "●"

// indicatorModel renders the orb: the live state of the session machine.
type indicatorModel struct {
	machine *engine.Machine
	cfg     engine.Config
	width   int
	height  int

	formActive bool
	form       *huh.Form
	mood       *string
}

func newIndicatorModel(m *engine.Machine, cfg engine.Config) indicatorModel {
	mood := ""
	return indicatorModel{machine: m, cfg: cfg, mood: &mood}
}

func (i *indicatorModel) setSize(w, h int) {
	i.width = w
	i.height = h
}

// pendingTickCmd redraws the countdown at 100ms while a break is pending.
func pendingTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return pendingTickMsg(t)
	})
}

func (i indicatorModel) update(msg tea.Msg) (indicatorModel, tea.Cmd) {
	if i.formActive && i.form != nil {
		return i.updateForm(msg)
	}

	switch msg := msg.(type) {
	case pendingTickMsg:
		if i.machine.State().Phase == engine.PhasePendingBreak {
			return i, pendingTickCmd()
		}
		return i, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Toggle):
			err := i.machine.Click()
			var cmds []tea.Cmd
			if i.machine.State().Phase == engine.PhasePendingBreak {
				cmds = append(cmds, pendingTickCmd())
			}
			if err != nil {
				cmds = append(cmds, reportWriteError(err))
			}
			return i, tea.Batch(cmds...)

		case key.Matches(msg, keys.End):
			if i.machine.State().Phase == engine.PhaseIdle {
				return i, nil
			}
			err := i.machine.EndSession()
			var cmds []tea.Cmd
			if err != nil {
				cmds = append(cmds, reportWriteError(err))
			}
			if i.cfg.EnableReflection {
				m, cmd := i.showReflectionForm()
				return m, tea.Batch(append(cmds, cmd)...)
			}
			return i, tea.Batch(cmds...)
		}
	}
	return i, nil
}

func (i indicatorModel) showReflectionForm() (indicatorModel, tea.Cmd) {
	*i.mood = ""
	i.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How did that session feel?").
				Options(
					huh.NewOption("Energized", "energized"),
					huh.NewOption("Steady", "steady"),
					huh.NewOption("Distracted", "distracted"),
					huh.NewOption("Drained", "drained"),
				).
				Value(i.mood),
		),
	).WithShowHelp(true)
	i.formActive = true
	return i, i.form.Init()
}

func (i indicatorModel) updateForm(msg tea.Msg) (indicatorModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			i.formActive = false
			i.form = nil
			return i, nil
		}
	}

	form, cmd := i.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		i.form = f
	}

	if i.form.State == huh.StateCompleted {
		i.formActive = false
		mood := *i.mood
		i.form = nil
		if err := i.machine.RecordReflection(mood); err != nil {
			return i, reportWriteError(err)
		}
		return i, func() tea.Msg {
			return statusMsg{text: "Reflection saved"}
		}
	}

	return i, cmd
}

func (i indicatorModel) view() string {
	w := i.width - 4

	if i.formActive && i.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				titleStyle.Render("Session Reflection"), "", i.form.View()),
		)
	}

	state := i.machine.State()

	var orb, label, detail string
	switch state.Phase {
	case engine.PhaseIdle:
		orb = orbIdleStyle.Width(w - 6).Render(orbGlyph)
		label = mutedStyle.Render("IDLE")
		detail = mutedStyle.Render("Press s to start a session")

	case engine.PhaseFocus:
		orb = orbFocusStyle.Width(w - 6).Render(orbGlyph)
		label = focusStyle.Bold(true).Render("FOCUS")
		detail = focusStyle.Render(formatDuration(i.machine.CurrentSessionDuration()))

	case engine.PhasePendingBreak:
		orb = orbPendingStyle.Width(w - 6).Render(orbGlyph)
		label = pendingStyle.Bold(true).Render("BREAK PENDING")
		remaining := i.machine.PendingRemaining()
		detail = pendingStyle.Render(fmt.Sprintf("%.1fs to cancel", remaining.Seconds()))

	case engine.PhaseBreak:
		orb = orbBreakStyle.Width(w - 6).Render(orbGlyph)
		label = breakStyle.Bold(true).Render("BREAK")
		detail = breakStyle.Render(formatDuration(time.Since(state.Since)))
	}

	var controls string
	switch state.Phase {
	case engine.PhaseIdle:
		controls = mutedStyle.Render("s: start  q: quit")
	case engine.PhaseFocus:
		controls = mutedStyle.Render("s: take a break  x: end session")
	case engine.PhasePendingBreak:
		controls = mutedStyle.Render("s: cancel break  x: end session")
	case engine.PhaseBreak:
		controls = mutedStyle.Render("s: back to focus  x: end session")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("FocusOrb"),
		"",
		orb,
		label,
		detail,
		"",
		controls,
	)

	return panelStyle.Width(w).Render(content)
}

// reportWriteError surfaces a persistence failure without undoing the
// in-memory transition: the indicator keeps tracking, durability degraded.
func reportWriteError(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Write failed (kept in memory): %v", err), isError: true}
	}
}
