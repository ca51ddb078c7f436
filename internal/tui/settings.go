package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZeruiLi/FocusOrb/internal/engine"
	"github.com/ZeruiLi/FocusOrb/internal/store"
)

type settingsModel struct {
	store   *store.Store
	machine *engine.Machine
	width   int
	height  int

	settings   []store.Setting
	formActive bool
	form       *huh.Form
	confirming bool

	// Form values as pointers (survive value copies)
	pendingDuration *string
	mergeWindow     *string
	autoBreakIdle   *string
	autoBreakFill   *string
	reflection      *bool
	resetConfirmed  *bool
}

func newSettingsModel(s *store.Store, m *engine.Machine) settingsModel {
	pd, mw, abi, abf := "", "", "", ""
	refl, reset := false, false
	return settingsModel{
		store:           s,
		machine:         m,
		pendingDuration: &pd,
		mergeWindow:     &mw,
		autoBreakIdle:   &abi,
		autoBreakFill:   &abf,
		reflection:      &refl,
		resetConfirmed:  &reset,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		case key.Matches(msg, keys.Reset):
			return s.showResetConfirm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.pendingDuration = s.getVal(store.SettingPendingDuration, "3")
	*s.mergeWindow = s.getVal(store.SettingAutoMergeWindow, "5")
	*s.autoBreakIdle = s.getVal(store.SettingAutoBreakIdle, "0")
	*s.autoBreakFill = s.getVal(store.SettingAutoBreakFill, "30")
	*s.reflection = s.getVal(store.SettingEnableReflection, "1") == "1"

	validateInt := func(min int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("must be a number")
			}
			if n < min {
				return fmt.Errorf("must be at least %d", min)
			}
			return nil
		}
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Break debounce (sec)").Value(s.pendingDuration).Validate(validateInt(1)),
			huh.NewInput().Title("Session merge window (min, 0 = off)").Value(s.mergeWindow).Validate(validateInt(0)),
		).Title("Session"),
		huh.NewGroup(
			huh.NewInput().Title("Auto-break after idle (min, 0 = off)").Value(s.autoBreakIdle).Validate(validateInt(0)),
			huh.NewInput().Title("Idle grace kept as focus (sec)").Value(s.autoBreakFill).Validate(validateInt(1)),
			huh.NewConfirm().Title("Ask for a reflection after a session?").Value(s.reflection),
		).Title("Automation"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	s.confirming = false
	return s, s.form.Init()
}

func (s settingsModel) showResetConfirm() (settingsModel, tea.Cmd) {
	*s.resetConfirmed = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Erase the entire event log?").
				Description("All sessions and statistics are deleted. This cannot be undone.").
				Affirmative("Erase").
				Negative("Keep").
				Value(s.resetConfirmed),
		),
	)
	s.formActive = true
	s.confirming = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if s.confirming {
			return s.applyReset()
		}
		s.saveSettings()
		return s, tea.Batch(s.refresh(), func() tea.Msg {
			return statusMsg{text: "Settings saved (effective next start)"}
		})
	}

	return s, cmd
}

func (s settingsModel) applyReset() (settingsModel, tea.Cmd) {
	if !*s.resetConfirmed {
		return s, nil
	}
	if err := s.machine.Reset(); err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Reset failed: %v", err), isError: true}
		}
	}
	return s, func() tea.Msg {
		return statusMsg{text: "All data erased"}
	}
}

func (s settingsModel) saveSettings() {
	refl := "0"
	if *s.reflection {
		refl = "1"
	}
	s.store.SetSetting(store.SettingPendingDuration, *s.pendingDuration)
	s.store.SetSetting(store.SettingAutoMergeWindow, *s.mergeWindow)
	s.store.SetSetting(store.SettingAutoBreakIdle, *s.autoBreakIdle)
	s.store.SetSetting(store.SettingAutoBreakFill, *s.autoBreakFill)
	s.store.SetSetting(store.SettingEnableReflection, refl)
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("enter: edit  D: erase all data")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingPendingDuration, store.SettingAutoBreakFill:
		return v + " sec"
	case store.SettingAutoMergeWindow, store.SettingAutoBreakIdle:
		if v == "0" {
			return "off"
		}
		return v + " min"
	case store.SettingEnableReflection:
		if v == "1" || v == "true" {
			return "yes"
		}
		return "no"
	}
	return v
}
