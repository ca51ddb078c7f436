package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZeruiLi/FocusOrb/internal/stats"
	"github.com/ZeruiLi/FocusOrb/internal/store"
)

// sessionsModel lists merged display sessions, newest first.
type sessionsModel struct {
	store  *store.Store
	width  int
	height int

	sessions []stats.Session
	cursor   int
}

func newSessionsModel(s *store.Store) sessionsModel {
	return sessionsModel{store: s}
}

func (s *sessionsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s sessionsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		// Read failures degrade to an empty list, never an error screen.
		events, _ := s.store.FetchAllEvents()
		return sessionsDataMsg{sessions: stats.GroupSessions(events)}
	}
}

func (s sessionsModel) update(msg tea.Msg) (sessionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsDataMsg:
		s.sessions = msg.sessions
		if s.cursor >= len(s.sessions) {
			s.cursor = 0
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.sessions)-1 {
				s.cursor++
			}
		}
	}
	return s, nil
}

func (s sessionsModel) view() string {
	w := s.width - 4

	title := titleStyle.Render("Sessions")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if len(s.sessions) == 0 {
		rows = append(rows, mutedStyle.Render("No sessions yet. Press 1 and start focusing."))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	visible := s.height - 8
	if visible < 1 {
		visible = 1
	}
	offset := 0
	if s.cursor >= visible {
		offset = s.cursor - visible + 1
	}

	for idx := offset; idx < len(s.sessions) && idx < offset+visible; idx++ {
		sess := s.sessions[idx]
		cursor := "  "
		style := normalItemStyle
		if idx == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		when := sess.Start.Local().Format("Mon Jan 02 15:04")
		span := fmt.Sprintf("%s – %s", when, sess.End.Local().Format("15:04"))
		totals := fmt.Sprintf("%s focus  %s break",
			focusStyle.Render(formatShort(sess.Focus)),
			breakStyle.Render(formatShort(sess.Break)))
		mood := ""
		if sess.Mood != "" {
			mood = highlightStyle.Render("  " + sess.Mood)
		}
		merged := ""
		if len(sess.Members) > 1 {
			merged = mutedStyle.Render(fmt.Sprintf("  (%d merged)", len(sess.Members)))
		}

		rows = append(rows, style.Render(cursor+span)+"  "+totals+mood+merged)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("%d sessions  ·  e: export", len(s.sessions))))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
