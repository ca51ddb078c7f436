package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZeruiLi/FocusOrb/internal/stats"
	"github.com/ZeruiLi/FocusOrb/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

// reportsModel renders the daily focus/break trend over a navigable range.
type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode     reportMode
	segments []stats.Segment
	offset   int // 7-day blocks or weeks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		events, _ := r.store.FetchAllEvents()
		return reportsDataMsg{segments: stats.Segments(events)}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	switch r.mode {
	case reportWeekly:
		// Start of current week (Monday).
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days.
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.segments = msg.segments
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
			return r, nil
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
			return r, nil
		case key.Matches(msg, keys.Tab):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			r.buildChart()
			return r, nil
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	trend := stats.DailyTrend(r.segments, from, to, time.Local)

	var bars []barchart.BarData
	for _, day := range trend {
		values := []barchart.BarValue{
			{
				Name:  "focus",
				Value: day.Focus.Hours(),
				Style: lipgloss.NewStyle().Foreground(colorFocus),
			},
			{
				Name:  "break",
				Value: day.Break.Hours(),
				Style: lipgloss.NewStyle().Foreground(colorBreak),
			},
		}
		bars = append(bars, barchart.BarData{
			Label:  day.Day.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	modeName := "Last 7 days"
	if r.mode == reportWeekly {
		modeName = "Week"
	}
	from, to := r.dateRange()
	rangeLabel := fmt.Sprintf("%s  %s – %s",
		modeName,
		from.Format("Jan 02"),
		to.AddDate(0, 0, -1).Format("Jan 02"))

	title := titleStyle.Render("Reports")
	subtitle := mutedStyle.Render(rangeLabel)

	ranged := stats.ClosedWithin(stats.SplitByDay(r.segments, time.Local), from, to)
	summary := lipgloss.JoinHorizontal(lipgloss.Top,
		focusStyle.Render("Focus "+formatHours(stats.FocusTotal(ranged))),
		mutedStyle.Render("  ·  "),
		breakStyle.Render("Break "+formatHours(stats.BreakTotal(ranged))),
		mutedStyle.Render("  ·  "),
		highlightStyle.Render(fmt.Sprintf("Ratio %.0f%%", stats.FocusRatio(ranged)*100)),
		mutedStyle.Render("  ·  "),
		normalItemStyle.Render("Streak avg "+formatShort(stats.AvgFocusStreak(ranged))),
		mutedStyle.Render(" / max "+formatShort(stats.MaxFocusStreak(ranged))),
	)

	hint := mutedStyle.Render("←/→: navigate  tab: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title, subtitle, "",
			r.chart.View(), "",
			summary, "",
			hint,
		),
	)
}
