package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tempo/internal/store"
)

type reportsModel struct {
	db        *store.Store
	weekStart time.Weekday
	width     int
	height    int

	summaries []store.DailySummary
	offset    int // weeks back from the current one (0 = current)

	chart barchart.Model
}

func newReportsModel(db *store.Store, weekStart time.Weekday) reportsModel {
	return reportsModel{
		db:        db,
		weekStart: weekStart,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		summaries, _ := r.db.DailySummary(from, to)
		return reportsDataMsg{summaries: summaries}
	}
}

// dateRange returns the [start, end) week window shifted offset weeks
// back, with weeks beginning on the configured day.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(today.Weekday()) - int(r.weekStart) + 7) % 7
	start := today.AddDate(0, 0, -back-7*r.offset)
	return start, start.AddDate(0, 0, 7)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
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

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, s := range r.summaries {
			if s.Date == dateStr {
				hours := float64(s.TotalSeconds) / 3600.0
				values = append(values, barchart.BarValue{
					Name:  summaryName(s),
					Value: hours,
					Style: lipgloss.NewStyle().Foreground(summaryColor(s)),
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func summaryName(s store.DailySummary) string {
	if s.ProjectName == "" {
		return "(no project)"
	}
	return s.ProjectName
}

func summaryColor(s store.DailySummary) lipgloss.Color {
	if s.ProjectColor == "" {
		return colorHighlight
	}
	return lipgloss.Color(s.ProjectColor)
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel,
	)

	chartView := r.chart.View()
	tableView := r.renderSummaryTable(w)
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Project", "Duration", "Entries"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, s := range r.summaries {
		colorDot := lipgloss.NewStyle().Foreground(summaryColor(s)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot, summaryName(s), formatSeconds(s.TotalSeconds), s.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}
