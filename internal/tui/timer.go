package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tempo/internal/engine"
	"tempo/internal/store"
)

// timerModel is the timer view: it issues commands to the tracking engine
// and renders the state the engine reports back through its notification
// stream. It never mutates timer state itself.
type timerModel struct {
	eng *engine.Engine
	db  *store.Store

	width  int
	height int

	state engine.State
	entry *store.TimeEntry

	todayTotal    int64
	recentEntries []store.TimeEntry
	projects      []store.Project

	// Label entry and project picker flow for start/switch.
	entering     bool
	switching    bool
	labelInput   textinput.Model
	picking      bool
	pickerCursor int
	pendingLabel string
}

func newTimerModel(eng *engine.Engine, db *store.Store) timerModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 120
	return timerModel{
		eng:        eng,
		db:         db,
		state:      eng.Status(),
		entry:      eng.Current(),
		labelInput: ti,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) running() bool { return t.state.Status != engine.StatusIdle }
func (t timerModel) paused() bool  { return t.state.Status == engine.StatusPaused }

func (t timerModel) elapsed() time.Duration { return t.eng.Elapsed() }

// applyChange folds an engine notification into the view.
func (t timerModel) applyChange(c engine.Change) timerModel {
	t.state = c.State
	if c.State.Status == engine.StatusIdle {
		t.entry = nil
	} else {
		t.entry = c.Entry
	}
	return t
}

func (t timerModel) loadData() tea.Cmd {
	return func() tea.Msg {
		total, _ := t.db.TodayTotal()
		entries, _ := t.db.ListEntries(store.EntryFilter{Limit: 5})
		projects, _ := t.db.ListProjects(false)
		return timerDataMsg{
			todayTotal:    total,
			recentEntries: entries,
			projects:      projects,
		}
	}
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case timerDataMsg:
		t.todayTotal = msg.todayTotal
		t.recentEntries = msg.recentEntries
		t.projects = msg.projects
		return t, nil

	case tea.KeyMsg:
		if t.entering {
			return t.updateLabelInput(msg)
		}
		if t.picking {
			return t.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if t.running() {
				return t, nil
			}
			return t.openLabelInput(false)

		case key.Matches(msg, keys.Switch):
			if !t.running() {
				return t, nil
			}
			return t.openLabelInput(true)

		case key.Matches(msg, keys.Stop):
			if _, err := t.eng.Stop(); err != nil {
				return t, errStatus(err)
			}
			return t, t.loadData()

		case key.Matches(msg, keys.Pause):
			if t.paused() {
				if err := t.eng.Resume(); err != nil {
					return t, errStatus(err)
				}
			} else if err := t.eng.Pause(); err != nil {
				return t, errStatus(err)
			}
			return t, nil
		}
	}
	return t, nil
}

func (t timerModel) openLabelInput(switching bool) (timerModel, tea.Cmd) {
	t.entering = true
	t.switching = switching
	t.labelInput.SetValue("")
	return t, t.labelInput.Focus()
}

func (t timerModel) updateLabelInput(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		t.entering = false
		t.labelInput.Blur()
		return t, nil

	case key.Matches(msg, keys.Enter):
		label := strings.TrimSpace(t.labelInput.Value())
		if label == "" {
			return t, func() tea.Msg {
				return statusMsg{text: "Label cannot be empty", isError: true}
			}
		}
		t.entering = false
		t.labelInput.Blur()
		if len(t.projects) > 0 {
			t.pendingLabel = label
			t.picking = true
			t.pickerCursor = 0
			return t, nil
		}
		return t.issueCommand(label, nil)
	}

	var cmd tea.Cmd
	t.labelInput, cmd = t.labelInput.Update(msg)
	return t, cmd
}

func (t timerModel) updatePicker(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	// Cursor 0 is "(no project)", project i sits at cursor i+1.
	switch {
	case key.Matches(msg, keys.Up):
		if t.pickerCursor > 0 {
			t.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if t.pickerCursor < len(t.projects) {
			t.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		t.picking = false
		var projectID *int64
		if t.pickerCursor > 0 {
			id := t.projects[t.pickerCursor-1].ID
			projectID = &id
		}
		return t.issueCommand(t.pendingLabel, projectID)
	case key.Matches(msg, keys.Back):
		t.picking = false
	}
	return t, nil
}

func (t timerModel) issueCommand(label string, projectID *int64) (timerModel, tea.Cmd) {
	var err error
	if t.switching {
		_, err = t.eng.SwitchFor(label, projectID)
	} else {
		_, err = t.eng.StartFor(label, projectID)
	}
	if err != nil {
		return t, errStatus(err)
	}
	return t, t.loadData()
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

func (t timerModel) view() string {
	if t.width < 20 {
		return "Terminal too small"
	}

	contentWidth := t.width - 4

	timerPanel := t.renderTimerPanel(contentWidth)
	todayPanel := t.renderTodayPanel(contentWidth)

	var bottomPanel string
	switch {
	case t.entering:
		bottomPanel = t.renderLabelInput(contentWidth)
	case t.picking:
		bottomPanel = t.renderProjectPicker(contentWidth)
	default:
		bottomPanel = t.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, todayPanel, bottomPanel)
}

func (t timerModel) renderTimerPanel(w int) string {
	if t.running() {
		timeStr := formatDuration(t.elapsed())

		var timeDisplay, indicator string
		if t.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  PAUSED")
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		label := ""
		if t.entry != nil {
			label = highlightStyle.Render(t.entry.Label)
			if t.entry.ProjectID != nil {
				if p, err := t.db.GetProject(*t.entry.ProjectID); err == nil {
					label += mutedStyle.Render(" · " + p.Name)
				}
			}
		}

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			label,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  IDLE")
	hint := mutedStyle.Render("Press s to start tracking")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (t timerModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(t.todayTotal))
	return panelStyle.Width(w).Render(fmt.Sprintf("%s  %s", title, total))
}

func (t timerModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(t.recentEntries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range t.recentEntries {
		startStr := e.StartedAt.Local().Format("15:04")
		status, dur := "●", "running"
		if e.EndedAt != nil {
			status = " "
			dur = formatDuration(e.Elapsed(*e.EndedAt))
		}
		row := fmt.Sprintf("  %s %s  %-28s %s", status, startStr, truncate(e.Label, 28), dur)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t timerModel) renderLabelInput(w int) string {
	title := titleStyle.Render("Start Tracking")
	if t.switching {
		title = titleStyle.Render("Switch Task")
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		t.labelInput.View(),
		"",
		mutedStyle.Render("  enter: continue  esc: cancel"),
	)
	return activePanelStyle.Width(w).Render(content)
}

func (t timerModel) renderProjectPicker(w int) string {
	title := titleStyle.Render("Select Project")

	var rows []string
	rows = append(rows, title)

	options := []string{"(no project)"}
	for _, p := range t.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		options = append(options, fmt.Sprintf("%s %s", colorDot, p.Name))
	}

	for i, opt := range options {
		cursor := "  "
		style := normalItemStyle
		if i == t.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+opt))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
