package tui

import (
	"fmt"
	"time"

	"tempo/internal/engine"
	"tempo/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewProjects
	viewReports
)

var viewNames = []string{"Timer", "Projects", "Reports"}

// --- Messages ---

// engineChangeMsg wraps a state-change notification from the engine.
type engineChangeMsg engine.Change

type timerDataMsg struct {
	todayTotal    int64
	recentEntries []store.TimeEntry
	projects      []store.Project
}

type projectsDataMsg struct {
	projects []store.Project
}

type reportsDataMsg struct {
	summaries []store.DailySummary
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type tickMsg time.Time

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}
