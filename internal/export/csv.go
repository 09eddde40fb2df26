package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"tempo/internal/store"
)

func ToCSV(entries []store.TimeEntry, projects map[int64]*store.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Label", "Project", "Start", "End", "Paused (s)", "Tracked (s)", "Tracked"}); err != nil {
		return err
	}

	for _, e := range entries {
		endStr := ""
		var pausedSecs, trackedSecs int64
		if e.EndedAt != nil {
			endStr = e.EndedAt.Local().Format(time.RFC3339)
			pausedSecs = int64(e.PausedFor(*e.EndedAt).Seconds())
			trackedSecs = int64(e.Elapsed(*e.EndedAt).Seconds())
		}

		row := []string{
			e.ID,
			e.Label,
			projectName(e.ProjectID, projects),
			e.StartedAt.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", pausedSecs),
			fmt.Sprintf("%d", trackedSecs),
			formatDuration(trackedSecs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func projectName(id *int64, projects map[int64]*store.Project) string {
	if id == nil {
		return ""
	}
	if p, ok := projects[*id]; ok {
		return p.Name
	}
	return "Unknown"
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
