package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tempo/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Project    string      `json:"project,omitempty"`
	StartTime  string      `json:"start_time"`
	EndTime    string      `json:"end_time,omitempty"`
	PausedSec  int64       `json:"paused_seconds"`
	TrackedSec int64       `json:"tracked_seconds"`
	Tracked    string      `json:"tracked"`
	Pauses     []jsonPause `json:"pauses,omitempty"`
}

type jsonPause struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

func ToJSON(entries []store.TimeEntry, projects map[int64]*store.Project, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		endStr := ""
		var pausedSecs, trackedSecs int64
		if e.EndedAt != nil {
			endStr = e.EndedAt.Local().Format(time.RFC3339)
			pausedSecs = int64(e.PausedFor(*e.EndedAt).Seconds())
			trackedSecs = int64(e.Elapsed(*e.EndedAt).Seconds())
		}

		var pauses []jsonPause
		for _, p := range e.Pauses {
			jp := jsonPause{Start: p.Start.Local().Format(time.RFC3339)}
			if p.End != nil {
				jp.End = p.End.Local().Format(time.RFC3339)
			}
			pauses = append(pauses, jp)
		}

		out.Entries = append(out.Entries, jsonEntry{
			ID:         e.ID,
			Label:      e.Label,
			Project:    projectName(e.ProjectID, projects),
			StartTime:  e.StartedAt.Local().Format(time.RFC3339),
			EndTime:    endStr,
			PausedSec:  pausedSecs,
			TrackedSec: trackedSecs,
			Tracked:    formatDuration(trackedSecs),
			Pauses:     pauses,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
