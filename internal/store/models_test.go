package store

import (
	"testing"
	"time"
)

// ============================================================
// TimeEntry arithmetic
// ============================================================

func TestElapsedNoPauses(t *testing.T) {
	e := openEntry("e1", "task", base)
	if got := e.Elapsed(base.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("elapsed = %v, want 90s", got)
	}

	end := base.Add(time.Hour)
	e.EndedAt = &end
	// A finalized entry ignores the supplied now beyond its end.
	if got := e.Elapsed(base.Add(5 * time.Hour)); got != time.Hour {
		t.Errorf("elapsed = %v, want 1h", got)
	}
}

func TestElapsedExcludesPauses(t *testing.T) {
	pauseEnd := base.Add(15 * time.Second)
	end := base.Add(20 * time.Second)
	e := &TimeEntry{
		ID:        "e1",
		StartedAt: base,
		EndedAt:   &end,
		Pauses:    []Pause{{Start: base.Add(10 * time.Second), End: &pauseEnd}},
	}
	if got := e.Elapsed(end); got != 15*time.Second {
		t.Errorf("elapsed = %v, want 15s", got)
	}
}

func TestElapsedFrozenDuringOpenPause(t *testing.T) {
	e := openEntry("e1", "task", base)
	e.Pauses = []Pause{{Start: base.Add(10 * time.Second)}}

	for _, offset := range []time.Duration{10 * time.Second, time.Minute, time.Hour} {
		if got := e.Elapsed(base.Add(offset)); got != 10*time.Second {
			t.Errorf("at +%v: elapsed = %v, want 10s", offset, got)
		}
	}
}

func TestElapsedNeverNegative(t *testing.T) {
	e := openEntry("e1", "task", base)
	if got := e.Elapsed(base.Add(-time.Minute)); got != 0 {
		t.Errorf("elapsed = %v, want 0", got)
	}
}

func TestOpenAndPaused(t *testing.T) {
	e := openEntry("e1", "task", base)
	if !e.Open() || e.Paused() {
		t.Fatal("fresh entry should be open and not paused")
	}

	e.Pauses = append(e.Pauses, Pause{Start: base.Add(time.Second)})
	if !e.Paused() {
		t.Error("open pause not detected")
	}

	end := base.Add(2 * time.Second)
	e.Pauses[0].End = &end
	if e.Paused() {
		t.Error("closed pause still reported as paused")
	}
}

func TestClone(t *testing.T) {
	var nilEntry *TimeEntry
	if nilEntry.Clone() != nil {
		t.Fatal("nil clone should be nil")
	}

	pid := int64(3)
	end := base.Add(time.Minute)
	e := &TimeEntry{
		ID:        "e1",
		Label:     "task",
		ProjectID: &pid,
		StartedAt: base,
		EndedAt:   &end,
		Pauses:    []Pause{{Start: base.Add(time.Second), End: &end}},
	}

	dup := e.Clone()
	*dup.ProjectID = 99
	*dup.EndedAt = base
	dup.Pauses[0].Start = base.Add(time.Hour)

	if *e.ProjectID != 3 || !e.EndedAt.Equal(end) {
		t.Error("clone shares pointers with the original")
	}
	if !e.Pauses[0].Start.Equal(base.Add(time.Second)) {
		t.Error("clone shares pause storage with the original")
	}
}
