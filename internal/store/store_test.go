package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "tempo.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// base is an arbitrary fixed instant; timestamps are stored at second
// resolution so all offsets are whole seconds.
var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func openEntry(id, label string, start time.Time) *TimeEntry {
	return &TimeEntry{ID: id, Label: label, StartedAt: start}
}

func closedEntry(id, label string, start time.Time, secs int) *TimeEntry {
	end := start.Add(time.Duration(secs) * time.Second)
	return &TimeEntry{ID: id, Label: label, StartedAt: start, EndedAt: &end}
}

// ============================================================
// Store initialization
// ============================================================

func TestNew(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("user_version = %d, want %d", version, currentVersion)
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tempo.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
}

func TestReopenDoesNotRemigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(openEntry("e1", "task", base)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if _, err := s2.GetEntry("e1"); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Entries
// ============================================================

func TestAppendAndGetEntry(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject("client-x", "#FF6B6B")
	if err != nil {
		t.Fatal(err)
	}

	pauseEnd := base.Add(15 * time.Second)
	e := &TimeEntry{
		ID:        "e1",
		Label:     "write report",
		ProjectID: &p.ID,
		StartedAt: base,
		Pauses: []Pause{
			{Start: base.Add(10 * time.Second), End: &pauseEnd},
			{Start: base.Add(20 * time.Second)},
		},
	}
	if err := s.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.GetEntry("e1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != "write report" {
		t.Errorf("label %q", got.Label)
	}
	if got.ProjectID == nil || *got.ProjectID != p.ID {
		t.Errorf("project id %v, want %d", got.ProjectID, p.ID)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("started at %v", got.StartedAt)
	}
	if !got.Open() {
		t.Error("entry should be open")
	}
	if len(got.Pauses) != 2 {
		t.Fatalf("loaded %d pauses, want 2", len(got.Pauses))
	}
	if got.Pauses[0].End == nil || !got.Pauses[0].End.Equal(pauseEnd) {
		t.Errorf("pause 0 end %v, want %v", got.Pauses[0].End, pauseEnd)
	}
	if got.Pauses[1].End != nil {
		t.Error("pause 1 should be open")
	}
	if !got.Paused() {
		t.Error("entry with open pause should report paused")
	}
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetEntry("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFinalizesEntry(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(openEntry("e1", "task", base)); err != nil {
		t.Fatal(err)
	}

	pauseEnd := base.Add(15 * time.Second)
	end := base.Add(20 * time.Second)
	e := &TimeEntry{
		ID:        "e1",
		Label:     "task",
		StartedAt: base,
		EndedAt:   &end,
		Pauses:    []Pause{{Start: base.Add(10 * time.Second), End: &pauseEnd}},
	}
	if err := s.Update(e); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetEntry("e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Open() {
		t.Error("entry should be finalized")
	}
	if len(got.Pauses) != 1 {
		t.Fatalf("loaded %d pauses, want 1", len(got.Pauses))
	}

	// 20s wall minus 5s pause lands in the duration column.
	var dur int64
	s.db.QueryRow(`SELECT duration FROM time_entries WHERE id = 'e1'`).Scan(&dur)
	if dur != 15 {
		t.Errorf("duration column = %d, want 15", dur)
	}
}

func TestUpdateReplacesPauses(t *testing.T) {
	s := newTestStore(t)

	e := openEntry("e1", "task", base)
	e.Pauses = []Pause{{Start: base.Add(10 * time.Second)}}
	if err := s.Append(e); err != nil {
		t.Fatal(err)
	}

	pauseEnd := base.Add(12 * time.Second)
	e.Pauses[0].End = &pauseEnd
	if err := s.Update(e); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetEntry("e1")
	if len(got.Pauses) != 1 {
		t.Fatalf("stale pause rows survived: %d", len(got.Pauses))
	}
	if got.Pauses[0].End == nil {
		t.Error("pause end not persisted")
	}
}

func TestUpdateMissingEntry(t *testing.T) {
	s := newTestStore(t)
	if err := s.Update(openEntry("ghost", "task", base)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenEntryDurationIsZero(t *testing.T) {
	s := newTestStore(t)
	s.Append(openEntry("e1", "task", base))

	var dur int64
	s.db.QueryRow(`SELECT duration FROM time_entries WHERE id = 'e1'`).Scan(&dur)
	if dur != 0 {
		t.Errorf("open entry duration = %d, want 0", dur)
	}
}

// ============================================================
// Switch
// ============================================================

func TestSwitch(t *testing.T) {
	s := newTestStore(t)

	s.Append(openEntry("e1", "first", base))

	cut := base.Add(30 * time.Second)
	stop := &TimeEntry{ID: "e1", Label: "first", StartedAt: base, EndedAt: &cut}
	start := openEntry("e2", "second", cut)

	if err := s.Switch(stop, start); err != nil {
		t.Fatalf("switch: %v", err)
	}

	old, _ := s.GetEntry("e1")
	if old.Open() {
		t.Error("old entry should be finalized")
	}
	cur, _ := s.GetEntry("e2")
	if !cur.Open() {
		t.Error("new entry should be open")
	}
	if !old.EndedAt.Equal(cur.StartedAt) {
		t.Error("entries should be contiguous")
	}
}

func TestSwitchRollsBackOnMissingStop(t *testing.T) {
	s := newTestStore(t)

	cut := base.Add(time.Second)
	stop := &TimeEntry{ID: "ghost", Label: "x", StartedAt: base, EndedAt: &cut}
	start := openEntry("e2", "second", cut)

	if err := s.Switch(stop, start); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The whole transaction rolled back: the new entry must not exist.
	if _, err := s.GetEntry("e2"); !errors.Is(err, ErrNotFound) {
		t.Fatal("half-applied switch left the new entry behind")
	}
}

// ============================================================
// FindOpenEntry
// ============================================================

func TestFindOpenEntryNone(t *testing.T) {
	s := newTestStore(t)
	s.Append(closedEntry("e1", "done", base, 60))

	got, err := s.FindOpenEntry()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestFindOpenEntryOne(t *testing.T) {
	s := newTestStore(t)
	s.Append(closedEntry("e1", "done", base, 60))

	e := openEntry("e2", "live", base.Add(2*time.Minute))
	e.Pauses = []Pause{{Start: base.Add(3 * time.Minute)}}
	s.Append(e)

	got, err := s.FindOpenEntry()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "e2" {
		t.Fatalf("got %+v", got)
	}
	if !got.Paused() {
		t.Error("pause intervals must be loaded with the open entry")
	}
}

func TestFindOpenEntryMultiple(t *testing.T) {
	s := newTestStore(t)
	s.Append(openEntry("e1", "a", base))
	s.Append(openEntry("e2", "b", base.Add(time.Second)))

	if _, err := s.FindOpenEntry(); !errors.Is(err, ErrMultipleOpen) {
		t.Fatalf("expected ErrMultipleOpen, got %v", err)
	}
}

// ============================================================
// Listing and deletion
// ============================================================

func TestListEntries(t *testing.T) {
	s := newTestStore(t)

	p, _ := s.CreateProject("client-x", "#FF6B6B")
	s.Append(closedEntry("e1", "a", base, 60))
	e2 := closedEntry("e2", "b", base.Add(time.Hour), 60)
	e2.ProjectID = &p.ID
	s.Append(e2)
	s.Append(openEntry("e3", "c", base.Add(2*time.Hour)))

	all, err := s.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d entries, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != "e3" || all[2].ID != "e1" {
		t.Errorf("wrong order: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	byProject, _ := s.ListEntries(EntryFilter{ProjectID: &p.ID})
	if len(byProject) != 1 || byProject[0].ID != "e2" {
		t.Errorf("project filter: %+v", byProject)
	}

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	ranged, _ := s.ListEntries(EntryFilter{From: &from, To: &to})
	if len(ranged) != 1 || ranged[0].ID != "e2" {
		t.Errorf("range filter: %+v", ranged)
	}

	limited, _ := s.ListEntries(EntryFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit filter returned %d", len(limited))
	}
}

func TestDeleteEntryCascadesPauses(t *testing.T) {
	s := newTestStore(t)

	e := openEntry("e1", "task", base)
	e.Pauses = []Pause{{Start: base.Add(time.Second)}}
	s.Append(e)

	if err := s.DeleteEntry("e1"); err != nil {
		t.Fatal(err)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM pause_intervals WHERE entry_id = 'e1'`).Scan(&n)
	if n != 0 {
		t.Errorf("%d orphaned pause rows", n)
	}
}

// ============================================================
// Aggregates
// ============================================================

func TestDailySummary(t *testing.T) {
	s := newTestStore(t)

	p, _ := s.CreateProject("client-x", "#FF6B6B")

	day1 := base
	day2 := base.AddDate(0, 0, 1)

	e1 := closedEntry("e1", "a", day1, 600)
	e1.ProjectID = &p.ID
	s.Append(e1)
	e2 := closedEntry("e2", "b", day1.Add(time.Hour), 300)
	e2.ProjectID = &p.ID
	s.Append(e2)
	s.Append(closedEntry("e3", "c", day2, 120))
	s.Append(openEntry("e4", "live", day2.Add(time.Hour)))

	summaries, err := s.DailySummary(day1, day2.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summary rows, want 2", len(summaries))
	}

	first := summaries[0]
	if first.Date != day1.Format("2006-01-02") || first.ProjectID != p.ID {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.TotalSeconds != 900 || first.EntryCount != 2 {
		t.Errorf("day1 total = %d/%d, want 900/2", first.TotalSeconds, first.EntryCount)
	}

	second := summaries[1]
	if second.ProjectID != 0 || second.ProjectName != "" {
		t.Errorf("projectless row: %+v", second)
	}
	// The open entry is excluded.
	if second.TotalSeconds != 120 || second.EntryCount != 1 {
		t.Errorf("day2 total = %d/%d, want 120/1", second.TotalSeconds, second.EntryCount)
	}
}

func TestTodayTotal(t *testing.T) {
	s := newTestStore(t)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	s.Append(closedEntry("e1", "a", today.Add(9*time.Hour), 600))
	s.Append(closedEntry("e2", "b", today.Add(10*time.Hour), 300))
	s.Append(openEntry("e3", "live", today.Add(11*time.Hour)))
	s.Append(closedEntry("e4", "old", today.AddDate(0, 0, -1), 999))

	total, err := s.TodayTotal()
	if err != nil {
		t.Fatal(err)
	}
	if total != 900 {
		t.Errorf("today total = %d, want 900", total)
	}
}

// ============================================================
// Projects
// ============================================================

func TestProjectLifecycle(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject("client-x", "#FF6B6B")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == 0 || p.Name != "client-x" || p.Archived {
		t.Fatalf("unexpected project: %+v", p)
	}

	if err := s.UpdateProject(p.ID, "client-y", "#2ECC71"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProject(p.ID)
	if got.Name != "client-y" || got.Color != "#2ECC71" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.ArchiveProject(p.ID); err != nil {
		t.Fatal(err)
	}
	active, _ := s.ListProjects(false)
	if len(active) != 0 {
		t.Error("archived project still listed as active")
	}
	all, _ := s.ListProjects(true)
	if len(all) != 1 || !all[0].Archived {
		t.Errorf("archived listing: %+v", all)
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateProject("client-x", "#FF6B6B"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateProject("client-x", "#2ECC71"); err == nil {
		t.Fatal("duplicate name should fail")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetProject(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProjectsSortedByName(t *testing.T) {
	s := newTestStore(t)
	s.CreateProject("zeta", "#111111")
	s.CreateProject("alpha", "#222222")

	projects, err := s.ListProjects(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "alpha" {
		t.Fatalf("unexpected order: %+v", projects)
	}
}
