package store

import (
	"errors"
	"time"
)

var (
	// ErrMultipleOpen is returned when more than one entry is missing an
	// end time. The engine is the sole writer, so this signals corruption.
	ErrMultipleOpen = errors.New("multiple open time entries")

	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
)

// Pause is a sub-span of an entry during which time does not accrue.
// End is nil while the pause is still open.
type Pause struct {
	Start time.Time
	End   *time.Time
}

// TimeEntry is one tracked span of activity. EndedAt is nil while the
// entry is in progress. Pauses are chronologically ordered and do not
// overlap; only the last pause may be open.
type TimeEntry struct {
	ID        string
	Label     string
	ProjectID *int64
	StartedAt time.Time
	EndedAt   *time.Time
	Pauses    []Pause
}

// Open reports whether the entry has no end time yet.
func (e *TimeEntry) Open() bool { return e.EndedAt == nil }

// Paused reports whether the entry's last pause interval is still open.
func (e *TimeEntry) Paused() bool {
	if len(e.Pauses) == 0 {
		return false
	}
	return e.Pauses[len(e.Pauses)-1].End == nil
}

// PausedFor returns the total time spent paused as of now, including an
// open pause.
func (e *TimeEntry) PausedFor(now time.Time) time.Duration {
	var total time.Duration
	for _, p := range e.Pauses {
		end := now
		if p.End != nil {
			end = *p.End
		}
		total += end.Sub(p.Start)
	}
	return total
}

// Elapsed returns tracked time as of now: (end or now) minus the start,
// minus all pause time. Never negative.
func (e *TimeEntry) Elapsed(now time.Time) time.Duration {
	end := now
	if e.EndedAt != nil {
		end = *e.EndedAt
	}
	d := end.Sub(e.StartedAt) - e.PausedFor(end)
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (e *TimeEntry) Clone() *TimeEntry {
	if e == nil {
		return nil
	}
	dup := *e
	if e.EndedAt != nil {
		t := *e.EndedAt
		dup.EndedAt = &t
	}
	if e.ProjectID != nil {
		id := *e.ProjectID
		dup.ProjectID = &id
	}
	if e.Pauses != nil {
		dup.Pauses = make([]Pause, len(e.Pauses))
		for i, p := range e.Pauses {
			dup.Pauses[i] = Pause{Start: p.Start}
			if p.End != nil {
				t := *p.End
				dup.Pauses[i].End = &t
			}
		}
	}
	return &dup
}

type Project struct {
	ID        int64
	Name      string
	Color     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryFilter narrows ListEntries results.
type EntryFilter struct {
	ProjectID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

// DailySummary is aggregated tracked time per project per day. Entries
// without a project aggregate under ProjectID 0 and an empty name.
type DailySummary struct {
	Date         string
	ProjectID    int64
	ProjectName  string
	ProjectColor string
	TotalSeconds int64
	EntryCount   int
}
