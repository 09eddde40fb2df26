package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// netSeconds is what gets stored in the duration column: tracked seconds
// for finalized entries, 0 while the entry is still open.
func netSeconds(e *TimeEntry) int64 {
	if e.EndedAt == nil {
		return 0
	}
	return int64(e.Elapsed(*e.EndedAt).Seconds())
}

// Append durably records a new entry and its pause intervals.
func (s *Store) Append(e *TimeEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	defer tx.Rollback()

	if err := insertEntryTx(tx, e); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Update durably overwrites an existing entry's mutable fields (pause
// intervals and end time).
func (s *Store) Update(e *TimeEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	defer tx.Rollback()

	if err := updateEntryTx(tx, e); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// Switch finalizes stop and records start in a single transaction, so a
// crash between the two writes cannot leave both entries open or neither.
func (s *Store) Switch(stop, start *TimeEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("switch entry: %w", err)
	}
	defer tx.Rollback()

	if err := updateEntryTx(tx, stop); err != nil {
		return fmt.Errorf("switch entry: finalize %s: %w", stop.ID, err)
	}
	if err := insertEntryTx(tx, start); err != nil {
		return fmt.Errorf("switch entry: append %s: %w", start.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("switch entry: %w", err)
	}
	return nil
}

func insertEntryTx(tx *sql.Tx, e *TimeEntry) error {
	var ended any
	if e.EndedAt != nil {
		ended = fmtTime(*e.EndedAt)
	}
	_, err := tx.Exec(
		`INSERT INTO time_entries (id, project_id, label, started_at, ended_at, duration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Label, fmtTime(e.StartedAt), ended, netSeconds(e), fmtTime(e.StartedAt),
	)
	if err != nil {
		return err
	}
	return writePausesTx(tx, e)
}

func updateEntryTx(tx *sql.Tx, e *TimeEntry) error {
	var ended any
	if e.EndedAt != nil {
		ended = fmtTime(*e.EndedAt)
	}
	res, err := tx.Exec(
		`UPDATE time_entries SET ended_at = ?, duration = ? WHERE id = ?`,
		ended, netSeconds(e), e.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM pause_intervals WHERE entry_id = ?`, e.ID); err != nil {
		return err
	}
	return writePausesTx(tx, e)
}

func writePausesTx(tx *sql.Tx, e *TimeEntry) error {
	for i, p := range e.Pauses {
		var end any
		if p.End != nil {
			end = fmtTime(*p.End)
		}
		_, err := tx.Exec(
			`INSERT INTO pause_intervals (entry_id, seq, pause_start, pause_end) VALUES (?, ?, ?, ?)`,
			e.ID, i, fmtTime(p.Start), end,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindOpenEntry returns the entry without an end time, or nil when none
// exists. More than one open entry is a consistency violation and fails
// with ErrMultipleOpen.
func (s *Store) FindOpenEntry() (*TimeEntry, error) {
	rows, err := s.db.Query(
		`SELECT id FROM time_entries WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 2`,
	)
	if err != nil {
		return nil, fmt.Errorf("find open entry: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return s.GetEntry(ids[0])
	default:
		return nil, ErrMultipleOpen
	}
}

func (s *Store) GetEntry(id string) (*TimeEntry, error) {
	e := &TimeEntry{}
	var startedAt string
	var endedAt sql.NullString
	var projectID sql.NullInt64

	err := s.db.QueryRow(
		`SELECT id, project_id, label, started_at, ended_at FROM time_entries WHERE id = ?`, id,
	).Scan(&e.ID, &projectID, &e.Label, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	e.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		t := parseTime(endedAt.String)
		e.EndedAt = &t
	}
	if err := s.loadPauses(e); err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) loadPauses(e *TimeEntry) error {
	rows, err := s.db.Query(
		`SELECT pause_start, pause_end FROM pause_intervals WHERE entry_id = ? ORDER BY seq`, e.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var start string
		var end sql.NullString
		if err := rows.Scan(&start, &end); err != nil {
			return err
		}
		p := Pause{Start: parseTime(start)}
		if end.Valid {
			t := parseTime(end.String)
			p.End = &t
		}
		e.Pauses = append(e.Pauses, p)
	}
	return rows.Err()
}

func (s *Store) ListEntries(f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT id, project_id, label, started_at, ended_at FROM time_entries WHERE 1=1`
	var args []any

	if f.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, fmtTime(*f.From))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, fmtTime(*f.To))
	}
	query += ` ORDER BY started_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		var startedAt string
		var endedAt sql.NullString
		var projectID sql.NullInt64
		if err := rows.Scan(&e.ID, &projectID, &e.Label, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		if projectID.Valid {
			e.ProjectID = &projectID.Int64
		}
		e.StartedAt = parseTime(startedAt)
		if endedAt.Valid {
			t := parseTime(endedAt.String)
			e.EndedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		if err := s.loadPauses(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) DeleteEntry(id string) error {
	_, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	return err
}

// DailySummary aggregates net tracked time per project per day. Open
// entries are excluded; their duration is not final yet.
func (s *Store) DailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(e.started_at) AS day,
		       COALESCE(e.project_id, 0), COALESCE(p.name, ''), COALESCE(p.color, ''),
		       COALESCE(SUM(e.duration), 0), COUNT(*)
		FROM time_entries e
		LEFT JOIN projects p ON p.id = e.project_id
		WHERE e.ended_at IS NOT NULL
		  AND e.started_at >= ? AND e.started_at < ?
		GROUP BY day, e.project_id
		ORDER BY day, p.name`,
		fmtTime(from), fmtTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.ProjectID, &ds.ProjectName, &ds.ProjectColor, &ds.TotalSeconds, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// TodayTotal returns net tracked seconds of today's finalized entries.
func (s *Store) TodayTotal() (int64, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration), 0)
		FROM time_entries
		WHERE date(started_at) = ? AND ended_at IS NOT NULL`, today,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}
