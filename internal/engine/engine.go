// Package engine implements the time-entry tracking core: a serialized
// command surface over an in-memory timer state machine, backed by a
// durable persistence port. Writes are committed before in-memory state
// changes, so the durable store is never more than one transition behind
// and a failed write leaves the engine exactly where it was.
package engine

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tempo/internal/clock"
	"tempo/internal/store"
)

// Port is the durability boundary the engine depends on. Append and
// Update must be durable by the time they return; Switch commits a
// finalize+append pair atomically. FindOpenEntry returns (nil, nil) when
// no entry is open and store.ErrMultipleOpen when more than one is.
type Port interface {
	Append(e *store.TimeEntry) error
	Update(e *store.TimeEntry) error
	Switch(stop, start *store.TimeEntry) error
	FindOpenEntry() (*store.TimeEntry, error)
}

// Engine owns the authoritative timer state. One mutating command runs at
// a time; reads observe a consistent snapshot and never block mutations
// longer than a state copy.
type Engine struct {
	port Port
	clk  clock.Clock

	mu    sync.RWMutex
	state State
	entry *store.TimeEntry

	notifier *notifier
}

// New builds an engine over the given port. A nil clk defaults to the
// system clock.
func New(port Port, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{
		port:     port,
		clk:      clk,
		notifier: newNotifier(),
	}
}

// Subscribe returns a channel receiving every state change in transition
// order. Delivery never blocks the engine.
func (e *Engine) Subscribe() <-chan Change {
	return e.notifier.subscribe()
}

// Unsubscribe stops delivery and closes the channel.
func (e *Engine) Unsubscribe(ch <-chan Change) {
	e.notifier.unsubscribe(ch)
}

// Start begins tracking a new entry and returns its id.
func (e *Engine) Start(label string) (string, error) {
	return e.StartFor(label, nil)
}

// StartFor is Start with an optional project attribution.
func (e *Engine) StartFor(label string, projectID *int64) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	next, err := e.state.Next(CmdStart, id)
	if err != nil {
		return "", err
	}

	entry := &store.TimeEntry{
		ID:        id,
		Label:     label,
		ProjectID: projectID,
		StartedAt: e.clk.Now(),
	}
	if err := e.port.Append(entry); err != nil {
		return "", &PersistenceError{Op: "start", Err: err}
	}

	e.commit(next, entry)
	return id, nil
}

// Pause opens a pause interval on the running entry.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.state.Next(CmdPause, "")
	if err != nil {
		return err
	}

	draft := e.entry.Clone()
	draft.Pauses = append(draft.Pauses, store.Pause{Start: e.clk.Now()})
	if err := e.port.Update(draft); err != nil {
		return &PersistenceError{Op: "pause", Err: err}
	}

	e.commit(next, draft)
	return nil
}

// Resume closes the open pause interval.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.state.Next(CmdResume, "")
	if err != nil {
		return err
	}

	now := e.clk.Now()
	draft := e.entry.Clone()
	draft.Pauses[len(draft.Pauses)-1].End = &now
	if err := e.port.Update(draft); err != nil {
		return &PersistenceError{Op: "resume", Err: err}
	}

	e.commit(next, draft)
	return nil
}

// Stop finalizes the live entry and returns it.
func (e *Engine) Stop() (*store.TimeEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.state.Next(CmdStop, "")
	if err != nil {
		return nil, err
	}

	draft := e.finalizeDraft(e.clk.Now())
	if err := e.port.Update(draft); err != nil {
		return nil, &PersistenceError{Op: "stop", Err: err}
	}

	e.commit(next, draft)
	return draft.Clone(), nil
}

// Switch finalizes the live entry and starts a new one as a single
// transition: one durable commit, one notification.
func (e *Engine) Switch(label string) (string, error) {
	return e.SwitchFor(label, nil)
}

// SwitchFor is Switch with an optional project attribution.
func (e *Engine) SwitchFor(label string, projectID *int64) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	next, err := e.state.Next(CmdSwitch, id)
	if err != nil {
		return "", err
	}

	now := e.clk.Now()
	stopped := e.finalizeDraft(now)
	started := &store.TimeEntry{
		ID:        id,
		Label:     label,
		ProjectID: projectID,
		StartedAt: now,
	}
	if err := e.port.Switch(stopped, started); err != nil {
		return "", &PersistenceError{Op: "switch", Err: err}
	}

	e.commit(next, started)
	return id, nil
}

// finalizeDraft returns a copy of the live entry with any open pause
// closed and the end time set. Callers hold the write lock.
func (e *Engine) finalizeDraft(now time.Time) *store.TimeEntry {
	draft := e.entry.Clone()
	if draft.Paused() {
		draft.Pauses[len(draft.Pauses)-1].End = &now
	}
	draft.EndedAt = &now
	return draft
}

// commit installs the new state and emits the notification. Callers hold
// the write lock and have already persisted the matching write.
func (e *Engine) commit(next State, entry *store.TimeEntry) {
	if next.Status == StatusIdle {
		e.entry = nil
	} else {
		e.entry = entry
	}
	e.state = next
	e.notifier.publish(Change{State: next, Entry: entry.Clone()})
}

// Status returns the current timer state.
func (e *Engine) Status() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Current returns a snapshot of the live entry, or nil when idle.
func (e *Engine) Current() *store.TimeEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entry.Clone()
}

// Elapsed returns the live entry's tracked time so far. Zero when idle.
func (e *Engine) Elapsed() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.entry == nil {
		return 0
	}
	return e.entry.Elapsed(e.clk.Now())
}

// Recover reconstructs timer state from the durable store at startup. An
// open entry whose last pause is still open resumes as paused, any other
// open entry as running. store.ErrMultipleOpen is fatal: the store needs
// manual repair before tracking can continue.
func (e *Engine) Recover() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	open, err := e.port.FindOpenEntry()
	if errors.Is(err, store.ErrMultipleOpen) {
		return err
	}
	if err != nil {
		return &PersistenceError{Op: "recover", Err: err}
	}
	if open == nil {
		return nil
	}

	next := State{Status: StatusRunning, EntryID: open.ID}
	if open.Paused() {
		next.Status = StatusPaused
	}
	e.commit(next, open)
	return nil
}
