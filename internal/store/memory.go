package store

import (
	"sync"
)

// Memory is a map-backed persistence adapter for tests. It satisfies the
// same contract as Store and can be told to fail specific operations so
// engine error paths are exercisable.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*TimeEntry
	order   []string

	// When set, the corresponding operation returns the error without
	// touching stored state.
	FailAppend error
	FailUpdate error
	FailSwitch error
	FailFind   error
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*TimeEntry)}
}

func (m *Memory) Append(e *TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.entries[e.ID] = e.Clone()
	m.order = append(m.order, e.ID)
	return nil
}

func (m *Memory) Update(e *TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate != nil {
		return m.FailUpdate
	}
	if _, ok := m.entries[e.ID]; !ok {
		return ErrNotFound
	}
	m.entries[e.ID] = e.Clone()
	return nil
}

func (m *Memory) Switch(stop, start *TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSwitch != nil {
		return m.FailSwitch
	}
	if _, ok := m.entries[stop.ID]; !ok {
		return ErrNotFound
	}
	m.entries[stop.ID] = stop.Clone()
	m.entries[start.ID] = start.Clone()
	m.order = append(m.order, start.ID)
	return nil
}

func (m *Memory) FindOpenEntry() (*TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind != nil {
		return nil, m.FailFind
	}
	var open *TimeEntry
	for _, id := range m.order {
		e := m.entries[id]
		if !e.Open() {
			continue
		}
		if open != nil {
			return nil, ErrMultipleOpen
		}
		open = e
	}
	return open.Clone(), nil
}

// Get returns a copy of the stored entry, or nil when absent.
func (m *Memory) Get(id string) *TimeEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id].Clone()
}

// Len reports how many entries have been stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
