package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition means the command is not valid in the current
	// state. The caller should re-check Status and retry with a valid one.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrEmptyLabel means start/switch was given a blank activity label.
	ErrEmptyLabel = errors.New("empty activity label")
)

// PersistenceError wraps a failed durable read or write. The engine's
// in-memory state is guaranteed unchanged when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (p *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", p.Op, p.Err)
}

func (p *PersistenceError) Unwrap() error { return p.Err }
