package engine

import "fmt"

// Status is the timer's lifecycle phase.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Command is a timer mutation request.
type Command int

const (
	CmdStart Command = iota
	CmdPause
	CmdResume
	CmdStop
	CmdSwitch
)

func (c Command) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdPause:
		return "pause"
	case CmdResume:
		return "resume"
	case CmdStop:
		return "stop"
	case CmdSwitch:
		return "switch"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// State is the in-memory timer state. EntryID is empty when idle.
type State struct {
	Status  Status
	EntryID string
}

// Next is the transition function of the timer state machine. It is total:
// every (state, command) pair yields either the successor state or
// ErrInvalidTransition, and never mutates the receiver. newID is the id of
// the entry created by start/switch and is ignored for other commands.
func (s State) Next(cmd Command, newID string) (State, error) {
	switch cmd {
	case CmdStart:
		if s.Status != StatusIdle {
			return s, s.reject(cmd)
		}
		return State{Status: StatusRunning, EntryID: newID}, nil
	case CmdPause:
		if s.Status != StatusRunning {
			return s, s.reject(cmd)
		}
		return State{Status: StatusPaused, EntryID: s.EntryID}, nil
	case CmdResume:
		if s.Status != StatusPaused {
			return s, s.reject(cmd)
		}
		return State{Status: StatusRunning, EntryID: s.EntryID}, nil
	case CmdStop:
		if s.Status == StatusIdle {
			return s, s.reject(cmd)
		}
		return State{Status: StatusIdle}, nil
	case CmdSwitch:
		if s.Status == StatusIdle {
			return s, s.reject(cmd)
		}
		return State{Status: StatusRunning, EntryID: newID}, nil
	default:
		return s, s.reject(cmd)
	}
}

func (s State) reject(cmd Command) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, cmd, s.Status)
}
