package app

import (
	"sync"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// State represents the lifecycle state of one protocol session.
type State int

const (
	StateConnecting State = iota
	StateSendingRequest
	StateStreaming
	StateExited
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateSendingRequest:
		return "SendingRequest"
	case StateStreaming:
		return "Streaming"
	case StateExited:
		return "Exited"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateExited || s == StateFailed
}

// Machine tracks the state of one session and validates transitions.
// A session only moves forward: Connecting -> SendingRequest -> Streaming
// -> Exited, with Failed reachable from every non-terminal state. Terminal
// states are never left; each session handles exactly one command.
type Machine struct {
	mu      sync.RWMutex
	state   State
	logger  ports.Logger
	emitter EventEmitter
}

// EventEmitter is called when session state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewMachine creates a machine in StateConnecting.
func NewMachine(logger ports.Logger, emitter EventEmitter) *Machine {
	return &Machine{
		state:   StateConnecting,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current session state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (m *Machine) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state

	// Validate transition
	var valid bool
	switch oldState {
	case StateConnecting:
		valid = newState == StateSendingRequest || newState == StateFailed
	case StateSendingRequest:
		valid = newState == StateStreaming || newState == StateFailed
	case StateStreaming:
		valid = newState == StateExited || newState == StateFailed
	case StateExited, StateFailed:
		valid = false
	}
	if !valid {
		m.mu.Unlock()
		if oldState.Terminal() {
			return domain.ErrSessionFinished
		}
		return domain.ErrSessionActive
	}

	m.state = newState
	m.mu.Unlock()

	// Emit event outside of lock
	if m.emitter != nil {
		m.emitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}
