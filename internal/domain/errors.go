package domain

import "errors"

// Domain errors form the session failure taxonomy.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrConnection is returned when the transport cannot be established
	// or a read or write on it fails mid-session.
	ErrConnection = errors.New("nailgun: connection error")

	// ErrFraming is returned for truncated or malformed chunks, and for
	// unknown chunk type bytes in strict mode.
	ErrFraming = errors.New("nailgun: framing error")

	// ErrProtocol is returned when the server violates chunk semantics,
	// such as sending a client-to-server chunk type in strict mode or an
	// unparseable exit payload.
	ErrProtocol = errors.New("nailgun: protocol violation")

	// ErrIO is returned when a caller-supplied input source or output
	// sink fails.
	ErrIO = errors.New("nailgun: stream I/O error")

	// ErrConnectionClosed is returned when the server closes the
	// transport before sending an exit chunk.
	ErrConnectionClosed = errors.New("nailgun: connection closed before exit")

	// ErrSessionActive is returned when a command is started on a
	// connection that is already running one.
	ErrSessionActive = errors.New("nailgun: session already in progress")

	// ErrSessionFinished is returned when a command is started on a
	// connection whose session has already completed.
	ErrSessionFinished = errors.New("nailgun: session already finished")

	// ErrInvalidAddress is returned for unparseable server addresses.
	ErrInvalidAddress = errors.New("nailgun: invalid address")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("nailgun: invalid configuration")

	// ErrNotReady is returned when the server transport does not become
	// ready within the configured wait.
	ErrNotReady = errors.New("nailgun: server transport not ready")
)
