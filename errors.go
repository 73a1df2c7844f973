package nailgun

import (
	"github.com/tkroman/nailgun/internal/app"
	"github.com/tkroman/nailgun/internal/domain"
)

// Sentinel errors surfaced by Dial and Run. A failure wraps exactly one
// of these; match with errors.Is.
var (
	// ErrConnection reports an unreachable or refused address, or a
	// transport failure mid-session.
	ErrConnection = domain.ErrConnection

	// ErrFraming reports a truncated or malformed chunk, or an unknown
	// chunk type under the strict policy.
	ErrFraming = domain.ErrFraming

	// ErrProtocol reports a chunk that is well-formed but wrong: an
	// unexpected type from the server, or an unparseable exit payload.
	ErrProtocol = domain.ErrProtocol

	// ErrIO reports a failure reading the caller's input source or
	// writing an output sink.
	ErrIO = domain.ErrIO

	// ErrConnectionClosed reports that the server closed the connection
	// before sending an exit code.
	ErrConnectionClosed = domain.ErrConnectionClosed

	// ErrSessionActive reports a state change that is invalid while the
	// session is still running.
	ErrSessionActive = domain.ErrSessionActive

	// ErrSessionFinished reports use of a connection whose one session
	// has already run.
	ErrSessionFinished = domain.ErrSessionFinished

	// ErrInvalidAddress reports an address string that matches no
	// supported transport form.
	ErrInvalidAddress = domain.ErrInvalidAddress

	// ErrNotReady reports that the server's transport did not become
	// ready within the configured wait.
	ErrNotReady = domain.ErrNotReady
)

// State is the lifecycle state of a connection's session.
type State = app.State

// Session lifecycle states, in forward order. Failed is reachable from
// every non-terminal state.
const (
	StateConnecting     = app.StateConnecting
	StateSendingRequest = app.StateSendingRequest
	StateStreaming      = app.StateStreaming
	StateExited         = app.StateExited
	StateFailed         = app.StateFailed
)

// UnknownChunkPolicy controls how inbound chunks the client has no use
// for are handled.
type UnknownChunkPolicy = app.UnknownChunkPolicy

const (
	// FailOnUnknownChunk fails the session on any unexpected inbound
	// chunk. This matches reference client behavior and is the default.
	FailOnUnknownChunk = app.FailOnUnknownChunk

	// IgnoreUnknownChunks discards unexpected inbound chunks, keeping
	// the session alive.
	IgnoreUnknownChunks = app.IgnoreUnknownChunks
)

// DefaultPort is the TCP port dialed when an address names a host with no
// port.
const DefaultPort = domain.DefaultPort

// DefaultHeartbeatInterval is the liveness chunk period used when no
// WithHeartbeatInterval option is given.
const DefaultHeartbeatInterval = domain.DefaultHeartbeatInterval
