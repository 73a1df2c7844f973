package nailgun

import (
	"io"
	"time"

	"github.com/tkroman/nailgun/internal/adapters/log"
	"github.com/tkroman/nailgun/internal/adapters/transport"
	"github.com/tkroman/nailgun/internal/app"
	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// Re-export the types a caller needs to implement the extension points.
// Aliases keep internal implementations and the public surface identical.
type (
	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// Field is one structured log field.
	Field = ports.Field

	// Transport is a bidirectional byte stream to the server. Close must
	// unblock pending reads and writes.
	Transport = ports.Transport

	// Dialer opens transports for parsed addresses.
	Dialer = ports.Dialer

	// Supervisor exposes whether the server process is alive.
	Supervisor = ports.Supervisor

	// Address is a parsed transport address.
	Address = domain.Address
)

// Option configures optional behavior of a Connection.
type Option func(*options)

// options holds the optional configuration for a Connection.
type options struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	dir string
	env map[string]string

	heartbeat    time.Duration
	waitForReady time.Duration
	policy       UnknownChunkPolicy

	logger       ports.Logger
	dialer       ports.Dialer
	supervisor   ports.Supervisor
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger:    log.NewNoopLogger(),
		dialer:    transport.NewNetDialer(),
		heartbeat: domain.DefaultHeartbeatInterval,
		policy:    FailOnUnknownChunk,
	}
}

// WithInput sets the source of the command's standard input.
// If not provided, end of input is announced immediately and the command
// runs without stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.in = r
	}
}

// WithOutput sets the sink for the command's standard output.
// If not provided, standard output is discarded.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithErrorOutput sets the sink for the command's standard error.
// If not provided, standard error is discarded.
func WithErrorOutput(w io.Writer) Option {
	return func(o *options) {
		o.errOut = w
	}
}

// WithWorkingDir sets the working directory sent to the server.
// Relative paths are resolved when the command runs. If not provided, the
// client process's working directory is used.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithEnv adds environment entries to the request, overriding entries of
// the same name inherited from the client process.
func WithEnv(env map[string]string) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithHeartbeatInterval sets the period of liveness chunks sent while the
// command's input is still open. If not provided, DefaultHeartbeatInterval
// is used.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		o.heartbeat = d
	}
}

// WithWaitForReady makes Dial wait up to d for the server's transport to
// become ready instead of failing on the first refused connection.
// If not provided, Dial attempts the connection exactly once.
func WithWaitForReady(d time.Duration) Option {
	return func(o *options) {
		o.waitForReady = d
	}
}

// WithUnknownChunkPolicy selects how inbound chunks the client has no use
// for are handled. The default, FailOnUnknownChunk, fails the session.
func WithUnknownChunkPolicy(p UnknownChunkPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDialer sets a custom transport dialer.
// If not provided, connections are made over the operating system's
// domain sockets, named pipes, or TCP according to the address.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithSupervisor tells readiness waiting about the server process.
// A dead supervisor fails the wait immediately instead of running out the
// full deadline.
func WithSupervisor(s Supervisor) Option {
	return func(o *options) {
		o.supervisor = s
	}
}

// WithEventHandler sets a handler for session state changes.
// The handler is called synchronously from the session's goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// EventHandler receives session state change notifications.
type EventHandler = app.EventEmitter
