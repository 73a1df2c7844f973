package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
	"github.com/tkroman/nailgun/internal/wire"
)

// UnknownChunkPolicy controls how the receiver treats inbound chunks it has
// no use for.
type UnknownChunkPolicy int

const (
	// FailOnUnknownChunk fails the session: unknown type bytes are
	// framing errors and recognized but client-to-server types are
	// protocol violations. This matches reference client behavior.
	FailOnUnknownChunk UnknownChunkPolicy = iota

	// IgnoreUnknownChunks consumes and discards such chunks, keeping the
	// session alive. Forward-compatible with servers emitting chunk
	// types this client does not know.
	IgnoreUnknownChunks
)

// errSessionExited is the internal signal that the receiver saw the exit
// chunk; it cancels the session's goroutine group and never escapes Run.
var errSessionExited = errors.New("session exited")

// Config carries everything one session needs to run a single command.
type Config struct {
	// ID tags log entries for this session.
	ID string

	// Command is the remote entry point to invoke.
	Command string

	// Args are the command-line arguments, in invocation order.
	Args []string

	// Dir is the working directory sent to the server.
	Dir string

	// Env are NAME=VALUE pairs sent to the server, already including the
	// protocol's client-populated entries.
	Env []string

	// Stdin supplies the command's standard input. A nil Stdin means no
	// input: end-of-input is announced immediately after the command.
	Stdin io.Reader

	// Stdout and Stderr receive the command's output streams. A nil sink
	// discards its stream.
	Stdout io.Writer
	Stderr io.Writer

	// HeartbeatInterval is the period of client liveness chunks while
	// stdin is open. Zero selects the protocol default.
	HeartbeatInterval time.Duration

	// StdinBlockSize bounds the payload of one stdin chunk. Zero selects
	// the protocol default.
	StdinBlockSize int

	// OnUnknownChunk selects strict or lenient handling of unexpected
	// inbound chunks.
	OnUnknownChunk UnknownChunkPolicy
}

// Session drives one command invocation over one transport: it sends the
// request and streams stdin while concurrently demultiplexing the server's
// output, and yields the command's exit code. Each session owns its
// transport and releases it exactly once, on every exit path.
type Session struct {
	cfg       Config
	transport ports.Transport
	enc       *wire.Encoder
	dec       *wire.Decoder
	machine   *Machine
	logger    ports.Logger

	// stdinDone is closed once the end-of-input marker has been written;
	// it stops the heartbeat loop.
	stdinDone chan struct{}

	closeOnce sync.Once
	closeErr  error

	// exited records that the receiver saw the exit chunk. Writers racing
	// the shutdown can report their induced failures first; the recorded
	// exit still wins.
	exited   bool
	exitCode int
}

// NewSession creates a session over an established transport.
// The machine starts in StateConnecting; Run advances it.
func NewSession(cfg Config, t ports.Transport, logger ports.Logger, emitter EventEmitter) *Session {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = domain.DefaultHeartbeatInterval
	}
	if cfg.StdinBlockSize <= 0 {
		cfg.StdinBlockSize = domain.StdinBlockSize
	}
	return &Session{
		cfg:       cfg,
		transport: t,
		enc:       wire.NewEncoder(t),
		dec:       wire.NewDecoder(t),
		machine:   NewMachine(logger, emitter),
		logger:    logger,
		stdinDone: make(chan struct{}),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.machine.State()
}

// CloseTransport releases the transport. Safe to call from any goroutine
// and any number of times; only the first call closes.
func (s *Session) CloseTransport() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.transport.Close()
	})
	return s.closeErr
}

// Run executes the command and blocks until the server reports an exit
// code or the session fails. The transport is closed before Run returns,
// on every path. A session runs at most once.
func (s *Session) Run(ctx context.Context) (int, error) {
	code, err := s.run(ctx)
	if err != nil {
		_ = s.machine.TransitionTo(StateFailed, err.Error())
		return 0, err
	}
	_ = s.machine.TransitionTo(StateExited, fmt.Sprintf("exit code %d", code))
	return code, nil
}

func (s *Session) run(ctx context.Context) (int, error) {
	defer s.CloseTransport()

	if err := s.machine.TransitionTo(StateSendingRequest, "transport established"); err != nil {
		return 0, err
	}
	if err := s.sendRequest(); err != nil {
		return 0, err
	}
	if err := s.machine.TransitionTo(StateStreaming, "request sent"); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Transport reads and writes do not honor contexts; closing the
	// transport is what unblocks them. gctx ends when the receiver sees
	// exit, when any side fails, or when the caller cancels.
	go func() {
		<-gctx.Done()
		s.CloseTransport()
	}()

	g.Go(func() error {
		code, err := s.receive(gctx)
		if err != nil {
			return err
		}
		s.exited = true
		s.exitCode = code
		return errSessionExited
	})
	g.Go(func() error {
		return s.pumpStdin(gctx)
	})
	g.Go(func() error {
		return s.heartbeat(gctx)
	})

	err := g.Wait()
	if s.exited {
		return s.exitCode, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err == nil {
		// The receiver either yields an exit code or an error; getting
		// here means the group was torn down without one.
		return 0, domain.ErrConnectionClosed
	}
	return 0, err
}
