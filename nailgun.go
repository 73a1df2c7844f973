// Package nailgun implements the client side of the Nailgun wire
// protocol: command-line invocations executed on a long-running server
// process (typically a warm JVM) over a single local connection, avoiding
// process startup cost on every call.
//
// A connection runs exactly one command: the client sends the working
// directory, environment, arguments, and command name, then streams its
// input to the server while concurrently receiving the command's output,
// error output, and final exit code, all multiplexed over one byte
// stream.
//
// Example usage:
//
//	conn, err := nailgun.Dial(ctx, "local:/run/ng.sock",
//	    nailgun.WithInput(os.Stdin),
//	    nailgun.WithOutput(os.Stdout),
//	    nailgun.WithErrorOutput(os.Stderr),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	code, err := conn.Run(ctx, "com.example.Tool", "--flag", "file.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(code)
package nailgun

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkroman/nailgun/internal/adapters/fs"
	"github.com/tkroman/nailgun/internal/adapters/transport"
	"github.com/tkroman/nailgun/internal/app"
	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// probeInterval is the retry period when readiness can only be tested by
// dialing.
const probeInterval = 100 * time.Millisecond

// Connection is a dialed transport that can run one command.
// Use Dial to create one, Run to execute the command, and Close to
// release the transport.
type Connection struct {
	id        string
	addr      domain.Address
	opts      options
	transport ports.Transport
	logger    ports.Logger

	mu      sync.Mutex
	session *app.Session
	closed  bool
}

// Dial opens a connection to the server at address.
//
// An address is either "local:" followed by a domain socket path (named
// pipe name on Windows), or a TCP "host:port" pair; a bare host implies
// DefaultPort. With WithWaitForReady, Dial first waits for the server's
// transport to become ready instead of failing on the first attempt.
func Dial(ctx context.Context, address string, opts ...Option) (*Connection, error) {
	addr, err := domain.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t, err := dialTransport(ctx, addr, o)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	o.logger.Debug("connected",
		ports.String("conn", id),
		ports.String("address", addr.String()),
	)

	return &Connection{
		id:        id,
		addr:      addr,
		opts:      o,
		transport: t,
		logger:    o.logger,
	}, nil
}

// Run dials address, runs one command over the connection, and closes it.
// It is the one-call form of Dial followed by Connection.Run.
func Run(ctx context.Context, address, command string, args []string, opts ...Option) (int, error) {
	conn, err := Dial(ctx, address, opts...)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return conn.Run(ctx, command, args...)
}

// dialTransport opens the transport, first waiting out the configured
// readiness window if one is set.
func dialTransport(ctx context.Context, addr domain.Address, o options) (ports.Transport, error) {
	if o.waitForReady <= 0 {
		return o.dialer.Dial(ctx, addr)
	}

	if path, ok := transport.ReadyFile(addr); ok {
		if err := fs.AwaitReady(ctx, path, o.waitForReady, o.supervisor, o.logger); err != nil {
			return nil, err
		}
		return o.dialer.Dial(ctx, addr)
	}
	return probeDial(ctx, addr, o)
}

// probeDial retries the connection until one is accepted or the window
// closes. Addresses with no watchable filesystem object can only be
// tested by dialing.
func probeDial(ctx context.Context, addr domain.Address, o options) (ports.Transport, error) {
	deadline := time.Now().Add(o.waitForReady)
	for {
		t, err := o.dialer.Dial(ctx, addr)
		if err == nil {
			return t, nil
		}
		if o.supervisor != nil && !o.supervisor.Alive() {
			return nil, fmt.Errorf("%w: server process is not alive", domain.ErrNotReady)
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s did not accept connections within %s", domain.ErrNotReady, addr, o.waitForReady)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(probeInterval):
		}
	}
}

// ID returns the connection's unique identifier. Every log entry the
// connection emits carries it.
func (c *Connection) ID() string {
	return c.id
}

// Addr returns the canonical form of the address the connection was
// dialed against.
func (c *Connection) Addr() string {
	return c.addr.String()
}

// State returns the current lifecycle state of the connection's session.
// Before Run it is StateConnecting.
func (c *Connection) State() State {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return StateConnecting
	}
	return s.State()
}

// Run executes command with args on the server and blocks until the
// server reports an exit code or the session fails. The connection's
// transport is released before Run returns, on every path; a connection
// runs at most one command.
func (c *Connection) Run(ctx context.Context, command string, args ...string) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: connection closed before the command ran", domain.ErrConnectionClosed)
	}
	if c.session != nil {
		c.mu.Unlock()
		return 0, domain.ErrSessionFinished
	}

	dir, err := filepath.Abs(c.opts.dir)
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: resolve working directory: %v", domain.ErrIO, err)
	}

	s := app.NewSession(app.Config{
		ID:                c.id,
		Command:           command,
		Args:              args,
		Dir:               dir,
		Env:               sessionEnv(c.opts.env, c.opts.in, c.opts.out, c.opts.errOut),
		Stdin:             c.opts.in,
		Stdout:            c.opts.out,
		Stderr:            c.opts.errOut,
		HeartbeatInterval: c.opts.heartbeat,
		OnUnknownChunk:    c.opts.policy,
	}, c.transport, c.logger, c.opts.eventHandler)
	c.session = s
	c.mu.Unlock()

	return s.Run(ctx)
}

// Close releases the connection's transport. It is safe to call from any
// goroutine and more than once; closing a running connection aborts its
// session.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.session != nil {
		return c.session.CloseTransport()
	}
	return c.transport.Close()
}
