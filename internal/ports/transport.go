package ports

import (
	"context"

	"github.com/tkroman/nailgun/internal/domain"
)

// Transport is the duplex byte stream carrying one protocol session.
// A net.Conn satisfies this interface.
//
// A transport is exclusively owned by one session and closed exactly once
// when the session ends, on every exit path. Close must unblock any
// in-flight Read.
type Transport interface {
	// Read fills p with inbound bytes, blocking until data is available.
	Read(p []byte) (int, error)

	// Write sends p on the connection. Callers serialize writes; the
	// transport itself need not.
	Write(p []byte) (int, error)

	// Close tears down the connection. Safe to call on a transport whose
	// peer already disconnected.
	Close() error
}

// Dialer establishes a transport to a server address.
// Implementations select the concrete mechanism from the address family.
type Dialer interface {
	// Dial connects to the given address. The context bounds connection
	// establishment only, not the lifetime of the returned transport.
	Dial(ctx context.Context, addr domain.Address) (Transport, error)
}

// Supervisor reports on an externally managed server process. The engine
// never starts or stops servers itself; a supervisor lets readiness waits
// fail fast when the process they are waiting for has already died.
type Supervisor interface {
	// Alive reports whether the server process is currently running.
	Alive() bool
}
