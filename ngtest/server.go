// Package ngtest provides an in-process Nailgun protocol server for
// testing clients without a real command server.
//
// A Server accepts connections on a private address, decodes each
// client's request, and hands it to a Handler that plays the remote
// command: reading the request's stdin, writing its output streams, and
// returning an exit code. The API follows net/http/httptest: construct a
// server around a handler, dial its Addr, and Close it when done.
package ngtest

import (
	"io"
	"math"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/wire"
)

// ExitAbort makes the server drop the connection without sending an exit
// chunk. Return it from a Handler to simulate a crashing server.
const ExitAbort = math.MinInt32

// Request is one decoded command invocation.
type Request struct {
	Command string
	Args    []string
	Dir     string
	Env     []string

	// Stdin streams the client's input chunks and reports end of file at
	// the client's end-of-input marker.
	Stdin io.Reader

	// Stdout and Stderr frame writes as output chunks on the wire.
	Stdout io.Writer
	Stderr io.Writer
}

// Handler plays the remote command for one request and returns its exit
// code.
type Handler func(req *Request) int

// Server is a protocol server listening on a private address.
type Server struct {
	// Addr is the server's address in the form the client's Dial
	// accepts.
	Addr string

	handler Handler
	ln      net.Listener
	cleanup func()

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup

	heartbeats atomic.Int64
}

// NewServer starts a server on the platform's local transport: a domain
// socket in a private directory, or a uniquely named pipe. The caller
// must call Close when finished.
func NewServer(handler Handler) *Server {
	ln, addr, cleanup, err := listenLocal()
	if err != nil {
		panic("ngtest: listen on local transport: " + err.Error())
	}
	return newServer(ln, addr, cleanup, handler)
}

// NewTCPServer starts a server on a loopback TCP port chosen by the
// operating system. The caller must call Close when finished.
func NewTCPServer(handler Handler) *Server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("ngtest: listen on loopback: " + err.Error())
	}
	return newServer(ln, ln.Addr().String(), nil, handler)
}

func newServer(ln net.Listener, addr string, cleanup func(), handler Handler) *Server {
	s := &Server{
		Addr:    addr,
		handler: handler,
		ln:      ln,
		cleanup: cleanup,
		conns:   make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Close stops listening, drops open connections, and waits for in-flight
// handlers to return.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.ln.Close()
	s.wg.Wait()
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Heartbeats returns how many heartbeat chunks the server has decoded
// across all connections.
func (s *Server) Heartbeats() int64 {
	return s.heartbeats.Load()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.forget(conn)
			s.serve(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// serve decodes one request, runs the handler against it, and reports
// the exit code. Input chunks are pumped concurrently so a handler can
// block on Stdin while the client is still streaming.
func (s *Server) serve(conn net.Conn) {
	enc := wire.NewEncoder(conn)
	dec := wire.NewDecoder(conn)

	req := &Request{}
	for req.Command == "" {
		c, err := dec.Decode()
		if err != nil {
			return
		}
		switch c.Type {
		case domain.ChunkWorkingDir:
			req.Dir = string(c.Payload)
		case domain.ChunkEnvironment:
			req.Env = append(req.Env, string(c.Payload))
		case domain.ChunkArgument:
			req.Args = append(req.Args, string(c.Payload))
		case domain.ChunkCommand:
			req.Command = string(c.Payload)
		default:
			// Startup must finish before anything else arrives.
			return
		}
	}

	pr, pw := io.Pipe()
	req.Stdin = pr
	req.Stdout = &chunkWriter{enc: enc, typ: domain.ChunkStdout}
	req.Stderr = &chunkWriter{enc: enc, typ: domain.ChunkStderr}

	go func() {
		for {
			c, err := dec.Decode()
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			switch c.Type {
			case domain.ChunkStdin:
				if _, err := pw.Write(c.Payload); err != nil {
					return
				}
			case domain.ChunkStdinEOF:
				pw.Close()
				return
			case domain.ChunkHeartbeat:
				s.heartbeats.Add(1)
			}
		}
	}()

	code := s.handler(req)

	// Unblock the input pump if the handler left input unread.
	pr.Close()

	if code == ExitAbort {
		return
	}
	_ = enc.Encode(domain.Chunk{
		Type:    domain.ChunkExit,
		Payload: []byte(strconv.Itoa(code)),
	})
}

// chunkWriter frames each write as one output chunk.
type chunkWriter struct {
	enc *wire.Encoder
	typ domain.ChunkType
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.enc.Encode(domain.Chunk{Type: w.typ, Payload: p}); err != nil {
		return 0, err
	}
	return len(p), nil
}
