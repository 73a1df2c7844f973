//go:build !windows

package nailgun_test

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkroman/nailgun"
	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/wire"
)

// serveExitOnce accepts one connection, consumes the request, and replies
// with the given exit code.
func serveExitOnce(t *testing.T, ln net.Listener, code string) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		t.Error(err)
		return
	}
	defer conn.Close()

	dec := wire.NewDecoder(conn)
	for {
		c, err := dec.Decode()
		if err != nil {
			t.Error(err)
			return
		}
		if c.Type == domain.ChunkStdinEOF {
			break
		}
	}

	enc := wire.NewEncoder(conn)
	if err := enc.Encode(domain.Chunk{Type: domain.ChunkExit, Payload: []byte(code)}); err != nil {
		t.Error(err)
	}
}

func TestDial_WaitForReadyLateSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ng.sock")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Bind the socket only once the client is already waiting on it.
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("unix", path)
		if err != nil {
			t.Error(err)
			return
		}
		defer ln.Close()
		serveExitOnce(t, ln, "5")
	}()
	defer func() { <-done }()

	code, err := nailgun.Run(testCtx(t), "local:"+path, "ng-version", nil,
		nailgun.WithWaitForReady(3*time.Second),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 5 {
		t.Errorf("exit code = %d, want 5", code)
	}
}
