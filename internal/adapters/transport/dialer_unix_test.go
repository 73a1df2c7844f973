//go:build !windows

package transport

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkroman/nailgun/internal/domain"
)

func TestNetDialer_UnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "ng.sock")

	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("ok"))
	}()

	addr := domain.Address{Family: domain.FamilyLocal, Path: sock}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewNetDialer().Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 2)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf) != "ok" {
		t.Errorf("read %q, want %q", buf, "ok")
	}
}

func TestReadyFile(t *testing.T) {
	tests := []struct {
		name     string
		addr     domain.Address
		wantPath string
		wantOK   bool
	}{
		{
			name:     "local address maps to socket path",
			addr:     domain.Address{Family: domain.FamilyLocal, Path: "/tmp/ng.sock"},
			wantPath: "/tmp/ng.sock",
			wantOK:   true,
		},
		{
			name:   "tcp address has no watchable file",
			addr:   domain.Address{Family: domain.FamilyTCP, Host: "localhost", Port: 2113},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ReadyFile(tt.addr)
			if ok != tt.wantOK || path != tt.wantPath {
				t.Errorf("ReadyFile() = (%q, %v), want (%q, %v)", path, ok, tt.wantPath, tt.wantOK)
			}
		})
	}
}
