package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/tkroman/nailgun/internal/domain"
)

func TestNetDialer_TCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	// Echo the first message back to the client.
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(buf[:n])
	}()

	addr := domain.Address{
		Family: domain.FamilyTCP,
		Host:   "127.0.0.1",
		Port:   l.Addr().(*net.TCPAddr).Port,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewNetDialer().Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	buf := make([]byte, 4)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf) != "ping" {
		t.Errorf("echo = %q, want %q", buf, "ping")
	}
}

func TestNetDialer_ConnectionRefused(t *testing.T) {
	// Grab a port that is certainly closed by listening and releasing it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	addr := domain.Address{Family: domain.FamilyTCP, Host: "127.0.0.1", Port: port}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = NewNetDialer().Dial(ctx, addr)
	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("Dial() error = %v, want ErrConnection", err)
	}
}
