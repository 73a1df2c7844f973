package nailgun_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tkroman/nailgun"
	"github.com/tkroman/nailgun/ngtest"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRun_OutputAndExitCode(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int {
		io.WriteString(req.Stdout, "processed 3 files\n")
		io.WriteString(req.Stderr, "skipped 1 unreadable file\n")
		return 7
	})
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code, err := nailgun.Run(testCtx(t), srv.Addr, "com.example.Scanner", []string{"src"},
		nailgun.WithOutput(&stdout),
		nailgun.WithErrorOutput(&stderr),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if got := stdout.String(); got != "processed 3 files\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := stderr.String(); got != "skipped 1 unreadable file\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestRun_EchoesStdin(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int {
		if _, err := io.Copy(req.Stdout, req.Stdin); err != nil {
			return 1
		}
		return 0
	})
	defer srv.Close()

	// Enough lines to span many stdin chunks.
	var input strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&input, "line %03d: %s\n", i, strings.Repeat("x", 80))
	}

	var stdout bytes.Buffer
	code, err := nailgun.Run(testCtx(t), srv.Addr, "com.example.Cat", nil,
		nailgun.WithInput(strings.NewReader(input.String())),
		nailgun.WithOutput(&stdout),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if stdout.String() != input.String() {
		t.Errorf("echoed %d bytes, want %d; output diverges from input",
			stdout.Len(), input.Len())
	}
}

func TestRun_DefaultDiscardsOutput(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int {
		io.WriteString(req.Stdout, "nobody is listening\n")
		io.WriteString(req.Stderr, "to this either\n")
		return 0
	})
	defer srv.Close()

	code, err := nailgun.Run(testCtx(t), srv.Addr, "com.example.Chatty", nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRun_RequestCarriesEnvAndDir(t *testing.T) {
	requests := make(chan *ngtest.Request, 1)
	srv := ngtest.NewServer(func(req *ngtest.Request) int {
		requests <- req
		return 0
	})
	defer srv.Close()

	_, err := nailgun.Run(testCtx(t), srv.Addr, "com.example.Env", nil,
		nailgun.WithWorkingDir("/srv/project"),
		nailgun.WithEnv(map[string]string{"BUILD_PROFILE": "release"}),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	req := <-requests
	if req.Dir != "/srv/project" {
		t.Errorf("Dir = %q, want /srv/project", req.Dir)
	}

	env := make(map[string]string, len(req.Env))
	for _, pair := range req.Env {
		if name, value, ok := strings.Cut(pair, "="); ok {
			env[name] = value
		}
	}
	if env["BUILD_PROFILE"] != "release" {
		t.Errorf("BUILD_PROFILE = %q, want release", env["BUILD_PROFILE"])
	}
	if _, ok := env["NAILGUN_FILESEPARATOR"]; !ok {
		t.Error("NAILGUN_FILESEPARATOR missing from request environment")
	}
	if _, ok := env["NAILGUN_PATHSEPARATOR"]; !ok {
		t.Error("NAILGUN_PATHSEPARATOR missing from request environment")
	}
	// No terminal is attached to a test run.
	if env["NAILGUN_TTY_0"] != "0" {
		t.Errorf("NAILGUN_TTY_0 = %q, want 0", env["NAILGUN_TTY_0"])
	}
}

func TestConnection_RunTwiceFails(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int { return 0 })
	defer srv.Close()

	conn, err := nailgun.Dial(testCtx(t), srv.Addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Run(testCtx(t), "com.example.Once"); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	_, err = conn.Run(testCtx(t), "com.example.Again")
	if !errors.Is(err, nailgun.ErrSessionFinished) {
		t.Fatalf("second Run() error = %v, want ErrSessionFinished", err)
	}
}

func TestConnection_CloseBeforeRun(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int { return 0 })
	defer srv.Close()

	conn, err := nailgun.Dial(testCtx(t), srv.Addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	_, err = conn.Run(testCtx(t), "com.example.Late")
	if !errors.Is(err, nailgun.ErrConnectionClosed) {
		t.Fatalf("Run() after Close error = %v, want ErrConnectionClosed", err)
	}
}

// transitionRecorder collects session state changes.
type transitionRecorder struct {
	mu     sync.Mutex
	states []nailgun.State
}

func (r *transitionRecorder) OnStateChange(previous, current nailgun.State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, current)
}

func (r *transitionRecorder) States() []nailgun.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nailgun.State{}, r.states...)
}

func TestConnection_StateProgression(t *testing.T) {
	srv := ngtest.NewServer(func(req *ngtest.Request) int { return 0 })
	defer srv.Close()

	rec := &transitionRecorder{}
	conn, err := nailgun.Dial(testCtx(t), srv.Addr, nailgun.WithEventHandler(rec))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if got := conn.State(); got != nailgun.StateConnecting {
		t.Errorf("State() before Run = %v, want StateConnecting", got)
	}

	if _, err := conn.Run(testCtx(t), "com.example.States"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := conn.State(); got != nailgun.StateExited {
		t.Errorf("State() after Run = %v, want StateExited", got)
	}

	want := []nailgun.State{
		nailgun.StateSendingRequest,
		nailgun.StateStreaming,
		nailgun.StateExited,
	}
	got := rec.States()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDial_InvalidAddress(t *testing.T) {
	_, err := nailgun.Dial(testCtx(t), "host:port:extra")
	if !errors.Is(err, nailgun.ErrInvalidAddress) {
		t.Fatalf("Dial() error = %v, want ErrInvalidAddress", err)
	}
}

func TestDial_NobodyListening(t *testing.T) {
	_, err := nailgun.Dial(testCtx(t), "local:/nonexistent/ng.sock")
	if !errors.Is(err, nailgun.ErrConnection) {
		t.Fatalf("Dial() error = %v, want ErrConnection", err)
	}
}

// flakyDialer refuses the first failures dials, then delegates to real
// pipes.
type flakyDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
}

func (d *flakyDialer) Dial(ctx context.Context, addr nailgun.Address) (nailgun.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.failures {
		return nil, fmt.Errorf("%w: connection refused", nailgun.ErrConnection)
	}
	client, _ := net.Pipe()
	return client, nil
}

func (d *flakyDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func TestDial_WaitForReadyProbes(t *testing.T) {
	d := &flakyDialer{failures: 3}

	conn, err := nailgun.Dial(testCtx(t), "127.0.0.1:2113",
		nailgun.WithDialer(d),
		nailgun.WithWaitForReady(3*time.Second),
	)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if got := d.Dials(); got != 4 {
		t.Errorf("dial attempts = %d, want 4", got)
	}
}

func TestDial_WaitForReadyTimesOut(t *testing.T) {
	d := &flakyDialer{failures: 1 << 30}

	start := time.Now()
	_, err := nailgun.Dial(testCtx(t), "127.0.0.1:2113",
		nailgun.WithDialer(d),
		nailgun.WithWaitForReady(250*time.Millisecond),
	)
	if !errors.Is(err, nailgun.ErrNotReady) {
		t.Fatalf("Dial() error = %v, want ErrNotReady", err)
	}
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("Dial() gave up after %v, want the full wait", elapsed)
	}
}

// deadSupervisor reports a server process that is gone.
type deadSupervisor struct{}

func (deadSupervisor) Alive() bool { return false }

func TestDial_WaitForReadySupervisorDead(t *testing.T) {
	d := &flakyDialer{failures: 1 << 30}

	start := time.Now()
	_, err := nailgun.Dial(testCtx(t), "127.0.0.1:2113",
		nailgun.WithDialer(d),
		nailgun.WithSupervisor(deadSupervisor{}),
		nailgun.WithWaitForReady(5*time.Second),
	)
	if !errors.Is(err, nailgun.ErrNotReady) {
		t.Fatalf("Dial() error = %v, want ErrNotReady", err)
	}
	// A dead server fails the wait immediately, not at the deadline.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Dial() took %v with a dead supervisor", elapsed)
	}
}
