package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// sendRequest writes the startup sequence: the working directory, one
// chunk per environment pair, one chunk per argument in invocation order,
// and finally the command chunk, which starts server-side execution.
//
// With no input source the end-of-input marker follows the command
// immediately, before the heartbeat loop exists, so a server never waits
// on stdin that cannot come.
func (s *Session) sendRequest() error {
	chunks := make([]domain.Chunk, 0, len(s.cfg.Env)+len(s.cfg.Args)+3)
	chunks = append(chunks, domain.Chunk{Type: domain.ChunkWorkingDir, Payload: []byte(s.cfg.Dir)})
	for _, pair := range s.cfg.Env {
		chunks = append(chunks, domain.Chunk{Type: domain.ChunkEnvironment, Payload: []byte(pair)})
	}
	for _, arg := range s.cfg.Args {
		chunks = append(chunks, domain.Chunk{Type: domain.ChunkArgument, Payload: []byte(arg)})
	}
	chunks = append(chunks, domain.Chunk{Type: domain.ChunkCommand, Payload: []byte(s.cfg.Command)})
	if s.cfg.Stdin == nil {
		chunks = append(chunks, domain.Chunk{Type: domain.ChunkStdinEOF})
	}

	for _, c := range chunks {
		if err := s.enc.Encode(c); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConnection, err)
		}
	}

	s.logger.Debug("request sent",
		ports.String("session", s.cfg.ID),
		ports.String("command", s.cfg.Command),
		ports.Int("args", len(s.cfg.Args)),
		ports.Int("env", len(s.cfg.Env)),
	)

	if s.cfg.Stdin == nil {
		close(s.stdinDone)
	}
	return nil
}

// pumpStdin streams the caller's input as bounded stdin chunks and marks
// end of input when the source drains.
//
// A caller-supplied Reader has no deadline, so reads run in a helper
// goroutine that hands blocks over a channel; when the session ends first,
// the pending read is abandoned rather than waited for.
func (s *Session) pumpStdin(ctx context.Context) error {
	if s.cfg.Stdin == nil {
		return nil
	}

	type block struct {
		data []byte
		err  error
	}
	blocks := make(chan block)
	go func() {
		defer close(blocks)
		for {
			buf := make([]byte, s.cfg.StdinBlockSize)
			n, err := s.cfg.Stdin.Read(buf)
			select {
			case blocks <- block{data: buf[:n], err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case b, ok := <-blocks:
			if !ok {
				return ctx.Err()
			}
			if len(b.data) > 0 {
				if err := s.enc.Encode(domain.Chunk{Type: domain.ChunkStdin, Payload: b.data}); err != nil {
					return fmt.Errorf("%w: %v", domain.ErrConnection, err)
				}
			}
			if b.err == nil {
				continue
			}
			if !errors.Is(b.err, io.EOF) {
				return fmt.Errorf("%w: read input: %v", domain.ErrIO, b.err)
			}
			if err := s.enc.Encode(domain.Chunk{Type: domain.ChunkStdinEOF}); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrConnection, err)
			}
			s.logger.Debug("input drained", ports.String("session", s.cfg.ID))
			close(s.stdinDone)
			return nil
		}
	}
}

// heartbeat emits liveness chunks while the caller's input is still open.
// Reference servers treat a silent client as dead and abort the command,
// so the beat must keep running for as long as input may yet arrive.
func (s *Session) heartbeat(ctx context.Context) error {
	select {
	case <-s.stdinDone:
		// Input already ended before the loop began; nothing to keep
		// alive for.
		return nil
	default:
	}

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	s.logger.Debug("heartbeat loop started",
		ports.String("session", s.cfg.ID),
		ports.Duration("interval", s.cfg.HeartbeatInterval),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stdinDone:
			return nil
		case <-ticker.C:
			if err := s.enc.Encode(domain.Chunk{Type: domain.ChunkHeartbeat}); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrConnection, err)
			}
		}
	}
}
