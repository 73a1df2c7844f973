package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// receive demultiplexes inbound chunks until the exit chunk arrives,
// dispatching stdout and stderr payloads to the caller's sinks in wire
// arrival order. It returns the parsed exit code, or the error that ended
// the stream.
func (s *Session) receive(ctx context.Context) (int, error) {
	var streamed int64
	for {
		c, err := s.dec.Decode()
		if err != nil {
			// The transport is closed to unblock this read when the
			// session is canceled; report the cancellation rather than
			// the read failure it caused.
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return 0, domain.ErrConnectionClosed
			}
			if errors.Is(err, domain.ErrFraming) {
				return 0, err
			}
			return 0, fmt.Errorf("%w: %v", domain.ErrConnection, err)
		}

		switch c.Type {
		case domain.ChunkStdout:
			if err := writeSink(s.cfg.Stdout, c.Payload); err != nil {
				return 0, fmt.Errorf("%w: write stdout sink: %v", domain.ErrIO, err)
			}
			streamed += int64(len(c.Payload))

		case domain.ChunkStderr:
			if err := writeSink(s.cfg.Stderr, c.Payload); err != nil {
				return 0, fmt.Errorf("%w: write stderr sink: %v", domain.ErrIO, err)
			}
			streamed += int64(len(c.Payload))

		case domain.ChunkExit:
			code, err := domain.ParseExitCode(c.Payload)
			if err != nil {
				return 0, err
			}
			s.logger.Debug("exit received",
				ports.String("session", s.cfg.ID),
				ports.Int("code", code),
				ports.Int64("output_bytes", streamed),
			)
			return code, nil

		case domain.ChunkSendInput:
			// Input is streamed eagerly; the request needs no reply.
			s.logger.Debug("server requested input", ports.String("session", s.cfg.ID))

		default:
			if err := s.unexpected(c); err != nil {
				return 0, err
			}
		}
	}
}

// unexpected applies the configured policy to a chunk the receiver has no
// use for: unknown type bytes, and types only ever sent client to server.
func (s *Session) unexpected(c domain.Chunk) error {
	if s.cfg.OnUnknownChunk == IgnoreUnknownChunks {
		s.logger.Debug("ignoring unexpected chunk",
			ports.String("session", s.cfg.ID),
			ports.String("type", c.Type.String()),
			ports.Int("bytes", len(c.Payload)),
		)
		return nil
	}
	if !c.Type.Known() {
		return fmt.Errorf("%w: unknown chunk type 0x%02x", domain.ErrFraming, byte(c.Type))
	}
	return fmt.Errorf("%w: unexpected %s chunk from server", domain.ErrProtocol, c.Type)
}

// writeSink writes payload to sink, discarding it when no sink is set.
func writeSink(sink io.Writer, payload []byte) error {
	if sink == nil {
		return nil
	}
	_, err := sink.Write(payload)
	return err
}
