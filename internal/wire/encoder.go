package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/tkroman/nailgun/internal/domain"
)

// Encoder writes chunks to a transport stream.
//
// Encode is safe for concurrent use: each chunk is assembled into a single
// buffer and written with one Write call under an internal mutex, so chunks
// from concurrent senders never interleave mid-frame on the wire.
type Encoder struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode frames and writes one chunk.
func (e *Encoder) Encode(c domain.Chunk) error {
	if uint64(len(c.Payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes exceeds maximum chunk size", domain.ErrFraming, len(c.Payload))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	need := domain.HeaderSize + len(c.Payload)
	if cap(e.buf) < need {
		e.buf = make([]byte, need)
	}
	buf := e.buf[:need]
	binary.BigEndian.PutUint32(buf[:4], uint32(len(c.Payload)))
	buf[4] = byte(c.Type)
	copy(buf[domain.HeaderSize:], c.Payload)

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("write %s chunk: %w", c.Type, err)
	}
	return nil
}
