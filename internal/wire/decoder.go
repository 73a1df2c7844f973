package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tkroman/nailgun/internal/domain"
)

// Decoder reads chunks from a transport stream.
//
// Decode is not safe for concurrent use. A session has exactly one reader
// of its connection, so no locking is needed here.
type Decoder struct {
	r   io.Reader
	hdr [domain.HeaderSize]byte
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode blocks until one full chunk is available and returns it.
//
// A stream that ends cleanly on a chunk boundary yields io.EOF. A stream
// that ends inside a header or inside a declared payload yields ErrFraming;
// a conforming peer never truncates a chunk. The declared payload length is
// trusted: the protocol runs over a local transport to a trusted server.
func (d *Decoder) Decode() (domain.Chunk, error) {
	if _, err := io.ReadFull(d.r, d.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Chunk{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return domain.Chunk{}, fmt.Errorf("%w: stream ended inside a chunk header", domain.ErrFraming)
		}
		return domain.Chunk{}, fmt.Errorf("read chunk header: %w", err)
	}

	length := binary.BigEndian.Uint32(d.hdr[:4])
	c := domain.Chunk{Type: domain.ChunkType(d.hdr[4])}
	if length == 0 {
		return c, nil
	}

	c.Payload = make([]byte, length)
	n, err := io.ReadFull(d.r, c.Payload)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return domain.Chunk{}, fmt.Errorf("%w: stream ended after %d of %d payload bytes", domain.ErrFraming, n, length)
		}
		return domain.Chunk{}, fmt.Errorf("read chunk payload: %w", err)
	}
	return c, nil
}
