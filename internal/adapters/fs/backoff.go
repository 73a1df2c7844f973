package fs

import (
	"math/rand"
	"time"
)

// Poll fallback bounds for readiness waiting.
const (
	pollInitial = 50 * time.Millisecond
	pollMax     = 500 * time.Millisecond
)

// backoff computes exponentially growing retry delays with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max delays.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Next returns the delay to wait before the following attempt and advances
// the sequence.
func (b *backoff) Next() time.Duration {
	// Add jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	delay := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return delay
}
