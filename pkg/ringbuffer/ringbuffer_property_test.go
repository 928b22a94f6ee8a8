package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestRoundTripProperty covers spec §8.1: for any randomized sequence of
// opcodes (modeled here as arbitrary byte frames) with total payload within
// capacity, write-then-read yields byte-identical payloads in order.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.SampledFrom([]int{16, 32, 64, 128, 256}).Draw(t, "capacity")
		rb, err := New(capacity, false)
		assert.NoError(t, err)

		frames := rapid.SliceOfN(
			rapid.SliceOfBoundedN(rapid.Byte(), 0, capacity/4, "frame"),
			0, 64,
		).Draw(t, "frames")

		var written [][]byte
		for _, f := range frames {
			if rb.Write(f) {
				written = append(written, f)
			}
		}

		for _, want := range written {
			got := make([]byte, len(want))
			ok := rb.TryRead(got)
			assert.True(t, ok, "expected a readable frame of length %d", len(want))
			assert.Equal(t, want, got)
		}
		assert.Equal(t, 0, rb.ReadSpace(), "all written frames should have been drained")
	})
}

// TestAtomicityProperty covers spec §8.2: a slow reader observing
// ReadSpace() only ever sees whole multiples of enqueued frame sizes when
// all frames share a size — partial frames never surface.
func TestAtomicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frameSize := rapid.IntRange(1, 16).Draw(t, "frameSize")
		rb, err := New(frameSize*8, false)
		assert.NoError(t, err)

		attempts := rapid.IntRange(0, 32).Draw(t, "attempts")
		frame := make([]byte, frameSize)
		for i := 0; i < attempts; i++ {
			rb.Write(frame)
			assert.Equal(t, 0, rb.ReadSpace()%frameSize,
				"read space must always be a whole multiple of the frame size")
			if rb.ReadSpace() >= frameSize {
				out := make([]byte, frameSize)
				rb.TryRead(out)
			}
		}
	})
}
