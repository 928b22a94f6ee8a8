// Package atom implements the framed, timestamped event sequence exchanged
// through a plugin's atom input/output ports (spec.md §9: "the core treats
// these as opaque byte buffers with a tiny writer helper... and a reader
// helper"). No LV2 atom-forge library is used or needed: the wire format is
// private to this module.
package atom

import (
	"encoding/binary"

	"github.com/rerdavies/pipedal-go/pkg/urid"
)

// eventHeaderSize is timeFrames(4) + typeURID(4) + bodyLen(4).
const eventHeaderSize = 12

// Event is one entry in a decoded sequence.
type Event struct {
	TimeFrames uint32
	Type       urid.URID
	Body       []byte
}

// Forge writes a sequence of timestamped events into a pre-allocated byte
// buffer. It never allocates after construction, making it safe to drive
// from the audio thread.
type Forge struct {
	buf []byte
	pos int
}

// NewForge allocates a forge with the given byte capacity.
func NewForge(capacity int) *Forge {
	return &Forge{buf: make([]byte, capacity)}
}

// BeginSequence resets the forge to an empty sequence. Call once per block
// before any WriteEvent calls (spec.md §4.3: "close the current event-input
// frame" happens via the matching Bytes() call at the end of the block).
func (f *Forge) BeginSequence() {
	f.pos = 0
}

// Len returns the number of bytes written since the last BeginSequence.
func (f *Forge) Len() int {
	return f.pos
}

// Cap returns the forge's total byte capacity.
func (f *Forge) Cap() int {
	return len(f.buf)
}

// WriteEvent appends one event to the sequence. It returns false without
// modifying the buffer if there is not enough remaining capacity — callers
// must treat this the same as any other "ring full" condition: drop and
// continue, never block or allocate.
func (f *Forge) WriteEvent(timeFrames uint32, typeURID urid.URID, body []byte) bool {
	need := eventHeaderSize + len(body)
	if f.pos+need > len(f.buf) {
		return false
	}
	binary.LittleEndian.PutUint32(f.buf[f.pos:], timeFrames)
	binary.LittleEndian.PutUint32(f.buf[f.pos+4:], uint32(typeURID))
	binary.LittleEndian.PutUint32(f.buf[f.pos+8:], uint32(len(body)))
	copy(f.buf[f.pos+eventHeaderSize:], body)
	f.pos += need
	return true
}

// EndSequence finalizes the forge; in this implementation BeginSequence and
// EndSequence bracket a block but no trailer is required. Bytes returns the
// written portion.
func (f *Forge) EndSequence() []byte {
	return f.buf[:f.pos]
}

// Bytes returns the bytes written so far without implying finalization
// (useful for staged event-input, spec.md §4.3.1 step 3).
func (f *Forge) Bytes() []byte {
	return f.buf[:f.pos]
}

// Reader iterates the (TimeFrames, Type, Body) triples of a sequence
// previously produced by a Forge (or copied verbatim from a plugin's event
// output buffer).
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential iteration.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset rewinds the reader to the start of buf, optionally replacing it.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.pos = 0
}

// Next returns the next event in the sequence, or ok=false at end of
// stream. A malformed trailing fragment (fewer than eventHeaderSize bytes
// remaining) is treated as end of stream rather than an error, matching the
// forge's own truncate-on-overflow behavior.
func (r *Reader) Next() (ev Event, ok bool) {
	if r.pos+eventHeaderSize > len(r.buf) {
		return Event{}, false
	}
	timeFrames := binary.LittleEndian.Uint32(r.buf[r.pos:])
	typeURID := binary.LittleEndian.Uint32(r.buf[r.pos+4:])
	bodyLen := binary.LittleEndian.Uint32(r.buf[r.pos+8:])
	start := r.pos + eventHeaderSize
	end := start + int(bodyLen)
	if end > len(r.buf) {
		return Event{}, false
	}
	r.pos = end
	return Event{
		TimeFrames: timeFrames,
		Type:       urid.URID(typeURID),
		Body:       r.buf[start:end],
	}, true
}
