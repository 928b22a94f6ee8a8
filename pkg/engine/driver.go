// Package engine implements the audio host loop (C8): the per-block
// sequence a driver callback drives through the pedalboard runtime --
// drain commands, dispatch MIDI, run the pedalboard, emit ack-bounded
// telemetry, and track the startup underrun grace period.
package engine

// MidiEvent is one timestamped raw MIDI message read from a driver's
// input buffer for a block (spec.md §6:
// "get_midi_input_event(buf, index) -> {time_frames, size, *bytes}").
// Sub-block timing is not modeled further: C7 dispatch treats every event
// in a block as belonging to that block, matching the per-block (not
// per-sample) dispatch granularity spec.md §4.7 describes.
type MidiEvent struct {
	TimeFrames int
	Data       []byte
}

// Driver is the external audio/MIDI I/O collaborator (spec.md §6). The
// engine calls Activate/Deactivate/Close at session boundaries only;
// everything else is read once per block from the driver's own callback
// thread, which is also the thread OnProcess runs on.
type Driver interface {
	SampleRate() float64
	MaxAudioBufferSize() int

	InputBufferCount() int
	OutputBufferCount() int
	InputBuffer(index, frames int) []float32
	OutputBuffer(index, frames int) []float32

	MidiInputBufferCount() int
	MidiInputEvents(buf int) []MidiEvent

	CPUUse() float32
	XRunCount() uint64

	Activate() error
	Deactivate() error
	Close() error
}
