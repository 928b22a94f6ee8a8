package engine

// fakeDriver is a minimal Driver: fixed-size preallocated audio buffers (so
// InputBuffer/OutputBuffer never allocate, matching what a real driver
// callback hands the engine), a one-shot queue of MIDI events per port, and
// a manually steppable XRun counter for exercising the underrun grace path.
type fakeDriver struct {
	sampleRate float64
	maxBlock   int

	in, out [][]float32

	midi [][]MidiEvent

	xruns     uint64
	activated bool
	closed    bool
}

func newFakeDriver(inCh, outCh, midiPorts, maxBlock int, sampleRate float64) *fakeDriver {
	in := make([][]float32, inCh)
	out := make([][]float32, outCh)
	for i := range in {
		in[i] = make([]float32, maxBlock)
	}
	for i := range out {
		out[i] = make([]float32, maxBlock)
	}
	return &fakeDriver{
		sampleRate: sampleRate,
		maxBlock:   maxBlock,
		in:         in,
		out:        out,
		midi:       make([][]MidiEvent, midiPorts),
	}
}

func (d *fakeDriver) SampleRate() float64      { return d.sampleRate }
func (d *fakeDriver) MaxAudioBufferSize() int  { return d.maxBlock }
func (d *fakeDriver) InputBufferCount() int    { return len(d.in) }
func (d *fakeDriver) OutputBufferCount() int   { return len(d.out) }
func (d *fakeDriver) InputBuffer(i, frames int) []float32  { return d.in[i][:frames] }
func (d *fakeDriver) OutputBuffer(i, frames int) []float32 { return d.out[i][:frames] }

func (d *fakeDriver) MidiInputBufferCount() int           { return len(d.midi) }
func (d *fakeDriver) MidiInputEvents(buf int) []MidiEvent { return d.midi[buf] }

func (d *fakeDriver) CPUUse() float32   { return 0 }
func (d *fakeDriver) XRunCount() uint64 { return d.xruns }

func (d *fakeDriver) Activate() error   { d.activated = true; return nil }
func (d *fakeDriver) Deactivate() error { d.activated = false; return nil }
func (d *fakeDriver) Close() error      { d.closed = true; return nil }
