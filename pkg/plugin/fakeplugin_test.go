package plugin

// fakeGain is a minimal NativePlugin used by instance_test.go: one audio
// in, one audio out, one control ("gain", linear multiplier), no atom
// activity of its own.
type fakeGain struct {
	in, out  []float32
	gain     *float64
	atomIn   []byte
	atomOut  []byte
	outLen   int
	activate int
}

func (f *fakeGain) ConnectAudioIn(index int, buf []float32)  { f.in = buf }
func (f *fakeGain) ConnectAudioOut(index int, buf []float32) { f.out = buf }
func (f *fakeGain) ConnectControl(index int, value *float64) { f.gain = value }
func (f *fakeGain) ConnectAtomIn(index int, buf []byte)      { f.atomIn = buf }
func (f *fakeGain) ConnectAtomOut(index int, buf []byte)     { f.atomOut = buf }
func (f *fakeGain) AtomOutputLen(index int) int              { return f.outLen }
func (f *fakeGain) Activate()                                { f.activate++ }
func (f *fakeGain) Deactivate()                              {}
func (f *fakeGain) Run(frames int) {
	g := 1.0
	if f.gain != nil {
		g = *f.gain
	}
	for i := 0; i < frames && i < len(f.in) && i < len(f.out); i++ {
		f.out[i] = f.in[i] * float32(g)
	}
}
