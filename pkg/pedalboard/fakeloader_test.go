package pedalboard

import (
	"fmt"

	"github.com/rerdavies/pipedal-go/pkg/plugin"
)

// fakeGain is a minimal NativePlugin: one audio in, one audio out, one
// "gain" control, no atom activity of its own.
type fakeGain struct {
	in, out []float32
	gain    *float64
}

func (f *fakeGain) ConnectAudioIn(index int, buf []float32)  { f.in = buf }
func (f *fakeGain) ConnectAudioOut(index int, buf []float32) { f.out = buf }
func (f *fakeGain) ConnectControl(index int, value *float64) { f.gain = value }
func (f *fakeGain) ConnectAtomIn(index int, buf []byte)      {}
func (f *fakeGain) ConnectAtomOut(index int, buf []byte)     {}
func (f *fakeGain) AtomOutputLen(index int) int              { return 0 }
func (f *fakeGain) Activate()                                {}
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

// fakeGenerator has no audio input, one audio output, and writes a
// constant value: a minimal stand-in for a source plugin like a tuner or
// noise generator.
type fakeGenerator struct {
	out   []float32
	level float64
}

func (f *fakeGenerator) ConnectAudioIn(index int, buf []float32)  {}
func (f *fakeGenerator) ConnectAudioOut(index int, buf []float32) { f.out = buf }
func (f *fakeGenerator) ConnectControl(index int, value *float64) {}
func (f *fakeGenerator) ConnectAtomIn(index int, buf []byte)      {}
func (f *fakeGenerator) ConnectAtomOut(index int, buf []byte)     {}
func (f *fakeGenerator) AtomOutputLen(index int) int              { return 0 }
func (f *fakeGenerator) Activate()                                {}
func (f *fakeGenerator) Deactivate()                              {}
func (f *fakeGenerator) Run(frames int) {
	for i := 0; i < frames && i < len(f.out); i++ {
		f.out[i] = float32(f.level)
	}
}

// fakeLoader resolves a small fixed set of test URIs ("urn:test:gain",
// "urn:test:mono-gain", "urn:test:generator") without touching the
// filesystem, playing the role an LV2 bundle scanner would in production.
type fakeLoader struct{}

func monoGainBundle(uri string) plugin.BundleInfo {
	return plugin.BundleInfo{
		URI: uri,
		Ports: []plugin.PortInfo{
			{Index: 0, Symbol: "in", Kind: plugin.KindAudio, Direction: plugin.DirectionInput},
			{Index: 1, Symbol: "out", Kind: plugin.KindAudio, Direction: plugin.DirectionOutput},
			{Index: 2, Symbol: "gain", Kind: plugin.KindControl, Min: 0, Max: 2, Default: 1},
		},
	}
}

func stereoGainBundle(uri string) plugin.BundleInfo {
	b := monoGainBundle(uri)
	b.Ports = append(b.Ports,
		plugin.PortInfo{Index: 3, Symbol: "in2", Kind: plugin.KindAudio, Direction: plugin.DirectionInput},
		plugin.PortInfo{Index: 4, Symbol: "out2", Kind: plugin.KindAudio, Direction: plugin.DirectionOutput},
	)
	return b
}

func generatorBundle(uri string) plugin.BundleInfo {
	return plugin.BundleInfo{
		URI: uri,
		Ports: []plugin.PortInfo{
			{Index: 0, Symbol: "out", Kind: plugin.KindAudio, Direction: plugin.DirectionOutput},
		},
	}
}

func (fakeLoader) Load(uri string) (plugin.BundleInfo, error) {
	switch uri {
	case "urn:test:gain":
		return stereoGainBundle(uri), nil
	case "urn:test:mono-gain":
		return monoGainBundle(uri), nil
	case "urn:test:generator":
		return generatorBundle(uri), nil
	}
	return plugin.BundleInfo{}, fmt.Errorf("fakeLoader: unknown uri %q", uri)
}

func (fakeLoader) Instantiate(uri string, features plugin.Features) (plugin.NativePlugin, error) {
	switch uri {
	case "urn:test:gain", "urn:test:mono-gain":
		return &fakeGain{}, nil
	case "urn:test:generator":
		return &fakeGenerator{level: 1}, nil
	}
	return nil, fmt.Errorf("fakeLoader: unknown uri %q", uri)
}
