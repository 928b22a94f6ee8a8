package main

import (
	"fmt"

	"github.com/rerdavies/pipedal-go/pkg/plugin"
)

// demoLoader is the plugin.Loader this reference binary wires into
// pedalboard.Host. LV2 bundle discovery is explicitly out of scope
// (spec.md §1), so the host's only obligation is to drive whatever Loader
// it is handed; demoLoader stands in for a real one with two built-in
// bundles simple enough to verify by ear: a pass-through and a one-knob
// gain stage.
type demoLoader struct{}

const (
	demoUnityURI = "urn:pipedal-go:unity"
	demoGainURI  = "urn:pipedal-go:gain"
)

func (demoLoader) Load(uri string) (plugin.BundleInfo, error) {
	switch uri {
	case demoUnityURI:
		return plugin.BundleInfo{
			URI:  uri,
			Name: "Unity",
			Ports: []plugin.PortInfo{
				{Index: 0, Symbol: "in", Kind: plugin.KindAudio, Direction: plugin.DirectionInput},
				{Index: 1, Symbol: "out", Kind: plugin.KindAudio, Direction: plugin.DirectionOutput},
			},
		}, nil
	case demoGainURI:
		return plugin.BundleInfo{
			URI:  uri,
			Name: "Gain",
			Ports: []plugin.PortInfo{
				{Index: 0, Symbol: "in", Kind: plugin.KindAudio, Direction: plugin.DirectionInput},
				{Index: 1, Symbol: "out", Kind: plugin.KindAudio, Direction: plugin.DirectionOutput},
				{Index: 2, Symbol: "gain", Kind: plugin.KindControl, Min: 0, Max: 4, Default: 1, Unit: plugin.UnitRatio},
			},
		}, nil
	default:
		return plugin.BundleInfo{}, fmt.Errorf("demoLoader: unknown plugin uri %q", uri)
	}
}

func (demoLoader) Instantiate(uri string, features plugin.Features) (plugin.NativePlugin, error) {
	switch uri {
	case demoUnityURI:
		return &demoUnity{}, nil
	case demoGainURI:
		return &demoGain{}, nil
	default:
		return nil, fmt.Errorf("demoLoader: unknown plugin uri %q", uri)
	}
}

// demoUnity copies its input straight to its output, unconditionally.
type demoUnity struct {
	in, out []float32
}

func (p *demoUnity) ConnectAudioIn(index int, buf []float32)  { p.in = buf }
func (p *demoUnity) ConnectAudioOut(index int, buf []float32) { p.out = buf }
func (p *demoUnity) ConnectControl(index int, value *float64) {}
func (p *demoUnity) ConnectAtomIn(index int, buf []byte)      {}
func (p *demoUnity) ConnectAtomOut(index int, buf []byte)     {}
func (p *demoUnity) AtomOutputLen(index int) int              { return 0 }
func (p *demoUnity) Activate()                                {}
func (p *demoUnity) Deactivate()                              {}
func (p *demoUnity) Run(frames int) {
	n := frames
	if len(p.in) < n {
		n = len(p.in)
	}
	if len(p.out) < n {
		n = len(p.out)
	}
	copy(p.out[:n], p.in[:n])
}

// demoGain scales its input by a single linear control port. gain is the
// pointer ConnectControl hands over at construction time, owned by the
// instance's control-value storage; demoGain only ever dereferences it.
type demoGain struct {
	in, out []float32
	gain    *float64
}

func (p *demoGain) ConnectAudioIn(index int, buf []float32)  { p.in = buf }
func (p *demoGain) ConnectAudioOut(index int, buf []float32) { p.out = buf }
func (p *demoGain) ConnectControl(index int, value *float64) {
	if index == 2 {
		p.gain = value
	}
}
func (p *demoGain) ConnectAtomIn(index int, buf []byte)  {}
func (p *demoGain) ConnectAtomOut(index int, buf []byte) {}
func (p *demoGain) AtomOutputLen(index int) int          { return 0 }
func (p *demoGain) Activate()                            {}
func (p *demoGain) Deactivate()                          {}
func (p *demoGain) Run(frames int) {
	n := frames
	if len(p.in) < n {
		n = len(p.in)
	}
	if len(p.out) < n {
		n = len(p.out)
	}
	g := float32(1)
	if p.gain != nil {
		g = float32(*p.gain)
	}
	for i := 0; i < n; i++ {
		p.out[i] = p.in[i] * g
	}
}
