// Package split implements the split effect (C4): a pseudo-plugin node,
// URI uri://two.co.uk/plugins/pipedal-split, that routes its input to two
// parallel sub-chains ("top" and "bottom") and recombines their outputs.
// Grounded on original_source/src/SplitEffect.{hpp,cpp} (SPEC_FULL §12);
// the crossfade/pan arithmetic is carried over unchanged, the class
// structure is not — no MixFunction-style member-function-pointer
// dispatch, just a handful of small copy helpers chosen by a type switch.
package split

import "math"

// URI is the split pseudo-plugin's well-known identifier.
const URI = "uri://two.co.uk/plugins/pipedal-split"

// Type selects the split's routing mode.
type Type int

const (
	TypeAB Type = iota
	TypeMix
	TypeLR
)

const (
	minDB       = -60.0
	fadeSeconds = 0.1

	// SymbolType, SymbolSelect, ... name the control surface exposed via
	// SetControl, the same set the pedalboard compiler writes a split
	// item's declared control values through (spec.md §4.4).
	SymbolType   = "splitType"
	SymbolSelect = "select"
	SymbolMix    = "mix"
	SymbolPanL   = "panL"
	SymbolVolL   = "volL"
	SymbolPanR   = "panR"
	SymbolVolR   = "volR"
)

func db2a(db float64) float64 {
	if db <= minDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// pan applies the host's linear pan law: L = 1-(pan+1)/2, R = (pan+1)/2.
func pan(p float64) (left, right float64) {
	if p < -1 {
		p = -1
	}
	if p > 1 {
		p = 1
	}
	p = (p + 1) * 0.5
	return 1 - p, p
}

// blend holds one (current, target, delta) crossfade
// coefficient, the same slew shape as pkg/plugin.Dezipper/BypassMixer but
// kept independent here since Split's four coefficients ramp in lockstep
// under a single fadeSamples countdown, not one each (spec.md §4.4).
type blend struct {
	current, target, delta float64
}

// Split is the C4 effect node.
type Split struct {
	sampleRate float64

	splitType Type
	selectA   bool
	mix       float64
	panL      float64
	volL      float64
	panR      float64
	volR      float64

	blendLTop, blendRTop       blend
	blendLBottom, blendRBottom blend
	fadeSamples                int

	numInputs   int
	forceStereo bool

	input             [][]float32
	topIn, bottomIn   [][]float32
	topOut, bottomOut [][]float32
	output            [][]float32

	activated bool
}

// New creates a Split with numInputs audio-in channels (1 or 2) feeding
// the sub-chains, at the given host sample rate.
func New(numInputs int, sampleRate float64) *Split {
	s := &Split{
		sampleRate: sampleRate,
		numInputs:  numInputs,
		selectA:    true,
		volL:       -3,
		volR:       -3,
	}
	s.blendLTop.current, s.blendLTop.target = 0.5, 0.5
	s.blendRTop.current, s.blendRTop.target = 0.5, 0.5
	s.blendLBottom.current, s.blendLBottom.target = 0.5, 0.5
	s.blendRBottom.current, s.blendRBottom.target = 0.5, 0.5
	return s
}

// SetChainBuffers wires the sub-chain input/output buffers and whether the
// split must force a stereo output regardless of the sub-chains' own
// channel counts (spec.md §4.4: "force-stereo mode ... guarantees two
// output channels").
func (s *Split) SetChainBuffers(input, topIn, bottomIn, topOut, bottomOut [][]float32, forceStereo bool) {
	s.input = input
	s.topIn, s.bottomIn, s.topOut, s.bottomOut = topIn, bottomIn, topOut, bottomOut
	s.forceStereo = forceStereo

	numOut := 1
	if forceStereo || len(topOut) > 1 || len(bottomOut) > 1 {
		numOut = 2
	}
	if len(topOut) == 1 && numOut != 1 {
		s.topOut = append(s.topOut, s.topOut[0])
	}
	if len(bottomOut) == 1 && numOut != 1 {
		s.bottomOut = append(s.bottomOut, s.bottomOut[0])
	}

	frames := 0
	if len(s.topOut) > 0 {
		frames = len(s.topOut[0])
	}
	s.output = make([][]float32, numOut)
	for i := range s.output {
		s.output[i] = make([]float32, frames)
	}
}

// OutputBuffers returns the split's own post-mix output buffers, the same
// ones AudioOutBuffer indexes into, so the pedalboard compiler can wire
// them as the next node's input without reaching into split internals.
func (s *Split) OutputBuffers() [][]float32 { return s.output }

// Activate snaps the crossfade to its current target and recomputes the
// mix targets for the active split type.
func (s *Split) Activate() {
	s.activated = true
	s.updateMixTargets()
	s.snapToTarget()
}

func (s *Split) Deactivate() {
	s.activated = false
}

func (s *Split) snapToTarget() {
	s.blendLTop.current, s.blendLTop.delta = s.blendLTop.target, 0
	s.blendRTop.current, s.blendRTop.delta = s.blendRTop.target, 0
	s.blendLBottom.current, s.blendLBottom.delta = s.blendLBottom.target, 0
	s.blendRBottom.current, s.blendRBottom.delta = s.blendRBottom.target, 0
	s.fadeSamples = 0
}

func (s *Split) armFade() {
	n := int(fadeSeconds * s.sampleRate)
	if n < 1 {
		n = 1
	}
	s.fadeSamples = n
	scale := 1.0 / float64(n)
	s.blendLTop.delta = scale * (s.blendLTop.target - s.blendLTop.current)
	s.blendRTop.delta = scale * (s.blendRTop.target - s.blendRTop.current)
	s.blendLBottom.delta = scale * (s.blendLBottom.target - s.blendLBottom.current)
	s.blendRBottom.delta = scale * (s.blendRBottom.target - s.blendRBottom.current)
}

// mixToValue sets A/B or Mix-mode targets from a single -1..1 value.
func (s *Split) mixToValue(value float64) {
	b := (value + 1) * 0.5
	s.blendLTop.target, s.blendRTop.target = 1-b, 1-b
	s.blendLBottom.target, s.blendRBottom.target = b, b
	s.armFade()
}

// mixToPanVol sets L/R-mode targets from independent pan/volume per side.
func (s *Split) mixToPanVol(panLValue, volLValue, panRValue, volRValue float64) {
	aTop := db2a(volLValue)
	aBottom := db2a(volRValue)
	if len(s.output) == 1 {
		s.blendLTop.target, s.blendRTop.target = aTop, aTop
		s.blendLBottom.target, s.blendRBottom.target = aBottom, aBottom
	} else {
		topL, topR := pan(panLValue)
		bottomL, bottomR := pan(panRValue)
		s.blendLTop.target = topL * aTop
		s.blendRTop.target = topR * aTop
		s.blendLBottom.target = bottomL * aBottom
		s.blendRBottom.target = bottomR * aBottom
	}
	s.armFade()
}

func (s *Split) updateMixTargets() {
	if !s.activated {
		return
	}
	switch s.splitType {
	case TypeAB:
		if s.selectA {
			s.mixToValue(-1)
		} else {
			s.mixToValue(1)
		}
	case TypeMix:
		s.mixToValue(s.mix)
	default:
		s.mixToPanVol(s.panL, s.volL, s.panR, s.volR)
	}
}

// SetControl implements the Effect capability's control surface by symbol.
func (s *Split) SetControl(symbol string, value float64) {
	switch symbol {
	case SymbolType:
		t := Type(int(value))
		if t != s.splitType {
			s.splitType = t
			s.updateMixTargets()
		}
	case SymbolSelect:
		a := value == 0
		if a != s.selectA {
			s.selectA = a
			if s.splitType == TypeAB {
				if a {
					s.mixToValue(-1)
				} else {
					s.mixToValue(1)
				}
			}
		}
	case SymbolMix:
		s.mix = value
		if s.splitType == TypeMix {
			s.mixToValue(value)
		}
	case SymbolPanL:
		s.panL = value
		s.maybeRemixLR()
	case SymbolVolL:
		s.volL = value
		s.maybeRemixLR()
	case SymbolPanR:
		s.panR = value
		s.maybeRemixLR()
	case SymbolVolR:
		s.volR = value
		s.maybeRemixLR()
	}
}

func (s *Split) maybeRemixLR() {
	if s.splitType == TypeLR {
		s.mixToPanVol(s.panL, s.volL, s.panR, s.volR)
	}
}

// SetBypass is a no-op: the split node cannot be bypassed (mirrors
// original_source/src/SplitEffect.hpp's SetBypass, which intentionally
// does nothing).
func (s *Split) SetBypass(bool) {}

// TakeError never reports an error: the split node has no native plugin
// to fail.
func (s *Split) TakeError() (string, bool) { return "", false }

// AudioInBuffer/AudioOutBuffer satisfy the Effect capability; split's real
// connections are the four sub-chain buffer sets wired by SetChainBuffers.
func (s *Split) AudioInBuffer(index int) []float32  { return s.input[index] }
func (s *Split) AudioOutBuffer(index int) []float32 { return s.output[index] }

// NumInputs returns the number of audio-in channels this split was
// constructed with (1 or 2).
func (s *Split) NumInputs() int { return s.numInputs }
