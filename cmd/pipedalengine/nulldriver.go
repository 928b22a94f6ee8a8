package main

import (
	"math"
	"sync/atomic"

	"github.com/rerdavies/pipedal-go/pkg/engine"
)

// nullDriver is the engine.Driver this reference binary drives: a fixed
// 440Hz test tone on every input channel, output discarded after its RMS
// level is stored (readable through outputRMS). Real ALSA/JACK backends are
// explicitly out of scope (spec.md §1); nullDriver exists only to give
// engine.Engine a collaborator to call OnProcess against.
type nullDriver struct {
	sampleRate float64
	maxBlock   int

	in, out [][]float32

	phase float64

	lastOutRMS atomic.Uint64 // float64 bits, updated once per block
}

func newNullDriver(inCh, outCh, maxBlock int, sampleRate float64) *nullDriver {
	in := make([][]float32, inCh)
	out := make([][]float32, outCh)
	for i := range in {
		in[i] = make([]float32, maxBlock)
	}
	for i := range out {
		out[i] = make([]float32, maxBlock)
	}
	return &nullDriver{sampleRate: sampleRate, maxBlock: maxBlock, in: in, out: out}
}

func (d *nullDriver) SampleRate() float64     { return d.sampleRate }
func (d *nullDriver) MaxAudioBufferSize() int { return d.maxBlock }

func (d *nullDriver) InputBufferCount() int  { return len(d.in) }
func (d *nullDriver) OutputBufferCount() int { return len(d.out) }

func (d *nullDriver) InputBuffer(index, frames int) []float32 {
	return d.in[index][:frames]
}

func (d *nullDriver) OutputBuffer(index, frames int) []float32 {
	return d.out[index][:frames]
}

func (d *nullDriver) MidiInputBufferCount() int                  { return 0 }
func (d *nullDriver) MidiInputEvents(buf int) []engine.MidiEvent { return nil }

func (d *nullDriver) CPUUse() float32   { return 0 }
func (d *nullDriver) XRunCount() uint64 { return 0 }

func (d *nullDriver) Activate() error   { return nil }
func (d *nullDriver) Deactivate() error { return nil }
func (d *nullDriver) Close() error      { return nil }

// fillTestTone writes one block of 440Hz sine into every input channel,
// called by main's driver loop just before Engine.OnProcess.
func (d *nullDriver) fillTestTone(frames int) {
	const freq = 440.0
	step := 2 * math.Pi * freq / d.sampleRate
	for ch := range d.in {
		phase := d.phase
		for i := 0; i < frames; i++ {
			d.in[ch][i] = float32(0.1 * math.Sin(phase))
			phase += step
		}
	}
	d.phase += step * float64(frames)

	var sumSq float64
	var n int
	for ch := range d.out {
		for i := 0; i < frames; i++ {
			v := float64(d.out[ch][i])
			sumSq += v * v
			n++
		}
	}
	if n > 0 {
		d.lastOutRMS.Store(math.Float64bits(math.Sqrt(sumSq / float64(n))))
	}
}

func (d *nullDriver) outputRMS() float64 {
	return math.Float64frombits(d.lastOutRMS.Load())
}
