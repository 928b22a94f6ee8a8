// Package proto: Pipe wiring.
package proto

import (
	"sync/atomic"

	"github.com/rerdavies/pipedal-go/pkg/ringbuffer"
)

// Pipe owns the pair of rings the service and audio threads exchange
// frames over, plus the underrun counter, which spec.md §4.2 calls out as
// "counter-only, polled" rather than a framed event — bumping a plain
// atomic is cheaper than a ring write for something the audio thread may
// need to report every single block under sustained overload.
type Pipe struct {
	commandsIn *ringbuffer.RingBuffer
	eventsOut  *ringbuffer.RingBuffer

	commandWriter *CommandWriter
	commandReader *CommandReader
	eventWriter   *EventWriter
	eventReader   *EventReader

	underrunCount atomic.Uint64
}

// NewPipe allocates both rings. pinMemory mirrors the ring buffer's own
// mlock option (true on a production audio-thread deployment, false for
// tests and non-Linux development).
func NewPipe(commandCapacity, eventCapacity int, pinMemory bool) (*Pipe, error) {
	commandsIn, err := ringbuffer.New(commandCapacity, pinMemory)
	if err != nil {
		return nil, err
	}
	eventsOut, err := ringbuffer.New(eventCapacity, pinMemory)
	if err != nil {
		return nil, err
	}
	p := &Pipe{commandsIn: commandsIn, eventsOut: eventsOut}
	p.commandWriter = NewCommandWriter(ringbuffer.NewMultiWriter(commandsIn))
	p.commandReader = NewCommandReader(commandsIn)
	p.eventWriter = NewEventWriter(eventsOut)
	p.eventReader = NewEventReader(eventsOut)
	return p, nil
}

// CommandWriter returns the service-thread command submission handle.
func (p *Pipe) CommandWriter() *CommandWriter { return p.commandWriter }

// CommandReader returns the audio-thread command drain handle.
func (p *Pipe) CommandReader() *CommandReader { return p.commandReader }

// EventWriter returns the audio-thread telemetry emission handle.
func (p *Pipe) EventWriter() *EventWriter { return p.eventWriter }

// EventReader returns the service-thread telemetry drain handle.
func (p *Pipe) EventReader() *EventReader { return p.eventReader }

// RecordUnderrun increments the underrun counter. Called by the engine's
// per-block loop when a host deadline is missed.
func (p *Pipe) RecordUnderrun() {
	p.underrunCount.Add(1)
}

// UnderrunCount returns the cumulative number of recorded underruns.
func (p *Pipe) UnderrunCount() uint64 {
	return p.underrunCount.Load()
}

// Close shuts down both rings, waking any blocked WaitFor/WaitUntil caller
// on the service side (spec.md §4.8: "shutdown ordering").
func (p *Pipe) Close() {
	p.commandsIn.Close()
	p.eventsOut.Close()
}
