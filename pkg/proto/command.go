package proto

import "github.com/rerdavies/pipedal-go/pkg/ringbuffer"

// CommandWriter is the service-thread side of the commands_in ring: any
// number of goroutines (REST handlers, MIDI program-change watchers, the
// websocket session) may call its methods concurrently, serialized behind
// the wrapped MultiWriter's mutex (spec.md §4.2: "commands_in is a
// multi-writer ring").
type CommandWriter struct {
	ring *ringbuffer.MultiWriter
}

// NewCommandWriter wraps ring for typed command submission.
func NewCommandWriter(ring *ringbuffer.MultiWriter) *CommandWriter {
	return &CommandWriter{ring: ring}
}

func (w *CommandWriter) send(op Opcode, payload []byte) bool {
	return w.ring.Write(encodeFrame(op, payload))
}

func (w *CommandWriter) ReplacePedalboard(runtimePtr Handle) bool {
	return w.send(OpReplacePedalboard, ReplacePedalboardPayload{RuntimePtr: runtimePtr}.Encode())
}

func (w *CommandWriter) SetControl(effectIndex, controlIndex int32, value float64) bool {
	return w.send(OpSetControl, SetControlPayload{EffectIndex: effectIndex, ControlIndex: controlIndex, Value: value}.Encode())
}

func (w *CommandWriter) SetBypass(effectIndex int32, enabled bool) bool {
	return w.send(OpSetBypass, SetBypassPayload{EffectIndex: effectIndex, Enabled: enabled}.Encode())
}

func (w *CommandWriter) SetInputVolume(db float64) bool {
	return w.send(OpSetInputVolume, VolumePayload{DB: db}.Encode())
}

func (w *CommandWriter) SetOutputVolume(db float64) bool {
	return w.send(OpSetOutputVolume, VolumePayload{DB: db}.Encode())
}

func (w *CommandWriter) SetVuSubscriptions(configPtr Handle) bool {
	return w.send(OpSetVuSubscriptions, HandlePayload{Handle: configPtr}.Encode())
}

func (w *CommandWriter) FreeVuSubscriptions(configPtr Handle) bool {
	return w.send(OpFreeVuSubscriptions, HandlePayload{Handle: configPtr}.Encode())
}

func (w *CommandWriter) SetMonitorPortSubscription(listPtr Handle) bool {
	return w.send(OpSetMonitorPortSubscription, HandlePayload{Handle: listPtr}.Encode())
}

func (w *CommandWriter) FreeMonitorPortSubscription(listPtr Handle) bool {
	return w.send(OpFreeMonitorPortSubscription, HandlePayload{Handle: listPtr}.Encode())
}

func (w *CommandWriter) AckVuUpdate() bool {
	return w.send(OpAckVuUpdate, nil)
}

func (w *CommandWriter) AckMonitorPortUpdate(handle Handle) bool {
	return w.send(OpAckMonitorPortUpdate, HandlePayload{Handle: handle}.Encode())
}

func (w *CommandWriter) ParameterRequest(requestPtr Handle) bool {
	return w.send(OpParameterRequest, HandlePayload{Handle: requestPtr}.Encode())
}

func (w *CommandWriter) MidiProgramChange(program int32) bool {
	return w.send(OpMidiProgramChange, MidiProgramChangePayload{Program: program}.Encode())
}

func (w *CommandWriter) NextMidiProgram(direction int32) bool {
	return w.send(OpNextMidiProgram, NextMidiProgramPayload{Direction: direction}.Encode())
}

// CommandHandler receives the decoded commands_in opcodes, dispatched in
// arrival order by CommandReader.Drain. The engine's per-block loop (C8)
// implements this to apply each command before running the pedalboard.
type CommandHandler interface {
	OnReplacePedalboard(runtimePtr Handle)
	OnSetControl(effectIndex, controlIndex int32, value float64)
	OnSetBypass(effectIndex int32, enabled bool)
	OnSetInputVolume(db float64)
	OnSetOutputVolume(db float64)
	OnSetVuSubscriptions(configPtr Handle)
	OnFreeVuSubscriptions(configPtr Handle)
	OnSetMonitorPortSubscription(listPtr Handle)
	OnFreeMonitorPortSubscription(listPtr Handle)
	OnAckVuUpdate()
	OnAckMonitorPortUpdate(handle Handle)
	OnParameterRequest(requestPtr Handle)
	OnMidiProgramChange(program int32)
	OnNextMidiProgram(direction int32)
}

// CommandReader is the audio-thread side of commands_in: a single consumer
// that never blocks and dispatches every queued frame once per block, per
// spec.md §4.7 ("drain commands" is step one of the per-block loop).
type CommandReader struct {
	ring   *ringbuffer.RingBuffer
	header [headerSize]byte
}

// NewCommandReader wraps ring for dispatch-driven draining.
func NewCommandReader(ring *ringbuffer.RingBuffer) *CommandReader {
	return &CommandReader{ring: ring}
}

// Drain dispatches every complete frame currently queued, in FIFO order,
// and returns the number dispatched. It never blocks: an incomplete
// trailing frame (which cannot happen with a well-behaved writer, since
// writes are atomic) is simply left for the next call.
func (r *CommandReader) Drain(h CommandHandler) int {
	n := 0
	for {
		if !r.ring.TryRead(r.header[:]) {
			return n
		}
		hdr := decodeHeader(r.header[:])
		payload := make([]byte, hdr.PayloadBytes)
		if hdr.PayloadBytes > 0 && !r.ring.TryRead(payload) {
			return n
		}
		r.dispatch(hdr.Opcode, payload, h)
		n++
	}
}

func (r *CommandReader) dispatch(op Opcode, payload []byte, h CommandHandler) {
	switch op {
	case OpReplacePedalboard:
		h.OnReplacePedalboard(DecodeReplacePedalboard(payload).RuntimePtr)
	case OpSetControl:
		p := DecodeSetControl(payload)
		h.OnSetControl(p.EffectIndex, p.ControlIndex, p.Value)
	case OpSetBypass:
		p := DecodeSetBypass(payload)
		h.OnSetBypass(p.EffectIndex, p.Enabled)
	case OpSetInputVolume:
		h.OnSetInputVolume(DecodeVolume(payload).DB)
	case OpSetOutputVolume:
		h.OnSetOutputVolume(DecodeVolume(payload).DB)
	case OpSetVuSubscriptions:
		h.OnSetVuSubscriptions(DecodeHandle(payload).Handle)
	case OpFreeVuSubscriptions:
		h.OnFreeVuSubscriptions(DecodeHandle(payload).Handle)
	case OpSetMonitorPortSubscription:
		h.OnSetMonitorPortSubscription(DecodeHandle(payload).Handle)
	case OpFreeMonitorPortSubscription:
		h.OnFreeMonitorPortSubscription(DecodeHandle(payload).Handle)
	case OpAckVuUpdate:
		h.OnAckVuUpdate()
	case OpAckMonitorPortUpdate:
		h.OnAckMonitorPortUpdate(DecodeHandle(payload).Handle)
	case OpParameterRequest:
		h.OnParameterRequest(DecodeHandle(payload).Handle)
	case OpMidiProgramChange:
		h.OnMidiProgramChange(DecodeMidiProgramChange(payload).Program)
	case OpNextMidiProgram:
		h.OnNextMidiProgram(DecodeNextMidiProgram(payload).Direction)
	}
}
