package proto

import "github.com/rerdavies/pipedal-go/pkg/ringbuffer"

// EventWriter is the audio-thread side of events_out. It is the only
// writer (the audio thread is single-threaded per engine instance) so it
// talks to the bare RingBuffer rather than a MultiWriter. Per spec.md
// §4.2, a write failure here increments the ring's own overflow counter
// and the frame is dropped — EventWriter never retries or blocks.
type EventWriter struct {
	ring *ringbuffer.RingBuffer

	vuWaiting      bool
	monitorWaiting map[Handle]bool
}

// NewEventWriter wraps ring for typed telemetry emission.
func NewEventWriter(ring *ringbuffer.RingBuffer) *EventWriter {
	return &EventWriter{ring: ring, monitorWaiting: make(map[Handle]bool)}
}

func (w *EventWriter) send(op Opcode, payload []byte) bool {
	return w.ring.Write(encodeFrame(op, payload))
}

func (w *EventWriter) PedalboardReplaced(oldRuntimePtr Handle) bool {
	return w.send(OpPedalboardReplaced, HandlePayload{Handle: oldRuntimePtr}.Encode())
}

// SendVuUpdate emits a VU snapshot unless one is already in flight awaiting
// its ack (spec.md §4.2: "no further update of that kind is emitted until
// the matching ack returns"). Returns false if the update was suppressed
// or the ring rejected the write.
func (w *EventWriter) SendVuUpdate(snapshotPtr Handle) bool {
	if w.vuWaiting {
		return false
	}
	if !w.send(OpSendVuUpdate, SendVuUpdatePayload{SnapshotPtr: snapshotPtr}.Encode()) {
		return false
	}
	w.vuWaiting = true
	return true
}

// AckVuUpdate clears the waiting-for-ack flag; called by the engine when
// CommandReader dispatches OnAckVuUpdate.
func (w *EventWriter) AckVuUpdate() {
	w.vuWaiting = false
}

// VuWaiting reports whether a VU update is currently outstanding.
func (w *EventWriter) VuWaiting() bool {
	return w.vuWaiting
}

// SendMonitorPortUpdate emits one monitored port's value unless that
// specific handle already has an update outstanding.
func (w *EventWriter) SendMonitorPortUpdate(handle Handle, value float64) bool {
	if w.monitorWaiting[handle] {
		return false
	}
	if !w.send(OpSendMonitorPortUpdate, SendMonitorPortUpdatePayload{Handle: handle, Value: value}.Encode()) {
		return false
	}
	w.monitorWaiting[handle] = true
	return true
}

// AckMonitorPortUpdate clears one handle's waiting-for-ack flag.
func (w *EventWriter) AckMonitorPortUpdate(handle Handle) {
	delete(w.monitorWaiting, handle)
}

func (w *EventWriter) AtomOutput(instanceID int32, body []byte) bool {
	return w.send(OpAtomOutput, AtomOutputPayload{InstanceID: instanceID, Body: body}.Encode())
}

func (w *EventWriter) Lv2StateChanged(instanceID int32) bool {
	return w.send(OpLv2StateChanged, InstancePayload{InstanceID: instanceID}.Encode())
}

func (w *EventWriter) MaybeLv2StateChanged(instanceID int32) bool {
	return w.send(OpMaybeLv2StateChanged, InstancePayload{InstanceID: instanceID}.Encode())
}

func (w *EventWriter) MidiValueChanged(instanceID, controlIndex int32, value float64) bool {
	return w.send(OpMidiValueChanged, MidiValueChangedPayload{InstanceID: instanceID, ControlIndex: controlIndex, Value: value}.Encode())
}

func (w *EventWriter) OnMidiListen(isNote bool, noteOrCC int32) bool {
	return w.send(OpOnMidiListen, OnMidiListenPayload{IsNote: isNote, NoteOrCC: noteOrCC}.Encode())
}

func (w *EventWriter) ParameterRequestComplete(requestPtr Handle) bool {
	return w.send(OpParameterRequestComplete, HandlePayload{Handle: requestPtr}.Encode())
}

func (w *EventWriter) AudioStopped() bool {
	return w.send(OpAudioStopped, nil)
}

func (w *EventWriter) Lv2ErrorMessage(instanceID int32, text string) bool {
	return w.send(OpLv2ErrorMessage, Lv2ErrorMessagePayload{InstanceID: instanceID, Text: text}.Encode())
}

// EventHandler receives the decoded events_out opcodes on the service
// thread. Implementations must ack SendVuUpdate/SendMonitorPortUpdate
// promptly (via the paired CommandWriter) or telemetry of that kind stalls.
type EventHandler interface {
	OnPedalboardReplaced(oldRuntimePtr Handle)
	OnVuUpdate(snapshotPtr Handle)
	OnMonitorPortUpdate(handle Handle, value float64)
	OnAtomOutput(instanceID int32, body []byte)
	OnLv2StateChanged(instanceID int32)
	OnMaybeLv2StateChanged(instanceID int32)
	OnMidiValueChanged(instanceID, controlIndex int32, value float64)
	OnMidiListen(isNote bool, noteOrCC int32)
	OnParameterRequestComplete(requestPtr Handle)
	OnAudioStopped()
	OnLv2ErrorMessage(instanceID int32, text string)
}

// EventReader is the service-thread side of events_out.
type EventReader struct {
	ring   *ringbuffer.RingBuffer
	header [headerSize]byte
}

// NewEventReader wraps ring for dispatch-driven draining.
func NewEventReader(ring *ringbuffer.RingBuffer) *EventReader {
	return &EventReader{ring: ring}
}

// Drain dispatches every complete frame currently queued and returns the
// count dispatched. Like CommandReader.Drain, never blocks; callers that
// want to wait for data use the wrapped ring's WaitFor/WaitUntil directly.
func (r *EventReader) Drain(h EventHandler) int {
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

func (r *EventReader) dispatch(op Opcode, payload []byte, h EventHandler) {
	switch op {
	case OpPedalboardReplaced:
		h.OnPedalboardReplaced(DecodeHandle(payload).Handle)
	case OpSendVuUpdate:
		h.OnVuUpdate(DecodeSendVuUpdate(payload).SnapshotPtr)
	case OpSendMonitorPortUpdate:
		p := DecodeSendMonitorPortUpdate(payload)
		h.OnMonitorPortUpdate(p.Handle, p.Value)
	case OpAtomOutput:
		p := DecodeAtomOutput(payload)
		h.OnAtomOutput(p.InstanceID, p.Body)
	case OpLv2StateChanged:
		h.OnLv2StateChanged(DecodeInstance(payload).InstanceID)
	case OpMaybeLv2StateChanged:
		h.OnMaybeLv2StateChanged(DecodeInstance(payload).InstanceID)
	case OpMidiValueChanged:
		p := DecodeMidiValueChanged(payload)
		h.OnMidiValueChanged(p.InstanceID, p.ControlIndex, p.Value)
	case OpOnMidiListen:
		p := DecodeOnMidiListen(payload)
		h.OnMidiListen(p.IsNote, p.NoteOrCC)
	case OpParameterRequestComplete:
		h.OnParameterRequestComplete(DecodeHandle(payload).Handle)
	case OpAudioStopped:
		h.OnAudioStopped()
	case OpLv2ErrorMessage:
		p := DecodeLv2ErrorMessage(payload)
		h.OnLv2ErrorMessage(p.InstanceID, p.Text)
	}
}
