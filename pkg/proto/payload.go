package proto

import (
	"encoding/binary"
	"math"
)

// Every payload below is encoded as fixed-width little-endian fields in
// declaration order, the same manual-offset style pkg/atom uses for event
// sequences — no reflection, no allocation beyond the returned slice.

// --- Service -> audio -------------------------------------------------

// ReplacePedalboardPayload swaps the running Runtime for a newly compiled
// one. RuntimePtr is a handle the service thread allocated via whatever
// registry it uses to track compiled runtimes; the audio thread only ever
// holds it opaquely and hands it back unchanged in PedalboardReplaced.
type ReplacePedalboardPayload struct {
	RuntimePtr Handle
}

func (p ReplacePedalboardPayload) Encode() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(p.RuntimePtr))
	return b
}

func DecodeReplacePedalboard(b []byte) ReplacePedalboardPayload {
	return ReplacePedalboardPayload{RuntimePtr: Handle(binary.LittleEndian.Uint64(b))}
}

// SetControlPayload sets one plugin instance's control port by index.
type SetControlPayload struct {
	EffectIndex  int32
	ControlIndex int32
	Value        float64
}

func (p SetControlPayload) Encode() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], uint32(p.EffectIndex))
	binary.LittleEndian.PutUint32(b[4:], uint32(p.ControlIndex))
	binary.LittleEndian.PutUint64(b[8:], float64bits(p.Value))
	return b
}

func DecodeSetControl(b []byte) SetControlPayload {
	return SetControlPayload{
		EffectIndex:  int32(binary.LittleEndian.Uint32(b[0:])),
		ControlIndex: int32(binary.LittleEndian.Uint32(b[4:])),
		Value:        float64frombits(binary.LittleEndian.Uint64(b[8:])),
	}
}

// SetBypassPayload toggles one plugin instance's bypass state.
type SetBypassPayload struct {
	EffectIndex int32
	Enabled     bool
}

func (p SetBypassPayload) Encode() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], uint32(p.EffectIndex))
	if p.Enabled {
		b[4] = 1
	}
	return b
}

func DecodeSetBypass(b []byte) SetBypassPayload {
	return SetBypassPayload{
		EffectIndex: int32(binary.LittleEndian.Uint32(b[0:])),
		Enabled:     b[4] != 0,
	}
}

// VolumePayload carries a single dB value; used for both
// SetInputVolume and SetOutputVolume.
type VolumePayload struct {
	DB float64
}

func (p VolumePayload) Encode() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, float64bits(p.DB))
	return b
}

func DecodeVolume(b []byte) VolumePayload {
	return VolumePayload{DB: float64frombits(binary.LittleEndian.Uint64(b))}
}

// HandlePayload carries a single opaque handle; used for
// SetVuSubscriptions, FreeVuSubscriptions, SetMonitorPortSubscription,
// FreeMonitorPortSubscription, AckMonitorPortUpdate, ParameterRequest,
// PedalboardReplaced and ParameterRequestComplete.
type HandlePayload struct {
	Handle Handle
}

func (p HandlePayload) Encode() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(p.Handle))
	return b
}

func DecodeHandle(b []byte) HandlePayload {
	return HandlePayload{Handle: Handle(binary.LittleEndian.Uint64(b))}
}

// MidiProgramChangePayload selects an absolute MIDI program number.
type MidiProgramChangePayload struct {
	Program int32
}

func (p MidiProgramChangePayload) Encode() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(p.Program))
	return b
}

func DecodeMidiProgramChange(b []byte) MidiProgramChangePayload {
	return MidiProgramChangePayload{Program: int32(binary.LittleEndian.Uint32(b))}
}

// NextMidiProgramPayload advances the program by +1/-1 (Direction's sign).
type NextMidiProgramPayload struct {
	Direction int32
}

func (p NextMidiProgramPayload) Encode() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(p.Direction))
	return b
}

func DecodeNextMidiProgram(b []byte) NextMidiProgramPayload {
	return NextMidiProgramPayload{Direction: int32(binary.LittleEndian.Uint32(b))}
}

// --- Audio -> service -------------------------------------------------

// SendVuUpdatePayload reports a VU-meter snapshot. Subject to the
// waiting-for-ack flow control in EventWriter.SendVuUpdate (event.go).
type SendVuUpdatePayload struct {
	SnapshotPtr Handle
}

func (p SendVuUpdatePayload) Encode() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(p.SnapshotPtr))
	return b
}

func DecodeSendVuUpdate(b []byte) SendVuUpdatePayload {
	return SendVuUpdatePayload{SnapshotPtr: Handle(binary.LittleEndian.Uint64(b))}
}

// SendMonitorPortUpdatePayload reports one monitored port's current value.
// Also subject to per-handle waiting-for-ack gating.
type SendMonitorPortUpdatePayload struct {
	Handle Handle
	Value  float64
}

func (p SendMonitorPortUpdatePayload) Encode() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:], uint64(p.Handle))
	binary.LittleEndian.PutUint64(b[8:], float64bits(p.Value))
	return b
}

func DecodeSendMonitorPortUpdate(b []byte) SendMonitorPortUpdatePayload {
	return SendMonitorPortUpdatePayload{
		Handle: Handle(binary.LittleEndian.Uint64(b[0:])),
		Value:  float64frombits(binary.LittleEndian.Uint64(b[8:])),
	}
}

// AtomOutputPayload carries the raw bytes a plugin instance wrote to its
// atom-output port, for the GUI to decode (e.g. patch:Set notifications
// the service thread wants to relay verbatim rather than act on itself).
type AtomOutputPayload struct {
	InstanceID int32
	Body       []byte
}

func (p AtomOutputPayload) Encode() []byte {
	b := make([]byte, 4+len(p.Body))
	binary.LittleEndian.PutUint32(b[0:], uint32(p.InstanceID))
	copy(b[4:], p.Body)
	return b
}

func DecodeAtomOutput(b []byte) AtomOutputPayload {
	body := make([]byte, len(b)-4)
	copy(body, b[4:])
	return AtomOutputPayload{InstanceID: int32(binary.LittleEndian.Uint32(b[0:])), Body: body}
}

// InstancePayload carries a single instance id; used for Lv2StateChanged,
// MaybeLv2StateChanged and AudioStopped's sibling opcodes.
type InstancePayload struct {
	InstanceID int32
}

func (p InstancePayload) Encode() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(p.InstanceID))
	return b
}

func DecodeInstance(b []byte) InstancePayload {
	return InstancePayload{InstanceID: int32(binary.LittleEndian.Uint32(b))}
}

// MidiValueChangedPayload reports a MIDI-mapped control's new value after
// a binding dispatch (pkg/midi) applied an incoming MIDI message.
type MidiValueChangedPayload struct {
	InstanceID   int32
	ControlIndex int32
	Value        float64
}

func (p MidiValueChangedPayload) Encode() []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], uint32(p.InstanceID))
	binary.LittleEndian.PutUint32(b[4:], uint32(p.ControlIndex))
	binary.LittleEndian.PutUint64(b[8:], float64bits(p.Value))
	return b
}

func DecodeMidiValueChanged(b []byte) MidiValueChangedPayload {
	return MidiValueChangedPayload{
		InstanceID:   int32(binary.LittleEndian.Uint32(b[0:])),
		ControlIndex: int32(binary.LittleEndian.Uint32(b[4:])),
		Value:        float64frombits(binary.LittleEndian.Uint64(b[8:])),
	}
}

// OnMidiListenPayload reports one MIDI message observed while a "MIDI
// learn" listen session is active.
type OnMidiListenPayload struct {
	IsNote   bool
	NoteOrCC int32
}

func (p OnMidiListenPayload) Encode() []byte {
	b := make([]byte, 8)
	if p.IsNote {
		b[0] = 1
	}
	binary.LittleEndian.PutUint32(b[4:], uint32(p.NoteOrCC))
	return b
}

func DecodeOnMidiListen(b []byte) OnMidiListenPayload {
	return OnMidiListenPayload{
		IsNote:   b[0] != 0,
		NoteOrCC: int32(binary.LittleEndian.Uint32(b[4:])),
	}
}

// Lv2ErrorMessagePayload reports a plugin instance's captured error text
// (pkg/plugin.Instance.TakeError), relayed to the service thread.
type Lv2ErrorMessagePayload struct {
	InstanceID int32
	Text       string
}

func (p Lv2ErrorMessagePayload) Encode() []byte {
	b := make([]byte, 4+len(p.Text))
	binary.LittleEndian.PutUint32(b[0:], uint32(p.InstanceID))
	copy(b[4:], p.Text)
	return b
}

func DecodeLv2ErrorMessage(b []byte) Lv2ErrorMessagePayload {
	return Lv2ErrorMessagePayload{
		InstanceID: int32(binary.LittleEndian.Uint32(b[0:])),
		Text:       string(b[4:]),
	}
}

func float64bits(f float64) uint64     { return math.Float64bits(f) }
func float64frombits(u uint64) float64 { return math.Float64frombits(u) }
