// Package proto implements the command/telemetry protocol (C2) exchanged
// between the service thread and the audio thread over a pair of rings:
// commands_in (service -> audio, multi-writer) and events_out (audio ->
// service, semaphore-reader). Each frame is a fixed header {opcode,
// payload_bytes} followed by a typed payload (spec.md §4.2).
package proto

// Opcode identifies a frame's payload type. The two directions share one
// numeric space; which ring a frame travels on is what actually
// disambiguates it, exactly as spec.md §4.2 describes.
type Opcode uint16

const (
	// Service -> audio.
	OpReplacePedalboard Opcode = iota + 1
	OpSetControl
	OpSetBypass
	OpSetInputVolume
	OpSetOutputVolume
	OpSetVuSubscriptions
	OpFreeVuSubscriptions
	OpSetMonitorPortSubscription
	OpFreeMonitorPortSubscription
	OpAckVuUpdate
	OpAckMonitorPortUpdate
	OpParameterRequest
	OpMidiProgramChange
	OpNextMidiProgram

	// Audio -> service.
	OpPedalboardReplaced
	OpSendVuUpdate
	OpSendMonitorPortUpdate
	OpAtomOutput
	OpLv2StateChanged
	OpMaybeLv2StateChanged
	OpMidiValueChanged
	OpOnMidiListen
	OpParameterRequestComplete
	OpAudioStopped
	OpLv2ErrorMessage

	// OpUnderrun is reserved and never framed: spec.md §4.2 treats underrun
	// reporting as "counter-only, polled" (see Pipe.RecordUnderrun), so no
	// dispatcher ever decodes this opcode. It is kept in the enum so the
	// numeric space documents every message spec.md names.
	OpUnderrun
)

// headerSize is opcode(2) + payload_bytes(2).
const headerSize = 4

// Header is the fixed 4-byte frame header every message starts with.
type Header struct {
	Opcode       Opcode
	PayloadBytes uint16
}

// Handle is an opaque correlation id standing in for the original
// implementation's raw pointers (runtime_ptr, config_ptr, list_ptr,
// request_ptr) — spec.md §9 treats these as "opaque tokens the service
// thread allocates and the audio thread never dereferences", which a Go
// handle models directly without unsafe.Pointer.
type Handle uint64
