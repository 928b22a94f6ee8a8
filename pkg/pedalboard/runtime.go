package pedalboard

import (
	"github.com/rerdavies/pipedal-go/pkg/midi"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/split"
)

// splitControlSymbols gives the split pseudo-plugin's control surface a
// stable index ordering, the same role a real plugin's port-index vector
// plays, so OpSetControl(effect_index, control_index, value) can address a
// split item exactly like a real one.
var splitControlSymbols = []string{
	split.SymbolType, split.SymbolSelect, split.SymbolMix,
	split.SymbolPanL, split.SymbolVolL, split.SymbolPanR, split.SymbolVolR,
}

// ProcessAction is one scheduled step of a compiled run: a split pre-mix, a
// plugin run, or a split post-mix (spec.md §3: "a flat process_actions list
// of callables (frames) -> void"). Trigger-port reset, also named as a
// process action in spec.md §4.5 step 2, is not scheduled separately here:
// plugin.Instance.Run already resets its own trigger controls at the end
// of the block it just ran, which is observably identical to a follow-up
// action resetting them before the next one — one fewer closure per
// trigger port with no behavior change.
type ProcessAction func(frames int)

// TelemetrySink is the narrow ring-writer surface Runtime.Run needs to
// relay per-plugin captured errors and state-changed/patch events to the
// service thread, satisfied by *proto.EventWriter without this package
// importing pkg/proto directly.
type TelemetrySink interface {
	Lv2StateChanged(instanceID int32) bool
	AtomOutput(instanceID int32, body []byte) bool
	Lv2ErrorMessage(instanceID int32, text string) bool
}

// effectBuffers records the resolved audio buffers Compile wired to one
// graph node, kept alongside rt.effects so ComputeVus can read them without
// asking the plugin.Effect interface for a capability it doesn't have.
type effectBuffers struct {
	in, out [][]float32
}

// trackedInstance pairs a compiled C3 with the stable instance-id it was
// constructed or borrowed under, for the Run/UpdateAudioPorts/Activate
// passes that need the id (error/state relay) rather than the effect index
// (VU/MIDI addressing).
type trackedInstance struct {
	id   int
	inst *plugin.Instance
}

// Runtime is the compiled pedalboard (C5): a flat process-action list, the
// live graph nodes it drives, input/output volume dezippers, the MIDI
// dispatch table, and the parameter-request queue (spec.md §3
// Pedalboard-runtime).
type Runtime struct {
	actions []ProcessAction

	effects        []plugin.Effect // index = effect index, compile order
	buffers        []effectBuffers // parallel to effects
	instanceIDByFX map[int]int     // effect index -> instance id, plugin items only

	instances    map[int]*plugin.Instance // instance id -> instance, for the next Compile's existing-instance map
	instanceList []trackedInstance        // compile order, for Run/Activate/UpdateAudioPorts
	splits       []plugin.Effect          // compile order, C4 nodes only
	borrowed     map[int]bool             // instance id -> true if reused from a previous runtime

	midiTable *midi.Table

	inputVolume, outputVolume *plugin.Dezipper

	pedalboardInputBuffers [][]float32
	chainOutputBuffers     [][]float32

	driverInputChannels, driverOutputChannels int
	sampleRate                                float64

	pending   []*PatchRequest
	completed []PatchResult

	sink TelemetrySink
}

// Instances returns the instance-id -> *plugin.Instance map for this
// runtime, to be passed as the existing-instance map to a later
// CompileReusing call when recompiling a running pedalboard.
func (rt *Runtime) Instances() map[int]*plugin.Instance {
	return rt.instances
}

// Activate mirrors Activate on every non-borrowed graph node (spec.md
// §4.5: "iterate the plugin instances and mirror the call"). A borrowed
// instance is already running under its previous runtime and must not be
// activated a second time.
func (rt *Runtime) Activate() {
	for _, ti := range rt.instanceList {
		if rt.borrowed[ti.id] {
			continue
		}
		ti.inst.Activate()
	}
	for _, s := range rt.splits {
		s.Activate()
	}
}

// Deactivate mirrors Deactivate on every non-borrowed graph node. Borrowed
// instances are left running: they belong to whichever runtime replaces
// this one.
func (rt *Runtime) Deactivate() {
	for _, ti := range rt.instanceList {
		if rt.borrowed[ti.id] {
			continue
		}
		ti.inst.Deactivate()
	}
	for _, s := range rt.splits {
		s.Deactivate()
	}
}

// UpdateAudioPorts reconnects any buffer pointers SetAudioInputBuffer/
// SetAudioOutputBuffer deferred while an instance was borrowed and still
// running under the previous runtime (spec.md §4.5: "called on the audio
// thread the first block after a pedalboard swap when any C3 was
// borrowed"). Safe to call unconditionally: instances with nothing pending
// no-op.
func (rt *Runtime) UpdateAudioPorts() {
	for _, ti := range rt.instanceList {
		ti.inst.UpdateAudioPorts()
	}
}

// NotifyLv2StateChanged implements plugin.TelemetrySink, forwarding a
// plugin's state-changed notice to the service thread unchanged.
func (rt *Runtime) NotifyLv2StateChanged(instanceID int) {
	if rt.sink != nil {
		rt.sink.Lv2StateChanged(int32(instanceID))
	}
}

// NotifyPatchSet implements plugin.TelemetrySink. If body completes an
// outstanding PatchGet request the runtime itself injected, it is routed
// to that request's result instead of being relayed as a bare atom — the
// service thread already knows what it asked for and does not need to
// re-correlate it against the instance/property pair a second time.
func (rt *Runtime) NotifyPatchSet(instanceID int, property uint32, body []byte) {
	for i, req := range rt.pending {
		if req.Kind != RequestPatchGet || !req.injected {
			continue
		}
		if rt.instanceIDByFX[req.EffectIndex] != instanceID || uint32(req.Property) != property {
			continue
		}
		rt.completed = append(rt.completed, PatchResult{ID: req.ID, Body: body})
		rt.pending = append(rt.pending[:i], rt.pending[i+1:]...)
		return
	}
	if rt.sink != nil {
		rt.sink.AtomOutput(int32(instanceID), body)
	}
}

// DispatchMidi routes one raw MIDI message through the compiled mapping
// table (spec.md §4.7), applying it to whichever graph nodes it targets.
func (rt *Runtime) DispatchMidi(msg []byte, sink midi.Sink) {
	rt.midiTable.Dispatch(msg, sink)
}

// ApplyControl implements midi.Sink, routing a dispatched mapping's value
// to the effect index / control index pair it resolved to at compile time.
func (rt *Runtime) ApplyControl(effectIndex, controlIndex int, value float64) {
	if effectIndex < 0 || effectIndex >= len(rt.effects) {
		return
	}
	inst, ok := rt.effects[effectIndex].(*plugin.Instance)
	if !ok {
		return
	}
	inst.SetControlByIndex(controlIndex, value)
}

// NotifyMidiValueChanged implements midi.Sink, relaying a MIDI-driven
// control change to the service thread over the same telemetry sink used
// for plugin errors and state changes.
func (rt *Runtime) NotifyMidiValueChanged(effectIndex, controlIndex int, value float64) {
	id, ok := rt.instanceIDByFX[effectIndex]
	if !ok || rt.sink == nil {
		return
	}
	if w, ok := rt.sink.(midiValueChangedSink); ok {
		w.MidiValueChanged(int32(id), int32(controlIndex), value)
	}
}

// midiValueChangedSink is the optional extension of TelemetrySink that
// relays MidiValueChanged events, kept separate from the base interface
// because not every TelemetrySink caller (tests, in particular) needs it.
type midiValueChangedSink interface {
	MidiValueChanged(instanceID, controlIndex int32, value float64) bool
}

// SetControl implements OpSetControl (spec.md §4.2) against a compiled
// effect index, dispatching by concrete node type: a real plugin addresses
// its control array directly, a split resolves the index against
// splitControlSymbols.
func (rt *Runtime) SetControl(effectIndex, controlIndex int, value float64) {
	if effectIndex < 0 || effectIndex >= len(rt.effects) {
		return
	}
	switch eff := rt.effects[effectIndex].(type) {
	case *plugin.Instance:
		eff.SetControlByIndex(controlIndex, value)
	default:
		if controlIndex >= 0 && controlIndex < len(splitControlSymbols) {
			eff.SetControl(splitControlSymbols[controlIndex], value)
		}
	}
}

// ControlValueByIndex reads back a plugin instance's control value for
// monitor-port sampling (spec.md §6: "set_monitor_port_subscriptions").
// Split nodes have no monitor-eligible ports, so they report not-found.
func (rt *Runtime) ControlValueByIndex(effectIndex, controlIndex int) (float64, bool) {
	if effectIndex < 0 || effectIndex >= len(rt.effects) {
		return 0, false
	}
	inst, ok := rt.effects[effectIndex].(*plugin.Instance)
	if !ok {
		return 0, false
	}
	return inst.ControlValueByIndex(controlIndex)
}

// SetBypass implements OpSetBypass (spec.md §4.2) against a compiled
// effect index.
func (rt *Runtime) SetBypass(effectIndex int, enabled bool) {
	if effectIndex < 0 || effectIndex >= len(rt.effects) {
		return
	}
	rt.effects[effectIndex].SetBypass(enabled)
}

// SetInputVolume implements OpSetInputVolume (spec.md §4.2), arming the
// input dezipper's ~100ms ramp toward the new target.
func (rt *Runtime) SetInputVolume(db float64) {
	rt.inputVolume.SetTargetDB(db)
}

// SetOutputVolume implements OpSetOutputVolume (spec.md §4.2).
func (rt *Runtime) SetOutputVolume(db float64) {
	rt.outputVolume.SetTargetDB(db)
}

// Run executes one host audio block (spec.md §4.5 Run): apply the
// input-volume dezipper into pedalboardInputBuffers, run every process
// action in order, drain each plugin's captured error message, then apply
// the output-volume dezipper from the final chain buffers into driverOut.
func (rt *Runtime) Run(driverIn, driverOut [][]float32, frames int, sink TelemetrySink) {
	rt.sink = sink

	for s := 0; s < frames; s++ {
		gain := float32(rt.inputVolume.NextGain())
		for ch, dst := range rt.pedalboardInputBuffers {
			var src float32
			if ch < len(driverIn) {
				src = driverIn[ch][s]
			} else if len(driverIn) > 0 {
				src = driverIn[0][s]
			}
			dst[s] = gain * src
		}
	}

	for _, action := range rt.actions {
		action(frames)
	}

	for _, ti := range rt.instanceList {
		if msg, ok := ti.inst.TakeError(); ok && rt.sink != nil {
			rt.sink.Lv2ErrorMessage(int32(ti.id), msg)
		}
	}

	for s := 0; s < frames; s++ {
		gain := float32(rt.outputVolume.NextGain())
		for ch, dst := range driverOut {
			var src float32
			if ch < len(rt.chainOutputBuffers) {
				src = rt.chainOutputBuffers[ch][s]
			} else if len(rt.chainOutputBuffers) > 0 {
				src = rt.chainOutputBuffers[0][s]
			}
			dst[s] = gain * src
		}
	}
}
