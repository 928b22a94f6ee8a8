package plugin

import (
	"github.com/rerdavies/pipedal-go/pkg/atom"
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/urid"
	"github.com/rerdavies/pipedal-go/pkg/worker"
)

const (
	eventInBufferBytes  = 4096
	eventOutBufferBytes = 4096
)

// Instance is the C3 plugin instance wrapper: port metadata, control
// storage, optional buffer-size adaptation, the soft-bypass mixer, and
// error capture, all behind the narrow Effect capability the pedalboard
// runtime drives.
type Instance struct {
	instanceID int
	uri        string
	bundle     BundleInfo
	native     NativePlugin
	log        *pplog.Logger

	ports           []PortInfo
	controlIndices  []int // port index for each entry in controlValues
	symbolToControl map[string]int
	controlValues   []float64
	controlPtrs     []float64 // backing storage connected to the native plugin
	triggerDefaults map[int]float64

	bypassControlIndex int
	zeroInputMix       float32
	isGenerator        bool

	bypass *BypassMixer
	errs   errorSlot

	restoreError string

	eventIn  *atom.Forge
	eventOut []byte

	blockSize int // B, or 0 when no staging is in effect
	st        *stage

	uridMap *urid.Map

	audioIn, audioOut     [][]float32
	dryIn                 [][]float32 // generator-class instances only; see SetDryInputBuffer
	running               bool
	pendingIn, pendingOut map[int][]float32
	pendingDryIn          [][]float32
	havePendingDryIn      bool

	worker *worker.Worker
}

// Construct resolves the bundle's port layout, applies default and
// item-supplied control values, optionally restores plugin state, and
// enables buffer staging if the plugin requires a fixed internal block
// size (spec.md §4.3).
func Construct(instanceID int, bundle BundleInfo, native NativePlugin, itemValues []ControlValue, stateBlob []byte, features Features, log *pplog.Logger, uridMap *urid.Map) (*Instance, error) {
	inst := &Instance{
		instanceID:         instanceID,
		uri:                bundle.URI,
		bundle:             bundle,
		native:             native,
		log:                log,
		ports:              bundle.Ports,
		symbolToControl:    map[string]int{},
		triggerDefaults:    map[int]float64{},
		bypassControlIndex: -1,
		zeroInputMix:       1,
		uridMap:            uridMap,
		eventIn:            atom.NewForge(eventInBufferBytes),
		eventOut:           make([]byte, eventOutBufferBytes),
	}

	numAudioIn, numAudioOut := 0, 0
	for _, p := range bundle.Ports {
		switch p.Kind {
		case KindAudio:
			if p.Direction == DirectionInput {
				numAudioIn++
			} else {
				numAudioOut++
			}
		case KindControl:
			idx := len(inst.controlValues)
			inst.controlIndices = append(inst.controlIndices, p.Index)
			inst.controlValues = append(inst.controlValues, p.Default)
			inst.symbolToControl[p.Symbol] = idx
			if p.Flags.Has(FlagTrigger) {
				inst.triggerDefaults[idx] = p.Default
			}
			if p.Symbol == "bypass" {
				inst.bypassControlIndex = idx
			}
		}
	}
	inst.isGenerator = numAudioIn == 0
	inst.controlPtrs = append([]float64(nil), inst.controlValues...)

	for _, cv := range itemValues {
		if idx, ok := inst.symbolToControl[cv.Symbol]; ok {
			inst.controlValues[idx] = cv.Value
			inst.controlPtrs[idx] = cv.Value
		}
	}

	inst.bypass = NewBypassMixer(features.SampleRate)

	blockSize, err := ComputeBlockSize(bundle.MinBlockLength, bundle.MaxBlockLength, bundle.PowerOfTwoBlockLength)
	if err != nil {
		return nil, err
	}
	inst.blockSize = blockSize
	if blockSize > 0 {
		inst.st = newStage(blockSize, numAudioIn, numAudioOut)
	}
	inst.audioIn = make([][]float32, numAudioIn)
	inst.audioOut = make([][]float32, numAudioOut)
	inst.pendingIn = map[int][]float32{}
	inst.pendingOut = map[int][]float32{}

	for i, idx := range inst.controlIndices {
		native.ConnectControl(idx, &inst.controlPtrs[i])
	}
	native.ConnectAtomOut(0, inst.eventOut)

	if logging, ok := native.(LoggingPlugin); ok {
		logging.AttachLogSink(inst.onPluginLog)
	}

	if bundle.HasState && len(stateBlob) > 0 {
		if restorer, ok := native.(StateRestorer); ok {
			if err := restorer.RestoreState(stateBlob); err != nil {
				// Recorded for the UI to surface (spec.md §7); not fatal
				// to construction.
				inst.restoreError = err.Error()
			}
		}
	}

	if bundle.HasWorker && features.HostWorker != nil {
		if responder, ok := native.(Worker); ok {
			w, err := worker.New(features.HostWorker, responder)
			if err == nil {
				inst.worker = w
				if scheduling, ok := native.(WorkSchedulingPlugin); ok {
					scheduling.AttachWorkScheduler(w.ScheduleWork)
				}
			}
		}
	}

	return inst, nil
}

// Close releases this instance's worker handle, if it has one, blocking
// (off the audio thread) until every request already accepted has
// completed (spec.md §4.6 close protocol). Safe to call even when the
// plugin declared no worker interface.
func (inst *Instance) Close() {
	if inst.worker != nil {
		inst.worker.Close()
	}
}

// Ports returns the plugin's full port list, as discovered from its bundle.
func (inst *Instance) Ports() []PortInfo {
	return inst.ports
}

// RestoreError returns the error captured during Construct's state
// restore, if any. It is immutable after Construct returns.
func (inst *Instance) RestoreError() (string, bool) {
	return inst.restoreError, inst.restoreError != ""
}

// Activate mirrors the plugin's activate callback exactly once and snaps
// the bypass mixer to its current target (spec.md §4.3).
func (inst *Instance) Activate() {
	inst.native.Activate()
	inst.bypass.SnapTo(inst.bypass.target)
	inst.running = true
}

// Deactivate mirrors the plugin's deactivate callback exactly once.
func (inst *Instance) Deactivate() {
	inst.native.Deactivate()
	inst.running = false
}

// SetAudioInputBuffer/SetAudioOutputBuffer update a graph connection. When
// the instance is already running (the C5 runtime may be borrowed by the
// audio thread concurrently with a service-thread recompile), the new
// buffer is recorded and the actual reconnect deferred until the audio
// thread calls UpdateAudioPorts (spec.md §4.3).
func (inst *Instance) SetAudioInputBuffer(index int, buf []float32) {
	if inst.running {
		inst.pendingIn[index] = buf
		return
	}
	inst.audioIn[index] = buf
}

func (inst *Instance) SetAudioOutputBuffer(index int, buf []float32) {
	if inst.running {
		inst.pendingOut[index] = buf
		return
	}
	inst.audioOut[index] = buf
}

// SetDryInputBuffer wires the chain's upstream signal into a generator
// instance (one with no native audio input ports) purely as a dry-mix
// reference for applyBypass. It never reaches the native plugin: a
// generator's audioIn stays empty, so ConnectAudioIn is never called for a
// port that doesn't exist (spec.md §4.3.2: bypassing a zero-input node must
// still pass the real upstream signal through, not silence). Deferred to
// UpdateAudioPorts while the instance is running, same as
// SetAudioInputBuffer.
func (inst *Instance) SetDryInputBuffer(buffers [][]float32) {
	if inst.running {
		inst.pendingDryIn = buffers
		inst.havePendingDryIn = true
		return
	}
	inst.dryIn = buffers
}

// AudioInBuffer/AudioOutBuffer implement the Effect capability the
// pedalboard runtime uses to read a node's graph connections.
func (inst *Instance) AudioInBuffer(index int) []float32  { return inst.audioIn[index] }
func (inst *Instance) AudioOutBuffer(index int) []float32 { return inst.audioOut[index] }

// AudioInBuffers/AudioOutBuffers return the full connected buffer vectors,
// for callers (the pedalboard compiler's VU accumulation) that need every
// channel rather than one at a time.
func (inst *Instance) AudioInBuffers() [][]float32  { return inst.audioIn }
func (inst *Instance) AudioOutBuffers() [][]float32 { return inst.audioOut }

// UpdateAudioPorts applies any buffer reconnects deferred by
// SetAudioInputBuffer/SetAudioOutputBuffer while the instance was running.
// Must be called on the audio thread between blocks, never concurrently
// with Run.
func (inst *Instance) UpdateAudioPorts() {
	for i, buf := range inst.pendingIn {
		inst.audioIn[i] = buf
		delete(inst.pendingIn, i)
	}
	if inst.havePendingDryIn {
		inst.dryIn = inst.pendingDryIn
		inst.pendingDryIn = nil
		inst.havePendingDryIn = false
	}
	for i, buf := range inst.pendingOut {
		inst.audioOut[i] = buf
		delete(inst.pendingOut, i)
	}
}

// SetControl writes a new control value by symbol, visible to the native
// plugin on its next Run (the plugin holds a pointer into controlPtrs).
func (inst *Instance) SetControl(symbol string, value float64) {
	idx, ok := inst.symbolToControl[symbol]
	if !ok {
		return
	}
	inst.controlValues[idx] = value
	inst.controlPtrs[idx] = value
	if idx == inst.bypassControlIndex {
		inst.bypass.SetBypass(value != 0)
	}
}

// SetControlByIndex writes a new control value by control array index
// rather than symbol, the addressing scheme SetControl (C2) and the
// compiled MIDI mapping table (C7) both use once the pedalboard compiler
// has resolved a symbol to its index (spec.md §4.5 step 4).
func (inst *Instance) SetControlByIndex(index int, value float64) {
	if index < 0 || index >= len(inst.controlValues) {
		return
	}
	inst.controlValues[index] = value
	inst.controlPtrs[index] = value
	if index == inst.bypassControlIndex {
		inst.bypass.SetBypass(value != 0)
	}
}

// SetBypass arms the soft-bypass crossfade directly, independent of any
// bypass control port.
func (inst *Instance) SetBypass(enabled bool) {
	inst.bypass.SetBypass(enabled)
}

// ControlValueByIndex returns the current value of a control by array
// index, the counterpart read to SetControlByIndex used by monitor-port
// sampling (spec.md §4.2: "set_monitor_port_subscriptions").
func (inst *Instance) ControlValueByIndex(index int) (float64, bool) {
	if index < 0 || index >= len(inst.controlValues) {
		return 0, false
	}
	return inst.controlValues[index], true
}

// ControlValue returns the current value of a control by symbol.
func (inst *Instance) ControlValue(symbol string) (float64, bool) {
	idx, ok := inst.symbolToControl[symbol]
	if !ok {
		return 0, false
	}
	return inst.controlValues[idx], true
}

// ControlIndex returns the control array index for a symbol, used by the
// pedalboard compiler to resolve MIDI bindings against the right target
// (spec.md §4.5 step 4).
func (inst *Instance) ControlIndex(symbol string) (int, bool) {
	idx, ok := inst.symbolToControl[symbol]
	return idx, ok
}

// SetZeroInputMix sets the triangular crossfade weight applied to a
// zero-input (generator) plugin's output against the dry input signal
// before the bypass mixer runs (spec.md §4.3.2).
func (inst *Instance) SetZeroInputMix(mix float32) {
	inst.zeroInputMix = mix
}

// RequestPatchProperty writes a patch:Get message into the event-input
// stream at the current frame.
func (inst *Instance) RequestPatchProperty(property urid.URID) {
	inst.eventIn.WriteEvent(0, property, nil)
}

// SetPatchProperty writes a patch:Set message (property, body) into the
// event-input stream at the current frame.
func (inst *Instance) SetPatchProperty(property urid.URID, body []byte) {
	inst.eventIn.WriteEvent(0, property, body)
}

// TakeError returns and clears the most recently captured Error-severity
// log message, if any (spec.md §4.3.3).
func (inst *Instance) TakeError() (string, bool) {
	return inst.errs.Take()
}

// onPluginLog is attached to plugins implementing LoggingPlugin. Error
// severity is captured into the per-instance slot for relay via
// Lv2ErrorMessage; everything else goes straight to the host logger
// (spec.md §4.3.3).
func (inst *Instance) onPluginLog(severity pplog.Severity, msg string) {
	if severity == pplog.SeverityError {
		inst.errs.Set(msg)
		return
	}
	if inst.log != nil {
		inst.log.Log(severity, "%s", msg)
	}
}

// Run executes one host audio block, handling buffer staging, worker
// response delivery, the soft-bypass / generator crossfade, and
// trigger-control reset, in the order specified by spec.md §4.3: close the
// event-input frame, run the plugin (staged or direct), drain worker
// responses, mix bypass, scan for patch-set/state-changed events, reset
// triggers.
func (inst *Instance) Run(frames int, telemetry TelemetrySink) {
	eventInBytes := inst.eventIn.EndSequence()
	inst.native.ConnectAtomIn(0, eventInBytes)

	pluginIn, pluginOut := inst.audioIn, inst.audioOut
	if inst.st != nil {
		pluginIn, pluginOut = inst.st.in, inst.st.out
	}
	runBlock := func() {
		for i, buf := range pluginIn {
			inst.native.ConnectAudioIn(i, buf)
		}
		for i, buf := range pluginOut {
			inst.native.ConnectAudioOut(i, buf)
		}
		inst.native.Run(inst.effectiveFrames(frames))
	}

	if inst.st != nil {
		inst.st.Process(inst.audioIn, inst.audioOut, runBlock)
	} else {
		runBlock()
	}

	if inst.worker != nil {
		if w, ok := inst.native.(Worker); ok {
			inst.worker.EmitResponses(w.WorkResponse)
		}
	}

	hostIn := inst.audioIn
	if inst.isGenerator && inst.dryIn != nil {
		hostIn = inst.dryIn
	}
	inst.applyBypass(frames, hostIn, inst.audioOut)

	inst.scanEventOutput(telemetry)
	inst.resetTriggers()
	inst.eventIn.BeginSequence()
}

func (inst *Instance) effectiveFrames(hostFrames int) int {
	if inst.blockSize > 0 {
		return inst.blockSize
	}
	return hostFrames
}

func (inst *Instance) applyBypass(frames int, hostIn, hostOut [][]float32) {
	for s := 0; s < frames; s++ {
		mix := inst.bypass.Next()
		for ch := range hostOut {
			pluginOut := hostOut[ch][s]
			var dry float32
			if ch < len(hostIn) {
				dry = hostIn[ch][s]
			} else if len(hostIn) > 0 {
				dry = hostIn[0][s]
			}
			wet := pluginOut
			if inst.isGenerator {
				wet = GeneratorMix(inst.zeroInputMix, pluginOut, dry)
			}
			hostOut[ch][s] = float32(mix)*wet + float32(1-mix)*dry
		}
	}
}

func (inst *Instance) scanEventOutput(telemetry TelemetrySink) {
	if telemetry == nil {
		return
	}
	reader := atom.NewReader(inst.eventOut[:inst.native.AtomOutputLen(0)])
	for {
		ev, ok := reader.Next()
		if !ok {
			break
		}
		switch ev.Type {
		case stateChangedURID(inst.uridMap):
			telemetry.NotifyLv2StateChanged(inst.instanceID)
		case patchSetURID(inst.uridMap):
			telemetry.NotifyPatchSet(inst.instanceID, uint32(ev.Type), ev.Body)
		}
	}
}

func stateChangedURID(m *urid.Map) urid.URID {
	if m == nil {
		return 0
	}
	return m.Map("http://lv2plug.in/ns/ext/state#StateChanged")
}

func patchSetURID(m *urid.Map) urid.URID {
	if m == nil {
		return 0
	}
	return m.Map("http://lv2plug.in/ns/ext/patch#Set")
}

func (inst *Instance) resetTriggers() {
	for idx, def := range inst.triggerDefaults {
		if inst.controlValues[idx] != def {
			inst.controlValues[idx] = def
			inst.controlPtrs[idx] = def
		}
	}
}

// GatherPathPatchProperties snapshots the plugin's path-valued properties
// for the service thread, using the optional PatchPropertyProvider
// extension when the native plugin implements it.
func (inst *Instance) GatherPathPatchProperties() map[string][]byte {
	provider, ok := inst.native.(PatchPropertyProvider)
	if !ok {
		return nil
	}
	result := map[string][]byte{}
	for _, fp := range inst.bundle.FileProperties {
		propURID := inst.uridMap.Map(fp.PatchProperty)
		if body, ok := provider.PatchProperty(propURID); ok {
			result[fp.PatchProperty] = body
		}
	}
	return result
}
