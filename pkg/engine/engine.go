package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rerdavies/pipedal-go/pkg/pedalboard"
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/proto"
)

// underrunGracePeriod is the startup window during which driver-reported
// XRuns are absorbed rather than counted (spec.md §4.8 step 7, §8 property
// 9: "clear the underrun counter during the grace window").
const underrunGracePeriod = 15 * time.Second

// pendingParamRequest correlates a PatchRequest's internal uuid (assigned
// by pedalboard.Runtime.SubmitPatchRequest) back to the originating Handle
// and service-owned config object, so a later PatchResult can be routed to
// the right ParameterRequestComplete.
type pendingParamRequest struct {
	handle proto.Handle
	cfg    *ParameterRequestConfig
}

// Engine owns the per-block loop (C8): it implements proto.CommandHandler
// so CommandReader.Drain can dispatch directly into it, drives MIDI
// dispatch and the pedalboard Run, and emits ack-bounded telemetry. One
// Engine is driven exclusively from the driver's callback thread; nothing
// here is safe to call concurrently with OnProcess.
type Engine struct {
	driver  Driver
	pipe    *proto.Pipe
	handles *proto.HandleTable
	log     *pplog.Logger

	rt       *pedalboard.Runtime
	rtHandle proto.Handle

	vuSubs       []pedalboard.VuSubscription
	monitorPorts []MonitorPortSubscription

	// vuSnapshot is overwritten in place every block that emits a VU
	// update; vuHandle names it and is registered exactly once, in
	// NewEngine, so OnProcess never calls HandleTable.Register on the
	// driver callback thread.
	vuSnapshot []pedalboard.VuSample
	vuHandle   proto.Handle

	paramRequests map[uuid.UUID]pendingParamRequest

	driverIn  [][]float32
	driverOut [][]float32

	activatedAt      time.Time
	underrunBaseline uint64

	stopped bool
}

// NewEngine wires a Driver to a command/telemetry Pipe. The driver's input
// and output buffer counts are read once here to size the per-block buffer
// slot slices; OnProcess only ever overwrites their elements, never grows
// them, so filling these slices never allocates. Other per-block steps do
// allocate: ComputeVus and ProcessParameterRequests build new slices each
// block.
func NewEngine(driver Driver, pipe *proto.Pipe, handles *proto.HandleTable, log *pplog.Logger) *Engine {
	e := &Engine{
		driver:        driver,
		pipe:          pipe,
		handles:       handles,
		log:           log,
		paramRequests: make(map[uuid.UUID]pendingParamRequest),
		driverIn:      make([][]float32, driver.InputBufferCount()),
		driverOut:     make([][]float32, driver.OutputBufferCount()),
	}
	e.vuHandle = handles.Register(&e.vuSnapshot)
	return e
}

// Activate opens the driver and starts the underrun grace period.
func (e *Engine) Activate() error {
	if err := e.driver.Activate(); err != nil {
		return err
	}
	e.activatedAt = time.Now()
	e.underrunBaseline = e.driver.XRunCount()
	e.stopped = false
	return nil
}

// Deactivate mirrors Deactivate to the installed runtime, then the driver.
func (e *Engine) Deactivate() error {
	if e.rt != nil {
		e.rt.Deactivate()
	}
	return e.driver.Deactivate()
}

// Close releases the driver. The caller owns the Pipe and closes it
// separately once the service thread has joined the audio callback.
func (e *Engine) Close() error {
	return e.driver.Close()
}

// HandleAudioStopped is wired to the driver's onAudioStopped callback
// (spec.md §4.8: "the driver signals onAudioStopped; C8 emits AudioStopped
// and stops consuming commands"). Commands submitted after this point
// accumulate in the ring until a fresh driver session installs a new
// pedalboard.
func (e *Engine) HandleAudioStopped() {
	e.stopped = true
	e.pipe.EventWriter().AudioStopped()
}

// OnProcess runs one host audio block (spec.md §4.8): drain commands, feed
// MIDI into C7, run the pedalboard, emit telemetry, account for the
// underrun grace period. Called from the driver's own callback thread.
func (e *Engine) OnProcess(frames int) {
	if e.stopped {
		return
	}

	e.pipe.CommandReader().Drain(e)

	if e.rt != nil {
		e.fillDriverBuffers(frames)
		e.dispatchMidi()
		e.rt.Run(e.driverIn, e.driverOut, frames, e.pipe.EventWriter())
		e.emitTelemetry(frames)
		e.emitParameterResults(frames)
	}

	e.accountUnderruns()
}

func (e *Engine) fillDriverBuffers(frames int) {
	for i := range e.driverIn {
		e.driverIn[i] = e.driver.InputBuffer(i, frames)
	}
	for i := range e.driverOut {
		e.driverOut[i] = e.driver.OutputBuffer(i, frames)
	}
}

// dispatchMidi reads every driver MIDI-input port and feeds each message
// through the installed runtime's compiled mapping table (spec.md §4.8 step
// 3: "fill plugin MIDI event-input buffers ... and run C7"; normalization
// of note-off is pkg/midi.Table.Dispatch's concern, not the engine's).
func (e *Engine) dispatchMidi() {
	for buf := 0; buf < e.driver.MidiInputBufferCount(); buf++ {
		for _, ev := range e.driver.MidiInputEvents(buf) {
			if len(ev.Data) < 2 {
				continue
			}
			e.rt.DispatchMidi(ev.Data, e.rt)
		}
	}
}

// emitTelemetry computes and sends VU updates and monitor-port updates,
// each gated by its own waiting-for-ack flag (spec.md §4.2 flow control,
// §8 property 8: "never > 1" in-flight update of a given kind).
func (e *Engine) emitTelemetry(frames int) {
	ew := e.pipe.EventWriter()

	if len(e.vuSubs) > 0 && !ew.VuWaiting() {
		// e.vuHandle was registered once in NewEngine and always resolves
		// to &e.vuSnapshot; overwriting it here is safe because VuWaiting
		// guarantees the service thread has already consumed (and acked)
		// whatever this handle pointed to last time it was sent.
		e.vuSnapshot = e.rt.ComputeVus(e.vuSubs, frames, e.driverIn, e.driverOut)
		ew.SendVuUpdate(e.vuHandle)
	}

	for i := range e.monitorPorts {
		p := &e.monitorPorts[i]
		p.framesSinceUpdate += frames
		if p.framesSinceUpdate < p.UpdateIntervalFrames {
			continue
		}
		value, ok := e.rt.ControlValueByIndex(p.EffectIndex, p.ControlIndex)
		if !ok {
			continue
		}
		if p.haveLastValue && p.lastValue == value {
			p.framesSinceUpdate = 0
			continue
		}
		if ew.SendMonitorPortUpdate(p.Handle, value) {
			p.framesSinceUpdate = 0
			p.lastValue = value
			p.haveLastValue = true
		}
	}
}

// emitParameterResults drains the installed runtime's completed
// PatchRequest list and completes whichever of them this engine is still
// tracking (spec.md §4.5 ProcessParameterRequests). A PatchSet that
// applied without error never reaches this list at all -- it already
// happened synchronously inside OnParameterRequest -- so it is never
// tracked in paramRequests in the first place; a PatchSet that failed is
// intentionally left unacked, a documented simplification (see DESIGN.md).
func (e *Engine) emitParameterResults(frames int) {
	for _, res := range e.rt.ProcessParameterRequests(frames) {
		pending, ok := e.paramRequests[res.ID]
		if !ok {
			continue
		}
		delete(e.paramRequests, res.ID)
		pending.cfg.ResultBody = res.Body
		pending.cfg.ResultErr = res.Err
		e.pipe.EventWriter().ParameterRequestComplete(pending.handle)
	}
}

// accountUnderruns implements spec.md §4.8 step 7 and §8 property 9: during
// the first 15 seconds after Activate, the driver's XRun counter is
// tracked but never surfaced; once the grace window elapses, every further
// increase is forwarded to the Pipe's underrun counter one at a time.
func (e *Engine) accountUnderruns() {
	current := e.driver.XRunCount()
	if time.Now().Before(e.activatedAt.Add(underrunGracePeriod)) {
		e.underrunBaseline = current
		return
	}
	for ; e.underrunBaseline < current; e.underrunBaseline++ {
		e.pipe.RecordUnderrun()
	}
}
