package engine

import (
	"github.com/rerdavies/pipedal-go/pkg/pedalboard"
	"github.com/rerdavies/pipedal-go/pkg/proto"
)

// Engine implements proto.CommandHandler so CommandReader.Drain can call
// straight into it; every method below is only ever invoked from OnProcess,
// i.e. on the driver's callback thread, in arrival order (spec.md §5
// ordering guarantee 1).

// OnReplacePedalboard installs a newly compiled runtime in place of
// whichever one is currently running (spec.md §4.2, §4.5). The outgoing
// runtime's non-borrowed instances are deactivated and its handle is
// handed back via PedalboardReplaced once the audio thread no longer
// references it -- which, on a single engine goroutine, is immediately:
// the swap below is the last statement that touches the old Runtime.
func (e *Engine) OnReplacePedalboard(runtimePtr proto.Handle) {
	v, ok := e.handles.Resolve(runtimePtr)
	if !ok {
		return
	}
	rt, ok := v.(*pedalboard.Runtime)
	if !ok {
		return
	}

	if e.rt != nil {
		e.rt.Deactivate()
		e.pipe.EventWriter().PedalboardReplaced(e.rtHandle)
		e.handles.Release(e.rtHandle)
	}

	rt.Activate()
	rt.UpdateAudioPorts()
	e.rt = rt
	e.rtHandle = runtimePtr
}

func (e *Engine) OnSetControl(effectIndex, controlIndex int32, value float64) {
	if e.rt == nil {
		return
	}
	e.rt.SetControl(int(effectIndex), int(controlIndex), value)
}

func (e *Engine) OnSetBypass(effectIndex int32, enabled bool) {
	if e.rt == nil {
		return
	}
	e.rt.SetBypass(int(effectIndex), enabled)
}

func (e *Engine) OnSetInputVolume(db float64) {
	if e.rt == nil {
		return
	}
	e.rt.SetInputVolume(db)
}

func (e *Engine) OnSetOutputVolume(db float64) {
	if e.rt == nil {
		return
	}
	e.rt.SetOutputVolume(db)
}

// OnSetVuSubscriptions installs a new VU subscription list (spec.md §4.2:
// "config_ptr"). The previous list, if any, is left registered in the
// handle table until the matching FreeVuSubscriptions arrives -- the
// service thread owns that lifetime, not the engine.
func (e *Engine) OnSetVuSubscriptions(configPtr proto.Handle) {
	v, ok := e.handles.Resolve(configPtr)
	if !ok {
		return
	}
	cfg, ok := v.(*VuSubscriptionConfig)
	if !ok {
		return
	}
	e.vuSubs = cfg.Subs
}

func (e *Engine) OnFreeVuSubscriptions(configPtr proto.Handle) {
	e.vuSubs = nil
	e.handles.Release(configPtr)
}

func (e *Engine) OnSetMonitorPortSubscription(listPtr proto.Handle) {
	v, ok := e.handles.Resolve(listPtr)
	if !ok {
		return
	}
	cfg, ok := v.(*MonitorPortConfig)
	if !ok {
		return
	}
	e.monitorPorts = cfg.Ports
}

func (e *Engine) OnFreeMonitorPortSubscription(listPtr proto.Handle) {
	e.monitorPorts = nil
	e.handles.Release(listPtr)
}

func (e *Engine) OnAckVuUpdate() {
	e.pipe.EventWriter().AckVuUpdate()
}

func (e *Engine) OnAckMonitorPortUpdate(handle proto.Handle) {
	e.pipe.EventWriter().AckMonitorPortUpdate(handle)
}

// OnParameterRequest submits a patch get/set against the installed runtime
// (spec.md §4.2 ParameterRequest). A set is applied synchronously inside
// SubmitPatchRequest, so nothing further is tracked for it; a get is
// asynchronous and is tracked in paramRequests until a later
// ProcessParameterRequests pass resolves or times it out.
func (e *Engine) OnParameterRequest(requestPtr proto.Handle) {
	if e.rt == nil {
		return
	}
	v, ok := e.handles.Resolve(requestPtr)
	if !ok {
		return
	}
	cfg, ok := v.(*ParameterRequestConfig)
	if !ok {
		return
	}

	id := e.rt.SubmitPatchRequest(cfg.EffectIndex, cfg.Kind, cfg.Property, cfg.Body, cfg.TimeoutSamples)
	if cfg.Kind == pedalboard.RequestPatchGet {
		e.paramRequests[id] = pendingParamRequest{handle: requestPtr, cfg: cfg}
	}
}

// OnMidiProgramChange and OnNextMidiProgram are drained so the command
// ring never backs up on them, but bank/program storage is an external
// collaborator (spec.md §1 Non-goals: "filesystem-based preset and bank
// storage"); the engine's contribution ends at consuming the command.
func (e *Engine) OnMidiProgramChange(program int32) {}
func (e *Engine) OnNextMidiProgram(direction int32) {}
