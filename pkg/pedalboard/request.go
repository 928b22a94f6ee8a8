package pedalboard

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

// RequestKind distinguishes the two RealtimePatchPropertyRequest shapes
// (spec.md §4.5 ProcessParameterRequests).
type RequestKind int

const (
	RequestPatchGet RequestKind = iota
	RequestPatchSet
)

// PatchRequest is one outstanding patch-property operation threaded through
// the audio thread's per-block ProcessParameterRequests pass. A PatchGet
// request sits in Runtime.pending until its RequestPatchProperty injection
// is answered by a later NotifyPatchSet, or until sampleTimeout reaches
// zero; a PatchSet request is applied synchronously by SubmitPatchRequest
// and never enters the pending list.
type PatchRequest struct {
	ID          uuid.UUID
	EffectIndex int
	Property    urid.URID
	Body        []byte
	Kind        RequestKind

	sampleTimeout int
	injected      bool
}

// PatchResult is the outcome of a PatchRequest: either the property body a
// PatchGet retrieved, or an error (request timed out, or the target effect
// index did not resolve to a real plugin instance).
type PatchResult struct {
	ID   uuid.UUID
	Body []byte
	Err  error
}

// ErrPatchRequestTimeout is returned for a PatchGet whose sampleTimeout
// reached zero before a matching NotifyPatchSet arrived.
var ErrPatchRequestTimeout = fmt.Errorf("pedalboard: patch request timed out")

// SubmitPatchRequest queues a patch-get or applies a patch-set against the
// plugin instance at effectIndex (spec.md §4.5 ProcessParameterRequests). A
// PatchSet is written immediately, raising the instance's own
// state-changed notification; a PatchGet is queued and injected into the
// instance's event-input stream on the next ProcessParameterRequests call.
// timeoutSamples bounds how long a PatchGet waits before it is reported as
// timed out.
func (rt *Runtime) SubmitPatchRequest(effectIndex int, kind RequestKind, property urid.URID, body []byte, timeoutSamples int) uuid.UUID {
	id := uuid.New()

	inst, ok := rt.pluginAt(effectIndex)
	if !ok {
		rt.completed = append(rt.completed, PatchResult{ID: id, Err: fmt.Errorf("pedalboard: effect %d is not a plugin instance", effectIndex)})
		return id
	}

	switch kind {
	case RequestPatchSet:
		inst.SetPatchProperty(property, body)
		rt.NotifyLv2StateChanged(rt.instanceIDByFX[effectIndex])
	case RequestPatchGet:
		rt.pending = append(rt.pending, &PatchRequest{
			ID:            id,
			EffectIndex:   effectIndex,
			Property:      property,
			Kind:          kind,
			sampleTimeout: timeoutSamples,
		})
	}
	return id
}

// pluginAt resolves a compiled effect index to a *plugin.Instance, failing
// for out-of-range indices and for split nodes (patch properties are an
// LV2-plugin-only concept).
func (rt *Runtime) pluginAt(effectIndex int) (*plugin.Instance, bool) {
	if effectIndex < 0 || effectIndex >= len(rt.effects) {
		return nil, false
	}
	inst, ok := rt.effects[effectIndex].(*plugin.Instance)
	return inst, ok
}

// ProcessParameterRequests is the per-block pass over the pending
// PatchRequest list (spec.md §4.5): inject each not-yet-injected PatchGet
// into its instance's event-input stream, decrement every pending
// request's timeout by frames, and report (with an error) any request
// whose timeout has elapsed. Injected requests remain pending until a
// later NotifyPatchSet resolves them or they time out.
func (rt *Runtime) ProcessParameterRequests(frames int) []PatchResult {
	remaining := rt.pending[:0]
	for _, req := range rt.pending {
		if !req.injected {
			if inst, ok := rt.pluginAt(req.EffectIndex); ok {
				inst.RequestPatchProperty(req.Property)
			}
			req.injected = true
		}

		req.sampleTimeout -= frames
		if req.sampleTimeout <= 0 {
			rt.completed = append(rt.completed, PatchResult{ID: req.ID, Err: ErrPatchRequestTimeout})
			continue
		}
		remaining = append(remaining, req)
	}
	rt.pending = remaining

	results := rt.completed
	rt.completed = nil
	return results
}
