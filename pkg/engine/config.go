package engine

import (
	"github.com/rerdavies/pipedal-go/pkg/pedalboard"
	"github.com/rerdavies/pipedal-go/pkg/proto"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

// VuSubscriptionConfig is the service-allocated object a SetVuSubscriptions
// command's Handle resolves to (spec.md §4.2: "config_ptr"). The service
// thread registers one of these in the engine's proto.HandleTable and sends
// the returned Handle; FreeVuSubscriptions releases it.
type VuSubscriptionConfig struct {
	Subs []pedalboard.VuSubscription
}

// MonitorPortSubscription names one control port sampled at up to
// UpdateIntervalFrames and reported through its own ack-bounded Handle
// (spec.md §4.2: "SendMonitorPortUpdate(handle, value)... per port").
type MonitorPortSubscription struct {
	EffectIndex          int
	ControlIndex         int
	Handle               proto.Handle
	UpdateIntervalFrames int

	framesSinceUpdate int
	lastValue         float64
	haveLastValue     bool
}

// MonitorPortConfig is the service-allocated object a
// SetMonitorPortSubscription command's Handle resolves to.
type MonitorPortConfig struct {
	Ports []MonitorPortSubscription
}

// ParameterRequestConfig is the service-allocated object a ParameterRequest
// command's Handle resolves to: the get/set operation pedalboard.Runtime's
// SubmitPatchRequest needs, plus an originating Handle the engine echoes
// back via ParameterRequestComplete once pedalboard.PatchResult resolves it.
type ParameterRequestConfig struct {
	EffectIndex    int
	Kind           pedalboard.RequestKind
	Property       urid.URID
	Body           []byte
	TimeoutSamples int

	// ResultBody/ResultErr are written by the engine before it emits
	// ParameterRequestComplete, mirroring the original design's "audio
	// returned data" being deposited at the request_ptr the service thread
	// already holds (spec.md §6) rather than riding along on the ack frame.
	ResultBody []byte
	ResultErr  error
}
