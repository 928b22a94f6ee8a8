package plugin

import (
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

// NativePlugin is the plugin runtime contract (spec.md §6): instantiate with
// sample rate and features, connect ports by index, activate/deactivate,
// run a block. Everything beyond this minimal surface is reached through
// the optional extension interfaces below, checked with a type assertion
// instead of a C ABI extension-negotiation call.
type NativePlugin interface {
	ConnectAudioIn(index int, buf []float32)
	ConnectAudioOut(index int, buf []float32)
	ConnectControl(index int, value *float64)
	ConnectAtomIn(index int, buf []byte)
	ConnectAtomOut(index int, buf []byte)
	// AtomOutputLen reports how many bytes of the buffer most recently
	// passed to ConnectAtomOut(index, ...) the plugin actually wrote
	// during the last Run. The host has no chunk-header convention of
	// its own to lean on, so it asks the plugin directly.
	AtomOutputLen(index int) int
	Activate()
	Deactivate()
	Run(frames int)
}

// Worker is implemented by plugins that declare the LV2 worker interface
// (C6). Work is called on the host worker thread, never on the audio
// thread; WorkResponse delivers the result back on a later audio block,
// once pkg/worker.Worker.EmitResponses has drained it from the reply ring.
type Worker interface {
	Work(request []byte) (response []byte)
	WorkResponse(response []byte)
}

// WorkScheduler is the callback signature a plugin calls through to
// offload work to the host's worker thread (spec.md §4.6:
// "schedule_work(size, data) is called from the audio thread"). It
// returns false if the request queue had no room; the plugin retries
// later the way the LV2 worker spec expects a rejected schedule_work call
// to be retried.
type WorkScheduler func(request []byte) bool

// WorkSchedulingPlugin is implemented by plugins that declare the LV2
// worker interface and need a way to reach schedule_work from inside Run.
type WorkSchedulingPlugin interface {
	AttachWorkScheduler(schedule WorkScheduler)
}

// StateSaver/StateRestorer are implemented by plugins that declare LV2
// state save/restore.
type StateSaver interface {
	SaveState() ([]byte, error)
}

type StateRestorer interface {
	RestoreState(data []byte) error
}

// LogSink is the callback signature a plugin calls through to emit a log
// message at the given severity (spec.md §4.3.3).
type LogSink func(severity pplog.Severity, message string)

// LoggingPlugin is implemented by plugins that want their log calls routed
// through the host's per-instance error capture instead of writing
// directly to stderr.
type LoggingPlugin interface {
	AttachLogSink(sink LogSink)
}

// PatchPropertyProvider is implemented by plugins that support ad hoc
// patch:Get requests for path-valued (or other) properties outside the
// regular control-port surface.
type PatchPropertyProvider interface {
	PatchProperty(property urid.URID) (body []byte, ok bool)
}

// Loader resolves a plugin URI to its bundle metadata and produces a fresh
// NativePlugin instance. It is an external collaborator (spec.md §6) —
// LV2 bundle discovery itself is out of scope; the host is only required
// to drive whatever Loader it is given.
type Loader interface {
	Load(uri string) (BundleInfo, error)
	Instantiate(uri string, features Features) (NativePlugin, error)
}
