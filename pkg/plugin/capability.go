package plugin

// Effect is the narrow capability set the pedalboard runtime (C5) drives
// against every graph node, whether it is a real plugin Instance or a
// pkg/split.Split (spec.md §9 redesign note: "a tagged variant over a
// narrow shared capability set" replaces subclassing a common base).
type Effect interface {
	Activate()
	Deactivate()
	Run(frames int, telemetry TelemetrySink)
	SetControl(symbol string, value float64)
	SetBypass(enabled bool)
	AudioInBuffer(index int) []float32
	AudioOutBuffer(index int) []float32
	TakeError() (string, bool)
}

// TelemetrySink is the narrow callback the audio thread uses to relay
// patch-set / state-changed events discovered in a plugin's event output,
// without pkg/plugin depending on pkg/proto directly.
type TelemetrySink interface {
	NotifyLv2StateChanged(instanceID int)
	NotifyPatchSet(instanceID int, property uint32, body []byte)
}
