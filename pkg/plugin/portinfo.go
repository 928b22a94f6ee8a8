// Package plugin implements the per-instance plugin wrapper (C3): port
// metadata, control-value storage, buffer-size adaptation, the soft-bypass
// mixer, and the narrow Effect capability shared with pkg/split so the
// pedalboard runtime can treat either kind of graph node identically
// (spec.md §9: "a tagged variant ... behind a narrow shared capability set").
package plugin

import "github.com/rerdavies/pipedal-go/pkg/worker"

// Unit closes over the handful of control-port units the host cares about
// for display and dB/linear conversion; anything else maps to UnitNone.
type Unit int

const (
	UnitNone Unit = iota
	UnitDB
	UnitHz
	UnitMs
	UnitSeconds
	UnitSemitone
	UnitRatio
	UnitPercent
)

// PortDirection is In or Out.
type PortDirection int

const (
	DirectionInput PortDirection = iota
	DirectionOutput
)

// PortKind distinguishes the four LV2 port classes the host understands.
type PortKind int

const (
	KindAudio PortKind = iota
	KindControl
	KindAtom
	KindCV
)

// PortFlags are independent bits describing a control port's UI semantics.
type PortFlags uint8

const (
	FlagToggled PortFlags = 1 << iota
	FlagEnumeration
	FlagTrigger
	FlagMomentaryOnByDefault
	FlagMomentaryOffByDefault
	FlagSupportsMIDI
)

func (f PortFlags) Has(flag PortFlags) bool { return f&flag != 0 }

// ScalePoint is one named value in a control port's enumeration.
type ScalePoint struct {
	Label string
	Value float64
}

// PortInfo describes one port of a plugin bundle, discovered externally and
// consumed read-only by the core (spec.md §6).
type PortInfo struct {
	Index       int
	Symbol      string
	Name        string
	Direction   PortDirection
	Kind        PortKind
	Min         float64
	Max         float64
	Default     float64
	Flags       PortFlags
	ScalePoints []ScalePoint
	Unit        Unit
}

// ControlValue is a (symbol, value) pair as stored in a pedalboard item's
// configuration and as reported in MidiValueChanged / ParameterRequestComplete.
type ControlValue struct {
	Symbol string
	Value  float64
}

// FileProperty names a path-valued patch property the plugin declares for
// the UI's file browser (spec.md §4.3: "file-browser-files if declared").
type FileProperty struct {
	PatchProperty string
	Directory     string
	Patterns      []string
}

// BundleInfo is the plugin bundle metadata discovered externally (LV2
// filesystem scan is explicitly out of scope, spec.md §1) and handed to
// Construct by whatever Loader the host wires in.
type BundleInfo struct {
	URI                   string
	Name                  string
	Author                string
	Ports                 []PortInfo
	HasWorker             bool
	HasState              bool
	HasDefaultState       bool
	MinBlockLength        int
	MaxBlockLength        int
	PowerOfTwoBlockLength bool
	AtomBufferSize        int
	FileProperties        []FileProperty
}

// Features bundles per-instance construction features described in
// spec.md §4.3: sample-rate/block-length options, a storage root for
// make-path/map-path/free-path, and the shared worker. The URID map and
// the logger are separate Construct arguments.
type Features struct {
	SampleRate         float64
	NominalBlockLength int
	StorageDir         string

	// HostWorker is the shared C6 worker thread a plugin declaring
	// HasWorker is attached to (spec.md §4.3: "worker schedule if the
	// plugin declares the worker interface"). Nil disables worker offload
	// even for a plugin that declares it.
	HostWorker *worker.HostWorker
}
