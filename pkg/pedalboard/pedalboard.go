// Package pedalboard implements the pedalboard compiler and runtime (C5):
// the declarative graph a session describes, the recursive compile pass
// that turns it into a flat list of audio-thread process actions, and the
// per-block runtime operations (Run, ComputeVus, patch-property requests)
// that drive it. Grounded on clapgo's manifest->runtime compile shape
// (pkg/manifest) and its instance-registry reuse pattern (internal/registry),
// both retargeted from "one plugin's manifest" to "a whole graph of them".
package pedalboard

import (
	"github.com/rerdavies/pipedal-go/pkg/midi"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/split"
)

// Reserved instance-ids for the input-volume and output-volume VU nodes
// (spec.md §3: "two reserved ids designate the input-volume VU node and
// the output-volume VU node").
const (
	InputVolumeEffectIndex  = -1
	OutputVolumeEffectIndex = -2
)

// ItemKind distinguishes the three graph-node shapes a Pedalboard can hold.
type ItemKind int

const (
	ItemEmpty ItemKind = iota
	ItemPlugin
	ItemSplit
)

// Item is one declarative graph node (spec.md §3 Pedalboard). Fields not
// relevant to Kind are left zero; Compile ignores them.
type Item struct {
	InstanceID int
	Kind       ItemKind
	Enabled    bool

	// ItemPlugin fields.
	URI            string
	ControlValues  []plugin.ControlValue
	StateBlob      []byte
	MidiBindings   []midi.Binding
	PathProperties map[string][]byte

	// ItemSplit fields.
	SplitType     split.Type
	SplitControls []plugin.ControlValue // splitType/select/mix/panL/volL/panR/volR
	Top, Bottom   []Item
}

// Pedalboard is the ordered, declarative description of a signal chain
// (spec.md §3). It is owned by the service thread; Compile turns a
// snapshot of it into a Runtime handed to the audio thread.
type Pedalboard struct {
	Name           string
	Items          []Item
	InputVolumeDB  float64
	OutputVolumeDB float64

	nextInstanceID int
}

// NewPedalboard creates an empty, named pedalboard with volumes at unity.
func NewPedalboard(name string) *Pedalboard {
	return &Pedalboard{Name: name}
}

// NextInstanceID returns a fresh instance-id, unique within this
// pedalboard (spec.md §3: "monotonic next_instance_id counter").
func (p *Pedalboard) NextInstanceID() int {
	p.nextInstanceID++
	return p.nextInstanceID
}
