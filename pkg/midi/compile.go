package midi

import "github.com/rerdavies/pipedal-go/pkg/plugin"

// Resolve derives a compiled Mapping from a declared Binding, the target
// port's metadata, and the effect/control indices the pedalboard compiler
// assigned (spec.md §4.5 step 4: "locate the target PortInfo, compute the
// sort key, determine the mapping type from port flags ... append to the
// midi-mappings vector").
func Resolve(b Binding, port plugin.PortInfo, effectIndex, controlIndex int) Mapping {
	minValue, maxValue := port.Min, port.Max
	if b.MinValue != b.MaxValue {
		minValue, maxValue = b.MinValue, b.MaxValue
	}

	return Mapping{
		Key:          b.Key(),
		Channel:      b.Channel,
		EffectIndex:  effectIndex,
		ControlIndex: controlIndex,
		Type:         mappingTypeFor(port),
		SubType:      b.SubType,
		MinValue:     minValue,
		MaxValue:     maxValue,
		DefaultValue: port.Default,
	}
}

// mappingTypeFor determines the mapping semantics from port flags (spec.md
// §4.5 step 4): momentary-on-by-default or momentary-off-by-default ->
// MomentarySwitch; trigger -> Trigger; toggled -> Toggle; enumeration ->
// Select; else Dial.
func mappingTypeFor(port plugin.PortInfo) Type {
	switch {
	case port.Flags.Has(plugin.FlagMomentaryOnByDefault), port.Flags.Has(plugin.FlagMomentaryOffByDefault):
		return MomentarySwitch
	case port.Flags.Has(plugin.FlagTrigger):
		return Trigger
	case port.Flags.Has(plugin.FlagToggled):
		return Toggle
	case port.Flags.Has(plugin.FlagEnumeration):
		return Select
	default:
		return Dial
	}
}
