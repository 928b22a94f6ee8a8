package midi

// Sink receives the control changes and notifications a dispatch produces.
// The pedalboard runtime implements this by writing into the target C3's
// control array and, where the mapping type calls for it, forwarding to
// the telemetry ring as MidiValueChanged.
type Sink interface {
	ApplyControl(effectIndex, controlIndex int, value float64)
	NotifyMidiValueChanged(effectIndex, controlIndex int, value float64)
}

// Dispatch processes one raw MIDI channel message (status byte plus data
// bytes) against the table, per spec.md §4.7. Messages shorter than 2
// bytes are ignored, matching "for each MIDI message of size >= 2".
func (t *Table) Dispatch(msg []byte, sink Sink) {
	if len(msg) < 2 {
		return
	}
	status := msg[0]
	channel := int(status & 0x0F)
	statusHigh := status & 0xF0

	noteOrCC := int(msg[1] & 0x7F)
	value := 0.0
	if statusHigh == 0x80 {
		// Normalize note-off to note-on with velocity 0 (spec.md §4.7
		// step 1).
		statusHigh = statusNoteOn
	} else if statusHigh == statusNoteOn {
		if len(msg) >= 3 {
			value = float64(msg[2]&0x7F) / 127.0
		}
	} else if statusHigh == statusCC {
		if len(msg) >= 3 {
			value = float64(msg[2]&0x7F) / 127.0
		}
	} else {
		return
	}

	key := uint16(statusHigh)<<8 | uint16(noteOrCC)
	isNoteEvent := statusHigh == statusNoteOn

	for i := t.lowerBound(key); i < len(t.mappings) && t.mappings[i].Key == key; i++ {
		m := &t.mappings[i]
		if m.Channel != -1 && m.Channel != channel {
			continue
		}
		dispatchOne(m, value, isNoteEvent, sink)
	}
}

func dispatchOne(m *Mapping, value float64, isNoteEvent bool, sink Sink) {
	switch m.Type {
	case Trigger:
		dispatchTrigger(m, value, isNoteEvent, sink)
	case Toggle:
		dispatchToggle(m, value, sink)
	case MomentarySwitch:
		target := m.MinValue
		if value != 0 {
			target = m.MaxValue
		}
		sink.ApplyControl(m.EffectIndex, m.ControlIndex, target)
	case Select, Dial:
		scaled := m.MinValue + value*(m.MaxValue-m.MinValue)
		if scaled != m.LastValue {
			m.LastValue = scaled
			sink.ApplyControl(m.EffectIndex, m.ControlIndex, scaled)
			sink.NotifyMidiValueChanged(m.EffectIndex, m.ControlIndex, scaled)
		}
	}
}

// dispatchTrigger never notifies: a trigger port resets to its default on
// the following block regardless (plugin.Instance.Run resets trigger
// controls at the end of each block), so the service thread has nothing
// useful to learn from
// a MidiValueChanged here.
func dispatchTrigger(m *Mapping, value float64, isNoteEvent bool, sink Sink) {
	if m.SubType == SubTypeOnRisingEdge || isNoteEvent {
		rising := value != 0 && m.LastValue == 0
		m.LastValue = value
		if !rising {
			return
		}
		target := m.MaxValue
		if m.DefaultValue == m.MaxValue {
			target = m.MinValue
		}
		sink.ApplyControl(m.EffectIndex, m.ControlIndex, target)
		return
	}
	sink.ApplyControl(m.EffectIndex, m.ControlIndex, m.MaxValue)
}

// dispatchToggle uses Rising to hold the toggle's current on/off state
// (true once it has been switched to MaxValue) and LastValue purely to
// detect a rising edge in the raw incoming value.
func dispatchToggle(m *Mapping, value float64, sink Sink) {
	switch m.SubType {
	case SubTypeOnRisingEdge:
		rising := value != 0 && m.LastValue == 0
		m.LastValue = value
		if !rising {
			return
		}
		m.Rising = !m.Rising
	case SubTypeOnValue:
		scaled := m.MinValue + value*(m.MaxValue-m.MinValue)
		if scaled == m.LastValue {
			return
		}
		m.LastValue = scaled
		sink.ApplyControl(m.EffectIndex, m.ControlIndex, scaled)
		sink.NotifyMidiValueChanged(m.EffectIndex, m.ControlIndex, scaled)
		return
	default:
		// "the default behavior flips on any event."
		m.Rising = !m.Rising
	}
	next := m.MinValue
	if m.Rising {
		next = m.MaxValue
	}
	sink.ApplyControl(m.EffectIndex, m.ControlIndex, next)
	sink.NotifyMidiValueChanged(m.EffectIndex, m.ControlIndex, next)
}
