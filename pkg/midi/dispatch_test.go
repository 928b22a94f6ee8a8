package midi

import "testing"

type recordingSink struct {
	applies       []Mapping
	values        []float64
	notifications int
}

func (s *recordingSink) ApplyControl(effectIndex, controlIndex int, value float64) {
	s.applies = append(s.applies, Mapping{EffectIndex: effectIndex, ControlIndex: controlIndex})
	s.values = append(s.values, value)
}

func (s *recordingSink) NotifyMidiValueChanged(effectIndex, controlIndex int, value float64) {
	s.notifications++
}

func TestBinarySearchFindsLowestMatchingKey(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0x9040, EffectIndex: 2},
		{Key: 0x9040, EffectIndex: 1, Channel: -1},
		{Key: 0xB007, EffectIndex: 3},
	})
	sink := &recordingSink{}
	// Note-on, note 0x40, velocity 100, channel 0.
	tbl.Dispatch([]byte{0x90, 0x40, 100}, sink)
	if len(sink.applies) != 2 {
		t.Fatalf("expected both same-key mappings dispatched, got %d", len(sink.applies))
	}
}

func TestNoteOffNormalizesToNoteOnZeroVelocity(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0x9040, Channel: -1, Type: Trigger, MaxValue: 1, DefaultValue: 0},
	})
	sink := &recordingSink{}
	// Note-off message: status 0x80.
	tbl.Dispatch([]byte{0x80, 0x40, 0}, sink)
	if len(sink.applies) != 0 {
		t.Fatalf("a note-off carries velocity 0, so no rising edge should fire: got %d applies", len(sink.applies))
	}
}

func TestChannelFilterExcludesNonMatchingChannel(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0xB007, Channel: 3, Type: Dial, MinValue: 0, MaxValue: 1},
	})
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0xB0, 0x07, 64}, sink) // channel 0
	if len(sink.applies) != 0 {
		t.Fatal("expected the channel-3-only mapping to be skipped for a channel-0 message")
	}
	tbl.Dispatch([]byte{0xB3, 0x07, 64}, sink) // channel 3
	if len(sink.applies) != 1 {
		t.Fatal("expected the mapping to fire for its own channel")
	}
}

func TestTriggerRisingEdgeSetsMaxValueUnlessDefaultIsMax(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0xB007, Channel: -1, Type: Trigger, SubType: SubTypeOnRisingEdge, MinValue: 0, MaxValue: 1, DefaultValue: 0},
	})
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0xB0, 0x07, 0}, sink) // below threshold, no rising edge yet
	tbl.Dispatch([]byte{0xB0, 0x07, 100}, sink)
	if len(sink.applies) != 1 || sink.values[0] != 1 {
		t.Fatalf("expected one trigger application to MaxValue, got %v", sink.values)
	}
	if sink.notifications != 0 {
		t.Fatal("trigger dispatch must never notify")
	}
}

func TestToggleOnRisingEdgeFlipsOncePerPress(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0x9040, Channel: -1, Type: Toggle, SubType: SubTypeOnRisingEdge, MinValue: 0, MaxValue: 1},
	})
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0x90, 0x40, 100}, sink) // press: rising edge -> on
	tbl.Dispatch([]byte{0x80, 0x40, 0}, sink)   // release: no flip
	tbl.Dispatch([]byte{0x90, 0x40, 100}, sink) // press again: flip -> off
	if len(sink.values) != 2 {
		t.Fatalf("expected exactly 2 flips for 2 presses, got %d", len(sink.values))
	}
	if sink.values[0] != 1 || sink.values[1] != 0 {
		t.Fatalf("expected on then off, got %v", sink.values)
	}
}

func TestMomentarySwitchTracksPressedState(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0x9040, Channel: -1, Type: MomentarySwitch, MinValue: 0, MaxValue: 1},
	})
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0x90, 0x40, 100}, sink)
	tbl.Dispatch([]byte{0x80, 0x40, 0}, sink)
	if len(sink.values) != 2 || sink.values[0] != 1 || sink.values[1] != 0 {
		t.Fatalf("expected pressed=max then released=min, got %v", sink.values)
	}
	if sink.notifications != 0 {
		t.Fatal("momentary switch dispatch must never notify")
	}
}

func TestDialScalesAndNotifiesOnChange(t *testing.T) {
	tbl := NewTable([]Mapping{
		{Key: 0xB007, Channel: -1, Type: Dial, MinValue: 0, MaxValue: 100},
	})
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0xB0, 0x07, 127}, sink)
	if len(sink.values) != 1 || sink.values[0] != 100 {
		t.Fatalf("expected full-scale CC to map to 100, got %v", sink.values)
	}
	if sink.notifications != 1 {
		t.Fatal("expected exactly one MidiValueChanged notification")
	}
	tbl.Dispatch([]byte{0xB0, 0x07, 127}, sink)
	if len(sink.values) != 1 {
		t.Fatal("expected an unchanged value to not re-dispatch")
	}
}

func TestShortMessagesAreIgnored(t *testing.T) {
	tbl := NewTable(nil)
	sink := &recordingSink{}
	tbl.Dispatch([]byte{0x90}, sink)
	if len(sink.values) != 0 {
		t.Fatal("a single-byte message must be ignored")
	}
}
