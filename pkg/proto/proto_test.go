package proto

import "testing"

// capturingHandler implements CommandHandler, recording call order and
// optionally capturing SetControl payloads for value assertions.
type capturingHandler struct {
	order        []string
	onSetControl func(SetControlPayload)
}

func (h *capturingHandler) OnReplacePedalboard(runtimePtr Handle) {
	h.order = append(h.order, "ReplacePedalboard")
}
func (h *capturingHandler) OnSetControl(effectIndex, controlIndex int32, value float64) {
	h.order = append(h.order, "SetControl")
	if h.onSetControl != nil {
		h.onSetControl(SetControlPayload{EffectIndex: effectIndex, ControlIndex: controlIndex, Value: value})
	}
}
func (h *capturingHandler) OnSetBypass(effectIndex int32, enabled bool) {
	h.order = append(h.order, "SetBypass")
}
func (h *capturingHandler) OnSetInputVolume(db float64)                  {}
func (h *capturingHandler) OnSetOutputVolume(db float64)                 {}
func (h *capturingHandler) OnSetVuSubscriptions(configPtr Handle)        {}
func (h *capturingHandler) OnFreeVuSubscriptions(configPtr Handle)       {}
func (h *capturingHandler) OnSetMonitorPortSubscription(listPtr Handle)  {}
func (h *capturingHandler) OnFreeMonitorPortSubscription(listPtr Handle) {}
func (h *capturingHandler) OnAckVuUpdate()                               {}
func (h *capturingHandler) OnAckMonitorPortUpdate(handle Handle)         {}
func (h *capturingHandler) OnParameterRequest(requestPtr Handle)         {}
func (h *capturingHandler) OnMidiProgramChange(program int32)            {}
func (h *capturingHandler) OnNextMidiProgram(direction int32)            {}

func TestCommandRoundTripPreservesOrderAndValues(t *testing.T) {
	p, err := NewPipe(4096, 4096, false)
	if err != nil {
		t.Fatal(err)
	}
	w := p.CommandWriter()
	if !w.SetControl(3, 7, 0.5) {
		t.Fatal("write rejected")
	}
	if !w.SetBypass(3, true) {
		t.Fatal("write rejected")
	}
	if !w.ReplacePedalboard(Handle(42)) {
		t.Fatal("write rejected")
	}

	var got []SetControlPayload
	h := &capturingHandler{onSetControl: func(p SetControlPayload) { got = append(got, p) }}
	n := p.CommandReader().Drain(h)
	if n != 3 {
		t.Fatalf("expected 3 frames drained, got %d", n)
	}
	if len(got) != 1 || got[0].EffectIndex != 3 || got[0].ControlIndex != 7 || got[0].Value != 0.5 {
		t.Fatalf("SetControl payload mismatch: %+v", got)
	}
	if len(h.order) != 3 || h.order[0] != "SetControl" || h.order[1] != "SetBypass" || h.order[2] != "ReplacePedalboard" {
		t.Fatalf("expected FIFO order, got %v", h.order)
	}
}

type recordingEventHandler struct {
	vuUpdates      int
	monitorUpdates int

	onAtomOutput func(instanceID int32, body []byte)
}

func (h *recordingEventHandler) OnPedalboardReplaced(oldRuntimePtr Handle) {}
func (h *recordingEventHandler) OnVuUpdate(snapshotPtr Handle)             { h.vuUpdates++ }
func (h *recordingEventHandler) OnMonitorPortUpdate(handle Handle, value float64) {
	h.monitorUpdates++
}
func (h *recordingEventHandler) OnAtomOutput(instanceID int32, body []byte) {
	if h.onAtomOutput != nil {
		h.onAtomOutput(instanceID, body)
	}
}
func (h *recordingEventHandler) OnLv2StateChanged(instanceID int32)      {}
func (h *recordingEventHandler) OnMaybeLv2StateChanged(instanceID int32) {}
func (h *recordingEventHandler) OnMidiValueChanged(instanceID, controlIndex int32, value float64) {
}
func (h *recordingEventHandler) OnMidiListen(isNote bool, noteOrCC int32)        {}
func (h *recordingEventHandler) OnParameterRequestComplete(requestPtr Handle)    {}
func (h *recordingEventHandler) OnAudioStopped()                                {}
func (h *recordingEventHandler) OnLv2ErrorMessage(instanceID int32, text string) {}

func TestVuUpdateFlowControlSuppressesUntilAck(t *testing.T) {
	p, err := NewPipe(4096, 4096, false)
	if err != nil {
		t.Fatal(err)
	}
	ew := p.EventWriter()

	if !ew.SendVuUpdate(Handle(1)) {
		t.Fatal("first SendVuUpdate should succeed")
	}
	if ew.SendVuUpdate(Handle(2)) {
		t.Fatal("second SendVuUpdate should be suppressed while waiting for ack")
	}
	if !ew.VuWaiting() {
		t.Fatal("expected VuWaiting to be true")
	}

	ew.AckVuUpdate()
	if ew.VuWaiting() {
		t.Fatal("expected VuWaiting to clear after ack")
	}
	if !ew.SendVuUpdate(Handle(3)) {
		t.Fatal("SendVuUpdate should succeed again after ack")
	}

	h := &recordingEventHandler{}
	n := p.EventReader().Drain(h)
	if n != 2 {
		t.Fatalf("expected 2 frames (the suppressed update never reached the ring), got %d", n)
	}
	if h.vuUpdates != 2 {
		t.Fatalf("expected 2 decoded VU updates, got %d", h.vuUpdates)
	}
}

func TestMonitorPortUpdateFlowControlIsPerHandle(t *testing.T) {
	p, err := NewPipe(4096, 4096, false)
	if err != nil {
		t.Fatal(err)
	}
	ew := p.EventWriter()

	if !ew.SendMonitorPortUpdate(Handle(10), 1.0) {
		t.Fatal("first update for handle 10 should succeed")
	}
	if !ew.SendMonitorPortUpdate(Handle(20), 2.0) {
		t.Fatal("update for a different handle should not be gated by handle 10")
	}
	if ew.SendMonitorPortUpdate(Handle(10), 3.0) {
		t.Fatal("second update for handle 10 should be suppressed while waiting for ack")
	}

	ew.AckMonitorPortUpdate(Handle(10))
	if !ew.SendMonitorPortUpdate(Handle(10), 4.0) {
		t.Fatal("update for handle 10 should succeed again after its ack")
	}

	h := &recordingEventHandler{}
	n := p.EventReader().Drain(h)
	if n != 3 {
		t.Fatalf("expected 3 frames, got %d", n)
	}
	if h.monitorUpdates != 3 {
		t.Fatalf("expected 3 decoded monitor updates, got %d", h.monitorUpdates)
	}
}

func TestUnderrunIsCounterOnlyNotFramed(t *testing.T) {
	p, err := NewPipe(4096, 4096, false)
	if err != nil {
		t.Fatal(err)
	}
	p.RecordUnderrun()
	p.RecordUnderrun()
	if p.UnderrunCount() != 2 {
		t.Fatalf("expected underrun count 2, got %d", p.UnderrunCount())
	}
	h := &recordingEventHandler{}
	if n := p.EventReader().Drain(h); n != 0 {
		t.Fatalf("expected no framed events from RecordUnderrun, got %d", n)
	}
}

func TestOverflowDropsFrameAndNeverBlocks(t *testing.T) {
	// A ring too small to hold even one frame: every write must fail
	// cleanly rather than block or panic.
	p, err := NewPipe(1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.CommandWriter().SetInputVolume(-6) {
		t.Fatal("expected write to a too-small ring to fail")
	}
}

func TestAtomOutputRoundTripsArbitraryLengthBody(t *testing.T) {
	p, err := NewPipe(4096, 4096, false)
	if err != nil {
		t.Fatal(err)
	}
	body := []byte{1, 2, 3, 4, 5, 6, 7}
	if !p.EventWriter().AtomOutput(9, body) {
		t.Fatal("write rejected")
	}

	var gotInstance int32
	var gotBody []byte
	h := &recordingEventHandler{onAtomOutput: func(id int32, b []byte) {
		gotInstance = id
		gotBody = b
	}}
	if n := p.EventReader().Drain(h); n != 1 {
		t.Fatalf("expected 1 frame, got %d", n)
	}
	if gotInstance != 9 {
		t.Fatalf("expected instance id 9, got %d", gotInstance)
	}
	if len(gotBody) != len(body) {
		t.Fatalf("expected body length %d, got %d", len(body), len(gotBody))
	}
	for i := range body {
		if gotBody[i] != body[i] {
			t.Fatalf("body mismatch at %d: want %d got %d", i, body[i], gotBody[i])
		}
	}
}
