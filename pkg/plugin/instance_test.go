package plugin

import (
	"testing"

	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

func gainBundle() BundleInfo {
	return BundleInfo{
		URI: "urn:test:gain",
		Ports: []PortInfo{
			{Index: 0, Symbol: "in", Kind: KindAudio, Direction: DirectionInput},
			{Index: 1, Symbol: "out", Kind: KindAudio, Direction: DirectionOutput},
			{Index: 2, Symbol: "gain", Kind: KindControl, Min: 0, Max: 2, Default: 1},
		},
	}
}

func TestConstructAppliesItemControlValues(t *testing.T) {
	native := &fakeGain{}
	inst, err := Construct(1, gainBundle(), native, []ControlValue{{Symbol: "gain", Value: 0.5}}, nil, Features{SampleRate: 48000}, pplog.New("test"), urid.New())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := inst.ControlValue("gain"); v != 0.5 {
		t.Fatalf("expected gain=0.5, got %v", v)
	}
}

func TestRunAppliesGainAndBypassCrossfade(t *testing.T) {
	native := &fakeGain{}
	inst, err := Construct(1, gainBundle(), native, []ControlValue{{Symbol: "gain", Value: 1}}, nil, Features{SampleRate: 48000}, pplog.New("test"), urid.New())
	if err != nil {
		t.Fatal(err)
	}
	inst.Activate()

	in := make([]float32, 4)
	out := make([]float32, 4)
	for i := range in {
		in[i] = 1
	}
	inst.SetAudioInputBuffer(0, in)
	inst.SetAudioOutputBuffer(0, out)

	inst.Run(4, nil)

	for i, v := range out {
		if v != 1 {
			t.Fatalf("sample %d: expected fully-wet gain pass-through of 1, got %v", i, v)
		}
	}
}

func TestRunCapturesErrorFromLoggingPlugin(t *testing.T) {
	native := &loggingFakeGain{fakeGain: fakeGain{}}
	inst, err := Construct(1, gainBundle(), native, nil, nil, Features{SampleRate: 48000}, pplog.New("test"), urid.New())
	if err != nil {
		t.Fatal(err)
	}
	inst.SetAudioInputBuffer(0, make([]float32, 4))
	inst.SetAudioOutputBuffer(0, make([]float32, 4))

	native.sink(pplog.SeverityError, "boom")
	msg, ok := inst.TakeError()
	if !ok || msg != "boom" {
		t.Fatalf("expected captured error %q, got %q (ok=%v)", "boom", msg, ok)
	}
	if _, ok := inst.TakeError(); ok {
		t.Fatal("expected TakeError to clear the slot")
	}
}

// loggingFakeGain adds the optional LoggingPlugin extension to fakeGain.
type loggingFakeGain struct {
	fakeGain
	sink LogSink
}

func (f *loggingFakeGain) AttachLogSink(sink LogSink) { f.sink = sink }
