package pedalboard

import (
	"testing"

	"github.com/rerdavies/pipedal-go/pkg/midi"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/split"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

func testHost(inCh, outCh, blockSize int) *Host {
	return &Host{
		Loader:         fakeLoader{},
		Features:       plugin.Features{SampleRate: 48000},
		Log:            pplog.New("test"),
		UridMap:        urid.New(),
		InputChannels:  inCh,
		OutputChannels: outCh,
		MaxBlockSize:   blockSize,
	}
}

func TestCompileSingleMonoPluginChain(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:mono-gain",
			ControlValues: []plugin.ControlValue{{Symbol: "gain", Value: 0.5}}},
	}

	rt, errs := Compile(pb, testHost(1, 1, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if len(rt.effects) != 1 {
		t.Fatalf("expected 1 compiled effect, got %d", len(rt.effects))
	}
	if len(rt.instances) != 1 {
		t.Fatalf("expected 1 tracked instance, got %d", len(rt.instances))
	}
}

func TestCompileAdaptsMonoChainIntoStereoPlugin(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:gain"},
	}

	rt, errs := Compile(pb, testHost(1, 2, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if len(rt.chainOutputBuffers) != 2 {
		t.Fatalf("expected chain output adapted to 2 channels, got %d", len(rt.chainOutputBuffers))
	}
}

func TestCompileSkipsAudioInputWiringForGenerator(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:generator"},
	}

	rt, errs := Compile(pb, testHost(2, 1, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	rt.Activate()

	driverIn := [][]float32{make([]float32, 8), make([]float32, 8)}
	driverOut := [][]float32{make([]float32, 8)}
	rt.Run(driverIn, driverOut, 8, nil)

	for i, v := range driverOut[0] {
		if v == 0 {
			t.Fatalf("sample %d: expected generator output to reach driver out, got 0", i)
		}
	}
}

// TestCompileWiresDryInputForBypassedGenerator feeds a non-zero, non-unity
// upstream signal into a disabled (bypassed) generator and asserts the
// driver output is the real upstream signal, not silence. An all-zero drive
// signal can't tell a correctly-wired dry path apart from one that was
// never wired at all: a generator's applyBypass call always reads zero
// either way.
func TestCompileWiresDryInputForBypassedGenerator(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: false, URI: "urn:test:generator"},
	}

	rt, errs := Compile(pb, testHost(1, 1, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	rt.Activate()

	const dry = float32(0.25)
	driverIn := [][]float32{make([]float32, 8)}
	for i := range driverIn[0] {
		driverIn[0][i] = dry
	}
	driverOut := [][]float32{make([]float32, 8)}
	rt.Run(driverIn, driverOut, 8, nil)

	for i, v := range driverOut[0] {
		if v != dry {
			t.Fatalf("sample %d: expected bypassed generator to pass the dry signal %v through, got %v", i, dry, v)
		}
	}
}

func TestCompileBorrowsExistingInstance(t *testing.T) {
	pb := NewPedalboard("test")
	id := pb.NextInstanceID()
	pb.Items = []Item{
		{InstanceID: id, Kind: ItemPlugin, Enabled: true, URI: "urn:test:mono-gain"},
	}

	host := testHost(1, 1, 64)
	rt1, errs := Compile(pb, host)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	original := rt1.instances[id]

	rt2, errs := CompileReusing(pb, host, rt1.Instances())
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if rt2.instances[id] != original {
		t.Fatal("expected recompile to borrow the original instance, got a freshly constructed one")
	}
	if !rt2.borrowed[id] {
		t.Fatal("expected borrowed instance-id to be marked borrowed")
	}
}

func TestCompileSplitWiresPreAndPostMix(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{
			InstanceID: pb.NextInstanceID(),
			Kind:       ItemSplit,
			Enabled:    true,
			SplitType:  split.TypeMix,
			SplitControls: []plugin.ControlValue{
				{Symbol: split.SymbolMix, Value: -1}, // all top
			},
			Top: []Item{
				{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:mono-gain",
					ControlValues: []plugin.ControlValue{{Symbol: "gain", Value: 1}}},
			},
			Bottom: []Item{
				{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:mono-gain",
					ControlValues: []plugin.ControlValue{{Symbol: "gain", Value: 0}}},
			},
		},
	}

	rt, errs := Compile(pb, testHost(1, 1, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if len(rt.splits) != 1 {
		t.Fatalf("expected 1 split node, got %d", len(rt.splits))
	}
	if len(rt.instances) != 2 {
		t.Fatalf("expected 2 plugin instances under the split, got %d", len(rt.instances))
	}
	if len(rt.buffers[0].out) == 0 {
		t.Fatal("expected the split's effect-index buffers to be backfilled after Top/Bottom compile")
	}
}

func TestCompileMidiMapResolvesBindings(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{
			InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:mono-gain",
			MidiBindings: []midi.Binding{
				{Symbol: "gain", Channel: 0, NoteOrCC: 7},
			},
		},
	}

	rt, errs := Compile(pb, testHost(1, 1, 64))
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if rt.midiTable == nil {
		t.Fatal("expected a compiled midi table")
	}
}

func TestCompileReportsErrorForUnknownURI(t *testing.T) {
	pb := NewPedalboard("test")
	pb.Items = []Item{
		{InstanceID: pb.NextInstanceID(), Kind: ItemPlugin, Enabled: true, URI: "urn:test:missing"},
	}

	_, errs := Compile(pb, testHost(1, 1, 64))
	if len(errs) != 1 {
		t.Fatalf("expected 1 compile error for an unresolvable URI, got %d", len(errs))
	}
}
