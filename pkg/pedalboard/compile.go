package pedalboard

import (
	"fmt"

	"github.com/rerdavies/pipedal-go/pkg/midi"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/split"
	"github.com/rerdavies/pipedal-go/pkg/urid"
)

// Host bundles the external collaborators and driver geometry Compile
// needs: a plugin Loader, the per-instance construction Features, the
// logger and URID map shared by every instance, and the driver's channel
// counts and maximum block size (used to size process-action buffers once,
// at compile time, never on the audio thread).
type Host struct {
	Loader         plugin.Loader
	Features       plugin.Features
	Log            *pplog.Logger
	UridMap        *urid.Map
	InputChannels  int
	OutputChannels int
	MaxBlockSize   int
}

// CompileError names the instance whose construction failed during Compile.
// The offending item is compiled as an empty pass-through so one bad
// plugin does not prevent the rest of the graph from loading (spec.md §9
// OQ1 extends naturally: a compile-time failure is reported, not silently
// worked around by picking an out-of-contract value).
type CompileError struct {
	InstanceID int
	URI        string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pedalboard: instance %d (%s): %v", e.InstanceID, e.URI, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

type compiler struct {
	host            *Host
	existing        map[int]*plugin.Instance
	rt              *Runtime
	effectIndexByID map[int]int
	errs            []error
}

// Compile builds a Runtime from a Pedalboard snapshot (spec.md §4.5),
// constructing every plugin item afresh; it is CompileReusing with no
// existing-instance map. Compile errors are accumulated and
// returned alongside a still-usable Runtime; a failed item compiles as an
// empty pass-through rather than aborting the whole graph.
func Compile(pb *Pedalboard, host *Host) (*Runtime, []error) {
	return CompileReusing(pb, host, nil)
}

// CompileReusing is Compile with an explicit existing-instance map, used
// when recompiling a running pedalboard (spec.md §4.5: "optional
// existing_effect_map"). Plugin items whose instance-id is present in
// existing are reused ("borrowed") instead of reconstructed, and their
// buffer reconnects are deferred to the audio thread's next
// UpdateAudioPorts call.
func CompileReusing(pb *Pedalboard, host *Host, existing map[int]*plugin.Instance) (*Runtime, []error) {
	c := &compiler{
		host:            host,
		existing:        existing,
		effectIndexByID: map[int]int{},
		rt: &Runtime{
			instances:            map[int]*plugin.Instance{},
			borrowed:             map[int]bool{},
			instanceIDByFX:       map[int]int{},
			sampleRate:           host.Features.SampleRate,
			driverInputChannels:  host.InputChannels,
			driverOutputChannels: host.OutputChannels,
		},
	}

	input := makeBuffers(host.InputChannels, host.MaxBlockSize)
	c.rt.pedalboardInputBuffers = input

	out := c.compileChain(pb.Items, input)
	out = adaptChannelCount(out, host.OutputChannels, host.MaxBlockSize)
	c.rt.chainOutputBuffers = out

	c.compileMidiMap(pb.Items)

	c.rt.inputVolume = plugin.NewDezipper(host.Features.SampleRate, pb.InputVolumeDB)
	c.rt.outputVolume = plugin.NewDezipper(host.Features.SampleRate, pb.OutputVolumeDB)

	return c.rt, c.errs
}

// compileChain compiles a sequential list of items, threading each item's
// output buffers into the next as input, and returns the final output.
func (c *compiler) compileChain(items []Item, input [][]float32) [][]float32 {
	chain := input
	for _, item := range items {
		switch item.Kind {
		case ItemEmpty:
			// No-op: input passes through unchanged (spec.md §4.5 step 2).
		case ItemPlugin:
			chain = c.compilePlugin(item, chain)
		case ItemSplit:
			chain = c.compileSplit(item, chain)
		}
	}
	return chain
}

func (c *compiler) compilePlugin(item Item, chainIn [][]float32) [][]float32 {
	inst, borrowed, err := c.resolveInstance(item)
	if err != nil {
		c.errs = append(c.errs, &CompileError{InstanceID: item.InstanceID, URI: item.URI, Err: err})
		return chainIn
	}

	numIn, numOut := countAudioPorts(inst.Ports())
	if numIn > 0 {
		adaptedIn := adaptChannelCount(chainIn, numIn, c.host.MaxBlockSize)
		for i, buf := range adaptedIn {
			inst.SetAudioInputBuffer(i, buf)
		}
	} else {
		// A zero-input (generator) plugin never gets ConnectAudioIn calls,
		// but its bypass mix still needs the real upstream signal rather
		// than silence, so wire it in as a dry reference only.
		inst.SetDryInputBuffer(adaptChannelCount(chainIn, numOut, c.host.MaxBlockSize))
	}
	chainOut := makeBuffers(numOut, c.host.MaxBlockSize)
	for i, buf := range chainOut {
		inst.SetAudioOutputBuffer(i, buf)
	}

	effectIndex := len(c.rt.effects)
	c.rt.effects = append(c.rt.effects, inst)
	c.rt.buffers = append(c.rt.buffers, effectBuffers{in: inst.AudioInBuffers(), out: chainOut})
	c.effectIndexByID[item.InstanceID] = effectIndex
	c.rt.instances[item.InstanceID] = inst
	c.rt.instanceIDByFX[effectIndex] = item.InstanceID
	c.rt.instanceList = append(c.rt.instanceList, trackedInstance{id: item.InstanceID, inst: inst})
	c.rt.borrowed[item.InstanceID] = borrowed

	if !item.Enabled {
		inst.SetBypass(true)
	}

	c.rt.actions = append(c.rt.actions, func(frames int) {
		inst.Run(frames, c.rt)
	})

	return chainOut
}

// resolveInstance either borrows a previously-constructed instance for
// item.InstanceID or constructs a new one (spec.md §4.5 step 2: "adopt an
// instance from existing_effect_map ... or construct a new C3").
func (c *compiler) resolveInstance(item Item) (inst *plugin.Instance, borrowed bool, err error) {
	if c.existing != nil {
		if existing, ok := c.existing[item.InstanceID]; ok {
			return existing, true, nil
		}
	}

	bundle, err := c.host.Loader.Load(item.URI)
	if err != nil {
		return nil, false, err
	}
	native, err := c.host.Loader.Instantiate(item.URI, c.host.Features)
	if err != nil {
		return nil, false, err
	}
	inst, err = plugin.Construct(item.InstanceID, bundle, native, item.ControlValues, item.StateBlob, c.host.Features, c.host.Log, c.host.UridMap)
	if err != nil {
		return nil, false, err
	}
	return inst, false, nil
}

func (c *compiler) compileSplit(item Item, chainIn [][]float32) [][]float32 {
	s := split.New(len(chainIn), c.host.Features.SampleRate)
	s.SetControl(split.SymbolType, float64(item.SplitType))
	for _, cv := range item.SplitControls {
		s.SetControl(cv.Symbol, cv.Value)
	}

	topIn := makeBuffers(len(chainIn), c.host.MaxBlockSize)
	bottomIn := makeBuffers(len(chainIn), c.host.MaxBlockSize)

	effectIndex := len(c.rt.effects)
	c.rt.effects = append(c.rt.effects, s)
	c.rt.buffers = append(c.rt.buffers, effectBuffers{}) // placeholder, filled in below once known
	c.rt.splits = append(c.rt.splits, s)
	c.effectIndexByID[item.InstanceID] = effectIndex

	c.rt.actions = append(c.rt.actions, func(frames int) {
		s.Run(frames, nil)
	})

	topOut := c.compileChain(item.Top, topIn)
	bottomOut := c.compileChain(item.Bottom, bottomIn)

	forceStereo := item.SplitType == split.TypeLR
	s.SetChainBuffers(chainIn, topIn, bottomIn, topOut, bottomOut, forceStereo)
	c.rt.buffers[effectIndex] = effectBuffers{in: chainIn, out: s.OutputBuffers()}

	c.rt.actions = append(c.rt.actions, func(frames int) {
		s.PostMix(frames)
	})

	return s.OutputBuffers()
}

// compileMidiMap walks the item tree collecting MidiBindings and resolving
// each against its target port, then installs the stable-sorted table
// (spec.md §4.5 step 4).
func (c *compiler) compileMidiMap(items []Item) {
	var mappings []midi.Mapping
	c.collectMidiMappings(items, &mappings)
	c.rt.midiTable = midi.NewTable(mappings)
}

func (c *compiler) collectMidiMappings(items []Item, out *[]midi.Mapping) {
	for _, item := range items {
		switch item.Kind {
		case ItemPlugin:
			inst, ok := c.rt.instances[item.InstanceID]
			if !ok || len(item.MidiBindings) == 0 {
				continue
			}
			effectIndex := c.effectIndexByID[item.InstanceID]
			for _, b := range item.MidiBindings {
				port, ok := findPort(inst.Ports(), b.Symbol)
				if !ok {
					continue
				}
				controlIndex, ok := inst.ControlIndex(b.Symbol)
				if !ok {
					continue
				}
				*out = append(*out, midi.Resolve(b, port, effectIndex, controlIndex))
			}
		case ItemSplit:
			c.collectMidiMappings(item.Top, out)
			c.collectMidiMappings(item.Bottom, out)
		}
	}
}

func findPort(ports []plugin.PortInfo, symbol string) (plugin.PortInfo, bool) {
	for _, p := range ports {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return plugin.PortInfo{}, false
}

func countAudioPorts(ports []plugin.PortInfo) (numIn, numOut int) {
	for _, p := range ports {
		if p.Kind != plugin.KindAudio {
			continue
		}
		if p.Direction == plugin.DirectionInput {
			numIn++
		} else {
			numOut++
		}
	}
	return
}

// adaptChannelCount routes a chain's buffers onto a node that wants a
// different channel count (spec.md §4.5 step 2: "if the plugin expects one
// input and the chain has two, route left only; if it expects two and the
// chain has one, fan out; likewise for outputs"; step 3 applies the same
// rule once more at the end of the chain against the driver's own count).
func adaptChannelCount(buffers [][]float32, want int, maxBlockSize int) [][]float32 {
	if want <= 0 || len(buffers) == want {
		return buffers
	}
	if want == 1 {
		return buffers[:1]
	}
	if len(buffers) == 0 {
		return makeBuffers(want, maxBlockSize)
	}
	if len(buffers) == 1 {
		out := make([][]float32, want)
		for i := range out {
			out[i] = buffers[0]
		}
		return out
	}
	return buffers[:want]
}

func makeBuffers(n, blockSize int) [][]float32 {
	buffers := make([][]float32, n)
	for i := range buffers {
		buffers[i] = make([]float32, blockSize)
	}
	return buffers
}
