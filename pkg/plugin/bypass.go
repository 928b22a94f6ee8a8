package plugin

// BypassMixer crossfades between a plugin's wet output and its dry input
// over ~100ms (spec.md §4.3.2). current==1 means fully wet (plugin engaged),
// current==0 means fully dry (bypassed); SetBypass(true) ramps toward 0.
type BypassMixer struct {
	current, target, delta float64
	remaining, rampSamples int
}

// NewBypassMixer creates a mixer settled in the engaged (non-bypassed)
// state: a freshly constructed instance starts active until told otherwise.
func NewBypassMixer(sampleRate float64) *BypassMixer {
	m := &BypassMixer{
		current:     1,
		target:      1,
		rampSamples: int(rampSeconds * sampleRate),
	}
	if m.rampSamples < 1 {
		m.rampSamples = 1
	}
	return m
}

// SnapTo immediately sets the mixer to value with no ramp in progress
// (spec.md §4.3: "snap the bypass mixer to the requested value on
// activate").
func (m *BypassMixer) SnapTo(value float64) {
	m.current = value
	m.target = value
	m.remaining = 0
}

// SetBypass arms a ~100ms ramp toward the bypassed (enabled=true, target 0)
// or engaged (enabled=false, target 1) state. A call that repeats the
// already-armed or already-reached target is a no-op: calling SetBypass
// twice in a row produces one ramp, not two (spec.md §8 scenario S3).
func (m *BypassMixer) SetBypass(enabled bool) {
	target := 1.0
	if enabled {
		target = 0.0
	}
	if m.target == target {
		return
	}
	m.target = target
	m.delta = (target - m.current) / float64(m.rampSamples)
	m.remaining = m.rampSamples
}

// Next advances one sample and returns the current wet/dry mix coefficient.
func (m *BypassMixer) Next() float64 {
	if m.remaining > 0 {
		m.current += m.delta
		m.remaining--
		if m.remaining == 0 {
			m.current = m.target
		}
	}
	return m.current
}

// IsBypassed reports whether the mixer has fully settled at the dry end.
func (m *BypassMixer) IsBypassed() bool {
	return m.remaining == 0 && m.current == 0
}

// GeneratorMix cross-mixes a zero-input plugin's output against the dry
// input signal using the triangular (straight-line) crossfade law named in
// spec.md §4.3.2: weight 0 is all input, weight 1 is all generator output.
func GeneratorMix(zeroInputMix float32, pluginOut, input float32) float32 {
	if zeroInputMix <= 0 {
		return input
	}
	if zeroInputMix >= 1 {
		return pluginOut
	}
	return zeroInputMix*pluginOut + (1-zeroInputMix)*input
}
