package pedalboard

// VuSubscription names one graph node (by effect index) whose VU levels the
// service thread wants reported on the next ComputeVus pass (spec.md §4.2
// SetVuSubscriptions).
type VuSubscription struct {
	EffectIndex int
}

// VuSample is one node's VU reading: the per-channel absolute maximum
// sample value seen this block, on its input and output sides, plus
// whether each side is genuinely stereo (spec.md §4.5 ComputeVus).
type VuSample struct {
	EffectIndex int

	InputMax  []float32
	OutputMax []float32

	InputStereo  bool
	OutputStereo bool
}

// ComputeVus reports VU levels for every subscribed effect index (spec.md
// §4.5). The two reserved indices read the driver-facing buffers either
// side of the corresponding volume dezipper: InputVolumeEffectIndex sees
// driverIn as its input and the dezippered pedalboard-input buffers as its
// output; OutputVolumeEffectIndex sees the pre-dezipper chain output as its
// input and driverOut as its output. Any other index reads the audio
// buffers Compile wired to that graph node.
func (rt *Runtime) ComputeVus(subs []VuSubscription, frames int, driverIn, driverOut [][]float32) []VuSample {
	samples := make([]VuSample, 0, len(subs))
	for _, sub := range subs {
		var in, out [][]float32
		switch sub.EffectIndex {
		case InputVolumeEffectIndex:
			in, out = driverIn, rt.pedalboardInputBuffers
		case OutputVolumeEffectIndex:
			in, out = rt.chainOutputBuffers, driverOut
		default:
			if sub.EffectIndex < 0 || sub.EffectIndex >= len(rt.buffers) {
				continue
			}
			buf := rt.buffers[sub.EffectIndex]
			in, out = buf.in, buf.out
		}

		samples = append(samples, VuSample{
			EffectIndex:  sub.EffectIndex,
			InputMax:     absMaxPerChannel(in, frames),
			OutputMax:    absMaxPerChannel(out, frames),
			InputStereo:  isStereo(in),
			OutputStereo: isStereo(out),
		})
	}
	return samples
}

// absMaxPerChannel tracks, for each channel, the largest absolute sample
// value within the first frames samples.
func absMaxPerChannel(buffers [][]float32, frames int) []float32 {
	max := make([]float32, len(buffers))
	for ch, buf := range buffers {
		n := frames
		if n > len(buf) {
			n = len(buf)
		}
		var m float32
		for _, v := range buf[:n] {
			if v < 0 {
				v = -v
			}
			if v > m {
				m = v
			}
		}
		max[ch] = m
	}
	return max
}

// isStereo reports whether buffers holds two genuinely distinct channel
// backing arrays. A mono signal duplicated across two channel slots (the
// fan-out adaptChannelCount performs for a 1-into-2 route) shares the same
// backing array for both, so the two slices alias; true stereo does not.
func isStereo(buffers [][]float32) bool {
	if len(buffers) != 2 || len(buffers[0]) == 0 || len(buffers[1]) == 0 {
		return false
	}
	return !aliased(buffers[0], buffers[1])
}

// aliased reports whether a and b share the same backing array, compared
// by the address of their first element (plain pointer comparison, no
// unsafe needed since Go permits comparing pointers to array elements).
func aliased(a, b []float32) bool {
	return &a[0] == &b[0]
}
