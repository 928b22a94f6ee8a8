package split

import "github.com/rerdavies/pipedal-go/pkg/plugin"

// PreMix copies the input buffer(s) into the top and bottom sub-chain
// input buffers (spec.md §4.4). For L/R mode the left input channel feeds
// "top" and the right (or, for a mono input, the same channel) feeds
// "bottom"; for A/B and Mix mode both sub-chains receive an identical
// copy of the input.
func (s *Split) PreMix(frames int) {
	if s.splitType == TypeLR {
		copyChannel(s.input, 0, s.topIn, frames)
		rightIx := 0
		if len(s.input) > 1 {
			rightIx = 1
		}
		copyChannel(s.input, rightIx, s.bottomIn, frames)
		return
	}
	for c := range s.topIn {
		copyChannel(s.input, c, s.topIn[c:c+1], frames)
	}
	for c := range s.bottomIn {
		copyChannel(s.input, c, s.bottomIn[c:c+1], frames)
	}
}

// copyChannel fans input[srcIx] out to every channel of dst.
func copyChannel(input [][]float32, srcIx int, dst [][]float32, frames int) {
	if srcIx >= len(input) {
		srcIx = 0
	}
	copyChannelDirect(input[srcIx], dst, frames)
}

func copyChannelDirect(src []float32, dst [][]float32, frames int) {
	for _, d := range dst {
		copy(d[:frames], src[:frames])
	}
}

// PostMix sums the top and bottom sub-chain outputs with per-side gains
// and applies any in-progress crossfade, writing the result into the
// split's output buffer(s) (spec.md §4.4).
func (s *Split) PostMix(frames int) {
	if len(s.output) == 1 {
		s.postMixMono(frames)
		return
	}
	s.postMixStereo(frames)
}

func (s *Split) postMixMono(frames int) {
	top, bottom, out := s.topOut[0], s.bottomOut[0], s.output[0]
	i := 0
	for i < frames {
		if s.fadeSamples > 0 {
			n := s.fadeSamples
			if frames-i < n {
				n = frames - i
			}
			for j := 0; j < n; j++ {
				out[i] = float32(s.blendLBottom.current)*bottom[i] + float32(s.blendLTop.current)*top[i]
				s.blendLTop.current += s.blendLTop.delta
				s.blendLBottom.current += s.blendLBottom.delta
				i++
			}
			s.fadeSamples -= n
			if s.fadeSamples == 0 {
				s.blendLTop.current, s.blendLBottom.current = s.blendLTop.target, s.blendLBottom.target
				s.blendLTop.delta, s.blendLBottom.delta = 0, 0
			}
			continue
		}
		top0, bottom0 := float32(s.blendLTop.current), float32(s.blendLBottom.current)
		for i < frames {
			out[i] = bottom0*bottom[i] + top0*top[i]
			i++
		}
	}
}

func (s *Split) postMixStereo(frames int) {
	topL, bottomL, outL := s.topOut[0], s.bottomOut[0], s.output[0]
	topR, bottomR, outR := s.topOut[1], s.bottomOut[1], s.output[1]
	i := 0
	for i < frames {
		if s.fadeSamples > 0 {
			n := s.fadeSamples
			if frames-i < n {
				n = frames - i
			}
			for j := 0; j < n; j++ {
				outL[i] = float32(s.blendLBottom.current)*bottomL[i] + float32(s.blendLTop.current)*topL[i]
				outR[i] = float32(s.blendRBottom.current)*bottomR[i] + float32(s.blendRTop.current)*topR[i]
				s.blendLTop.current += s.blendLTop.delta
				s.blendRTop.current += s.blendRTop.delta
				s.blendLBottom.current += s.blendLBottom.delta
				s.blendRBottom.current += s.blendRBottom.delta
				i++
			}
			s.fadeSamples -= n
			if s.fadeSamples == 0 {
				s.blendLTop.current, s.blendRTop.current = s.blendLTop.target, s.blendRTop.target
				s.blendLBottom.current, s.blendRBottom.current = s.blendLBottom.target, s.blendRBottom.target
				s.blendLTop.delta, s.blendRTop.delta = 0, 0
				s.blendLBottom.delta, s.blendRBottom.delta = 0, 0
			}
			continue
		}
		lt, rt := float32(s.blendLTop.current), float32(s.blendRTop.current)
		lb, rb := float32(s.blendLBottom.current), float32(s.blendRBottom.current)
		for i < frames {
			outL[i] = lb*bottomL[i] + lt*topL[i]
			outR[i] = rb*bottomR[i] + rt*topR[i]
			i++
		}
	}
}

// Run satisfies the pkg/plugin.Effect capability by running PreMix alone;
// the pedalboard compiler schedules the sub-chains' own Run calls and this
// node's PostMix as separate process actions bracketing it, since a split
// is not a single plugin invocation but two (spec.md §4.5).
func (s *Split) Run(frames int, _ plugin.TelemetrySink) {
	s.PreMix(frames)
}

var _ plugin.Effect = (*Split)(nil)
