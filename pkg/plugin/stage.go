package plugin

import "errors"

// ErrGraphInvariantViolated is returned by ComputeBlockSize when a plugin's
// declared min/max/power-of-two block-length constraints admit no value
// (spec.md §4.3.1 Open Question: the exact tie-breaking policy is
// undocumented upstream; this host treats an empty solution set as a
// compile-time failure rather than silently picking an out-of-range size).
var ErrGraphInvariantViolated = errors.New("plugin: no block size satisfies min/max/power-of-2 constraints")

// ComputeBlockSize picks the internal fixed block size B a plugin must run
// at (spec.md §4.3.1: "the nearest value that satisfies all three; rounded
// up to the next power of two when required"). It returns B=0 when the
// plugin declares no constraint at all, meaning no staging is needed and
// the plugin may run at whatever size the host driver delivers.
func ComputeBlockSize(min, max int, powerOfTwo bool) (int, error) {
	if min <= 0 && max <= 0 && !powerOfTwo {
		return 0, nil
	}
	b := min
	if b <= 0 {
		b = 1
	}
	if powerOfTwo {
		b = nextPowerOfTwo(b)
	}
	if max > 0 && b > max {
		return 0, ErrGraphInvariantViolated
	}
	return b, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// stage holds the per-channel staging buffers and cursors that let a
// plugin run at a fixed internal block size B regardless of the host's
// block size N (spec.md §4.3.1).
type stage struct {
	blockSize int

	in  [][]float32 // one staging input buffer per audio-in channel, size B
	out [][]float32 // one staging output buffer per audio-out channel, size B+1

	stageInIx  int
	stageOutIx int
}

// newStage allocates staging buffers for numIn/numOut audio channels.
func newStage(blockSize, numIn, numOut int) *stage {
	s := &stage{blockSize: blockSize}
	s.in = make([][]float32, numIn)
	for i := range s.in {
		s.in[i] = make([]float32, blockSize)
	}
	s.out = make([][]float32, numOut)
	for i := range s.out {
		s.out[i] = make([]float32, blockSize+1)
	}
	s.stageInIx = 0
	s.stageOutIx = blockSize // nothing staged yet; Drain is a no-op until Fill runs plugin.run
	return s
}

// Process implements the five-step loop of spec.md §4.3.1 for one host
// block of hostIn/hostOut (each len N). runBlock invokes the plugin at
// exactly s.blockSize frames and is expected to also drive the staged
// event-input/output handling described in §4.3.1 step 4.
func (s *stage) Process(hostIn, hostOut [][]float32, runBlock func()) {
	n := 0
	if len(hostOut) > 0 {
		n = len(hostOut[0])
	}
	produced := 0
	consumed := 0

	for produced < n {
		// Step 1: drain staged output into the host output buffer.
		avail := s.blockSize - s.stageOutIx
		if avail > 0 {
			take := avail
			if take > n-produced {
				take = n - produced
			}
			for ch := range hostOut {
				copy(hostOut[ch][produced:produced+take], s.out[ch][s.stageOutIx:s.stageOutIx+take])
			}
			s.stageOutIx += take
			produced += take
		}
		if produced >= n {
			break
		}

		// Step 3: fill staged input from the host input buffer.
		fillAvail := s.blockSize - s.stageInIx
		if fillAvail > 0 {
			take := fillAvail
			if take > n-consumed {
				take = n - consumed
			}
			for ch := range hostIn {
				copy(s.in[ch][s.stageInIx:s.stageInIx+take], hostIn[ch][consumed:consumed+take])
			}
			s.stageInIx += take
			consumed += take
		}

		// Step 4: when the staging input is full, run the plugin at B
		// frames and reset both cursors.
		if s.stageInIx == s.blockSize {
			runBlock()
			s.stageInIx = 0
			s.stageOutIx = 0
		} else {
			// Host ran out of input before filling the stage and the
			// stage has nothing left to drain: nothing more to do this
			// block, zero-fill the remainder per §4.3.1's final rule.
			break
		}
	}

	for produced < n {
		for ch := range hostOut {
			hostOut[ch][produced] = 0
		}
		produced++
	}
}
