package split

import "testing"

func mono(n int) []float32 { return make([]float32, n) }

func newTestSplit(numInputs int) *Split {
	s := New(numInputs, 48000)
	input := make([][]float32, numInputs)
	for i := range input {
		input[i] = mono(8)
	}
	topIn := [][]float32{mono(8)}
	bottomIn := [][]float32{mono(8)}
	topOut := [][]float32{mono(8)}
	bottomOut := [][]float32{mono(8)}
	s.SetChainBuffers(input, topIn, bottomIn, topOut, bottomOut, false)
	return s
}

func TestPreMixDuplicatesMonoInputToBothChains(t *testing.T) {
	s := newTestSplit(1)
	for i := range s.input[0] {
		s.input[0][i] = float32(i)
	}
	s.PreMix(8)
	for i := 0; i < 8; i++ {
		if s.topIn[0][i] != float32(i) || s.bottomIn[0][i] != float32(i) {
			t.Fatalf("sample %d: expected both chains to receive the input unchanged", i)
		}
	}
}

func TestPreMixLRRoutesLeftAndRightSeparately(t *testing.T) {
	s := newTestSplit(2)
	for i := range s.input[0] {
		s.input[0][i] = 1
		s.input[1][i] = -1
	}
	s.SetControl(SymbolType, float64(TypeLR))
	s.PreMix(8)
	for i := 0; i < 8; i++ {
		if s.topIn[0][i] != 1 {
			t.Fatalf("sample %d: expected top chain to get the left channel", i)
		}
		if s.bottomIn[0][i] != -1 {
			t.Fatalf("sample %d: expected bottom chain to get the right channel", i)
		}
	}
}

func TestMixNeutralityABAtSelectA(t *testing.T) {
	s := newTestSplit(1)
	s.Activate()
	s.SetControl(SymbolType, float64(TypeAB))
	s.SetControl(SymbolSelect, 0) // select A
	for i := 0; i < len(s.topOut[0]); i++ {
		s.topOut[0][i] = 1
		s.bottomOut[0][i] = 0.25
	}
	// Drain the crossfade ramp fully.
	for s.fadeSamples > 0 {
		s.PostMix(1)
	}
	s.PostMix(len(s.output[0]))
	for i, v := range s.output[0] {
		if v != 1 {
			t.Fatalf("sample %d: expected pure A (top chain) output of 1, got %v", i, v)
		}
	}
}

func TestPostMixCrossfadeRunsForApproximatelyOneRampPeriod(t *testing.T) {
	s := newTestSplit(1)
	s.Activate()
	s.SetControl(SymbolType, float64(TypeMix))
	s.SetControl(SymbolMix, 0) // 50/50, already the default target but forces a fresh fade
	want := int(fadeSeconds * s.sampleRate)
	if s.fadeSamples < want-1 || s.fadeSamples > want+1 {
		t.Fatalf("expected fadeSamples near %d, got %d", want, s.fadeSamples)
	}
}

func TestVolumeAtMinusSixtyDBClampsToSilence(t *testing.T) {
	s := newTestSplit(2)
	s.Activate()
	s.SetControl(SymbolType, float64(TypeLR))
	s.SetControl(SymbolVolL, -60)
	s.SetControl(SymbolVolR, -60)
	for s.fadeSamples > 0 {
		s.PostMix(1)
	}
	if s.blendLTop.target != 0 || s.blendRBottom.target != 0 {
		t.Fatalf("expected -60dB to clamp blend targets to 0, got L=%v R=%v", s.blendLTop.target, s.blendRBottom.target)
	}
}

func TestSetBypassIsNoOp(t *testing.T) {
	s := newTestSplit(1)
	s.SetBypass(true) // must not panic and must have no observable effect
	if _, ok := s.TakeError(); ok {
		t.Fatal("split never reports an error")
	}
}
