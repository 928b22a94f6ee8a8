package plugin

import "testing"

func TestComputeBlockSizeNoConstraintMeansNoStaging(t *testing.T) {
	b, err := ComputeBlockSize(0, 0, false)
	if err != nil || b != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", b, err)
	}
}

func TestComputeBlockSizeRoundsUpToPowerOfTwo(t *testing.T) {
	b, err := ComputeBlockSize(100, 0, true)
	if err != nil || b != 128 {
		t.Fatalf("expected 128, got (%d, %v)", b, err)
	}
}

func TestComputeBlockSizeUnsatisfiableIsGraphInvariantViolated(t *testing.T) {
	_, err := ComputeBlockSize(100, 64, false)
	if err != ErrGraphInvariantViolated {
		t.Fatalf("expected ErrGraphInvariantViolated, got %v", err)
	}
}

func TestStageProcessRunsPluginAtFixedBlockSize(t *testing.T) {
	const blockSize = 32
	st := newStage(blockSize, 1, 1)

	runs := 0
	runBlock := func() {
		runs++
		for i := range st.in[0] {
			st.out[0][i] = st.in[0][i] * 2
		}
	}

	hostIn := [][]float32{make([]float32, 64)}
	hostOut := [][]float32{make([]float32, 64)}
	for i := range hostIn[0] {
		hostIn[0][i] = 1
	}

	st.Process(hostIn, hostOut, runBlock)

	if runs != 2 {
		t.Fatalf("expected the plugin to run twice to cover 64 host frames at blockSize=32, ran %d times", runs)
	}
	for i, v := range hostOut[0] {
		if v != 2 {
			t.Fatalf("sample %d: expected 2, got %v", i, v)
		}
	}
}
