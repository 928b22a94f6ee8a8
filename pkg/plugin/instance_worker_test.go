package plugin

import (
	"testing"
	"time"

	"github.com/rerdavies/pipedal-go/pkg/pplog"
	"github.com/rerdavies/pipedal-go/pkg/urid"
	"github.com/rerdavies/pipedal-go/pkg/worker"
)

// workerGain adds the LV2 worker interface to fakeGain: "gain" changes are
// computed off the audio thread and applied via WorkResponse.
type workerGain struct {
	fakeGain
	schedule WorkScheduler
	applied  chan float64
}

func (f *workerGain) AttachWorkScheduler(schedule WorkScheduler) { f.schedule = schedule }

func (f *workerGain) Work(request []byte) []byte {
	return request // echoes the requested gain bytes back unchanged
}

func (f *workerGain) WorkResponse(response []byte) {
	if f.applied != nil {
		f.applied <- float64(response[0])
	}
}

func workerGainBundle() BundleInfo {
	b := gainBundle()
	b.HasWorker = true
	return b
}

func TestConstructAttachesWorkSchedulerWhenBundleDeclaresWorker(t *testing.T) {
	host := worker.NewHostWorker(4)
	defer host.Close()

	native := &workerGain{applied: make(chan float64, 1)}
	inst, err := Construct(1, workerGainBundle(), native, nil, nil,
		Features{SampleRate: 48000, HostWorker: host}, pplog.New("test"), urid.New())
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	if native.schedule == nil {
		t.Fatal("expected AttachWorkScheduler to be called when the bundle declares a worker")
	}

	if ok := native.schedule([]byte{42}); !ok {
		t.Fatal("expected schedule to accept the request")
	}

	inst.SetAudioInputBuffer(0, make([]float32, 4))
	inst.SetAudioOutputBuffer(0, make([]float32, 4))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		inst.Run(4, nil)
		select {
		case v := <-native.applied:
			if v != 42 {
				t.Fatalf("expected WorkResponse to deliver 42, got %v", v)
			}
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("WorkResponse was never delivered via Run's worker drain")
}

func TestConstructSkipsWorkerWhenHostWorkerIsNil(t *testing.T) {
	native := &workerGain{}
	inst, err := Construct(1, workerGainBundle(), native, nil, nil,
		Features{SampleRate: 48000}, pplog.New("test"), urid.New())
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	if native.schedule != nil {
		t.Fatal("expected no work scheduler to be attached without a HostWorker")
	}
}
