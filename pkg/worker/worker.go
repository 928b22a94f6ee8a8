// Package worker implements the worker offload path (C6): a shared
// host-worker goroutine that runs plugin work off the audio thread, and a
// per-plugin Worker that submits requests to it and collects responses in
// an SPSC reply ring (spec.md §4.6). Grounded on clapgo's
// pkg/thread.FallbackPool channel-as-task-queue idiom, retargeted from
// "parallel same-block fan-out" to "FIFO cross-block offload" — one
// goroutine instead of a pool, since spec.md §4.6 describes a single
// shared HostWorkerThread, not a parallel pool.
package worker

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Responder performs one unit of work off the audio thread and returns its
// response payload — the Go shape of spec.md §4.6's
// `work(respond_cb, size, data)`, collapsed to a single return value since
// Go has no need for a callback to hand the response back.
type Responder interface {
	Work(request []byte) (response []byte)
}

type workItem struct {
	worker  *Worker
	payload []byte
}

// HostWorker is the single shared goroutine every plugin's Worker submits
// requests to (spec.md §4.6: "a pointer to the shared HostWorkerThread").
// One HostWorker serves every plugin instance in a running pedalboard.
type HostWorker struct {
	requests chan workItem
	wg       sync.WaitGroup
}

// NewHostWorker starts the shared worker goroutine. queueDepth bounds how
// many requests across every plugin may be queued before ScheduleWork
// starts rejecting new ones — schedule_work is audio-thread-callable and
// must never block its caller.
func NewHostWorker(queueDepth int) *HostWorker {
	hw := &HostWorker{requests: make(chan workItem, queueDepth)}
	hw.wg.Add(1)
	go hw.run()
	return hw
}

func (hw *HostWorker) run() {
	defer hw.wg.Done()
	for item := range hw.requests {
		resp := item.worker.responder.Work(item.payload)
		item.worker.deliver(resp)
	}
}

// Close stops accepting new requests and blocks until the goroutine has
// drained whatever was already queued (spec.md §4.6: "closes the request
// ring ..., joins the thread"). Every Worker using this HostWorker must
// already be closed before calling Close.
func (hw *HostWorker) Close() {
	close(hw.requests)
	hw.wg.Wait()
}

// SetRealtimePriority requests SCHED_RR at priority, the scheduling class
// spec.md §4.6 calls for ("a lower real-time priority than the audio
// thread but higher than default user threads"). Must be called from
// within the goroutine it should affect — Linux schedules per-thread, and
// Go only exposes the calling OS thread via the scheduler syscalls, so the
// host-worker goroutine must call this itself after locking to its OS
// thread with runtime.LockOSThread. Failure is non-fatal: unprivileged
// processes commonly lack CAP_SYS_NICE, and the worker still functions
// correctly at default priority, just without the latency guarantee.
func SetRealtimePriority(priority int) error {
	return unix.SchedSetscheduler(0, unix.SCHED_RR, &unix.SchedParam{Priority: int32(priority)})
}
