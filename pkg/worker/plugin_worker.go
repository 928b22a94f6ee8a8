package worker

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/rerdavies/pipedal-go/pkg/ringbuffer"
)

// replyRingSize is the SPSC reply ring's capacity (spec.md §4.6: "an SPSC
// reply ring of ~16 KiB").
const replyRingSize = 16 * 1024

// drainPollInterval is how often Close re-checks the outstanding-request
// counter while it waits for in-flight work to finish.
const drainPollInterval = time.Millisecond

// Worker is one plugin's private offload handle: a back-pointer to the
// shared HostWorker and the SPSC reply ring its audio thread drains on a
// later block (spec.md §4.6). The zero value is not usable; construct
// with New.
type Worker struct {
	host      *HostWorker
	responder Responder

	replies *ringbuffer.RingBuffer

	// closed and outstanding are plain atomics rather than a mutex-guarded
	// pair: ScheduleWork is callable from the audio thread (spec.md §4.6),
	// and a priority-inheriting mutex isn't available in the standard
	// library, so the hot path never takes a lock at all. Close polls
	// outstanding instead of waiting on a condition variable for the same
	// reason: nothing here should ever give ScheduleWork something to
	// block on.
	closed      atomic.Bool
	outstanding atomic.Int64
}

// New creates a Worker submitting to host and invoking responder for each
// request (spec.md §4.6).
func New(host *HostWorker, responder Responder) (*Worker, error) {
	replies, err := ringbuffer.New(replyRingSize, false)
	if err != nil {
		return nil, err
	}
	return &Worker{host: host, responder: responder, replies: replies}, nil
}

// ScheduleWork is called from the audio thread (spec.md §4.6:
// "schedule_work(size, data) is called from the audio thread"). It never
// blocks and never takes a lock: if the shared worker's request queue has
// no room, or this Worker has already been closed, the request is dropped
// and false is returned.
func (w *Worker) ScheduleWork(payload []byte) bool {
	if w.closed.Load() {
		return false
	}
	w.outstanding.Add(1)

	select {
	case w.host.requests <- workItem{worker: w, payload: payload}:
		return true
	default:
		w.outstanding.Add(-1)
		return false
	}
}

// deliver writes one length-prefixed response frame into the reply ring,
// called from the HostWorker goroutine, never the audio thread.
func (w *Worker) deliver(response []byte) {
	frame := make([]byte, 4+len(response))
	binary.LittleEndian.PutUint32(frame, uint32(len(response)))
	copy(frame[4:], response)
	w.replies.Write(frame)
	w.outstanding.Add(-1)
}

// EmitResponses drains every response currently sitting in the reply ring
// and calls respond for each, in arrival order (spec.md §4.6: "on the next
// audio block the plugin's emit_responses drains its reply ring"). Called
// once per audio block; never blocks.
func (w *Worker) EmitResponses(respond func(response []byte)) {
	var header [4]byte
	for w.replies.Peek(header[:]) == len(header) {
		n := int(binary.LittleEndian.Uint32(header[:]))
		frame := make([]byte, 4+n)
		if w.replies.Peek(frame) != len(frame) {
			return
		}
		w.replies.Discard(len(frame))
		respond(frame[4:])
	}
}

// Close marks the Worker closed so further ScheduleWork calls are
// rejected, then blocks (off the audio thread, on the service thread
// destroying the plugin) until every request already accepted has been
// run and its response delivered (spec.md §4.6 close protocol: "waits
// until all outstanding requests complete and all responses are
// consumed").
func (w *Worker) Close() {
	w.closed.Store(true)
	for w.outstanding.Load() > 0 {
		time.Sleep(drainPollInterval)
	}
}
