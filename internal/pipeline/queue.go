package pipeline

import (
	"sync"

	"github.com/smazurov/framepipe/internal/frame"
)

// boundedQueue is a thread-safe FIFO of frames with a hard capacity.
// Producers are never blocked: push rejects when the queue is full.
// Each queue has its own lock; the input and output queues never contend.
type boundedQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []*frame.Frame
	max    int
	closed bool
}

func newBoundedQueue(max int) *boundedQueue {
	q := &boundedQueue{max: max}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a frame and wakes one waiter. Returns false when the queue is
// full or closed; ownership stays with the caller on rejection.
func (q *boundedQueue) push(f *frame.Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.frames) >= q.max {
		return false
	}

	q.frames = append(q.frames, f)
	q.cond.Signal()
	return true
}

// pop blocks until a frame is available or the queue is closed. A close wins
// over backlog: the worker exits on shutdown without draining, matching the
// documented shutdown policy.
func (q *boundedQueue) pop() (*frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.frames) == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.closed {
		return nil, false
	}

	f := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return f, true
}

// tryPop removes the head frame without blocking.
func (q *boundedQueue) tryPop() (*frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return nil, false
	}

	f := q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	return f, true
}

// len reports the current depth.
func (q *boundedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// setMax adjusts the capacity bound. Frames already queued beyond a reduced
// bound stay queued; only new pushes are rejected.
func (q *boundedQueue) setMax(max int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.max = max
}

// close marks the queue closed and wakes all waiters.
func (q *boundedQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// drain removes and returns all queued frames. Used after close so shutdown
// can release every buffer still owned by the queue.
func (q *boundedQueue) drain() []*frame.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.frames
	q.frames = nil
	return out
}
