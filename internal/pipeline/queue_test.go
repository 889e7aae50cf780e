package pipeline

import (
	"testing"
	"time"

	"github.com/smazurov/framepipe/internal/frame"
)

func mustFrame(t *testing.T, id int64) *frame.Frame {
	t.Helper()
	f, err := frame.New(4, 4, 3)
	if err != nil {
		t.Fatalf("frame.New: %v", err)
	}
	f.ID = id
	return f
}

func TestQueueFIFO(t *testing.T) {
	q := newBoundedQueue(5)

	for i := int64(1); i <= 3; i++ {
		if !q.push(mustFrame(t, i)) {
			t.Fatalf("push %d rejected", i)
		}
	}

	for want := int64(1); want <= 3; want++ {
		f, ok := q.tryPop()
		if !ok {
			t.Fatalf("tryPop: queue empty at %d", want)
		}
		if f.ID != want {
			t.Errorf("got frame %d, want %d", f.ID, want)
		}
	}

	if _, ok := q.tryPop(); ok {
		t.Error("tryPop on empty queue returned a frame")
	}
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := newBoundedQueue(2)

	if !q.push(mustFrame(t, 1)) || !q.push(mustFrame(t, 2)) {
		t.Fatal("pushes within capacity rejected")
	}
	if q.push(mustFrame(t, 3)) {
		t.Error("push beyond capacity accepted")
	}
	if q.len() != 2 {
		t.Errorf("len = %d, want 2", q.len())
	}

	// Raising the bound admits new frames again.
	q.setMax(3)
	if !q.push(mustFrame(t, 3)) {
		t.Error("push after setMax rejected")
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := newBoundedQueue(1)

	got := make(chan *frame.Frame, 1)
	go func() {
		f, ok := q.pop()
		if ok {
			got <- f
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.push(mustFrame(t, 7))

	select {
	case f := <-got:
		if f.ID != 7 {
			t.Errorf("got frame %d, want 7", f.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestQueueCloseWinsOverBacklog(t *testing.T) {
	q := newBoundedQueue(5)
	q.push(mustFrame(t, 1))
	q.push(mustFrame(t, 2))
	q.close()

	if _, ok := q.pop(); ok {
		t.Error("pop returned a frame after close")
	}
	if q.push(mustFrame(t, 3)) {
		t.Error("push accepted after close")
	}

	drained := q.drain()
	if len(drained) != 2 {
		t.Errorf("drained %d frames, want 2", len(drained))
	}
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	q := newBoundedQueue(1)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case ok := <-done:
		if ok {
			t.Error("pop reported a frame on close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake on close")
	}
}
