package collections

import (
	"testing"
	"time"
)

func TestQueueTryPushFullReturnsFalse(t *testing.T) {
	q := NewQueue[int](2)

	if !q.TryPush(1) || !q.TryPush(2) {
		t.Fatalf("expected first two pushes to succeed")
	}
	if q.TryPush(3) {
		t.Fatalf("expected TryPush to fail when queue is full")
	}
	if got := q.ReadAvailable(); got != 2 {
		t.Fatalf("ReadAvailable() = %d, want 2", got)
	}
}

func TestQueueFrontPopOrder(t *testing.T) {
	q := NewQueue[int](4)

	for i := 0; i < 4; i++ {
		q.TryPush(i)
	}
	for i := 0; i < 4; i++ {
		if got := q.Front(); got != i {
			t.Fatalf("Front() = %d, want %d", got, i)
		}
		q.Pop()
	}
	if got := q.ReadAvailable(); got != 0 {
		t.Fatalf("ReadAvailable() = %d, want 0", got)
	}
}

func TestQueuePushBlocksUntilPop(t *testing.T) {
	q := NewQueue[int](1)
	q.TryPush(0)

	unblocked := make(chan struct{})
	go func() {
		q.Push(1)
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatalf("Push returned before the queue had room")
	case <-time.After(20 * time.Millisecond):
	}

	q.Pop()

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatalf("Push did not unblock after Pop freed a slot")
	}
}

func TestQueueWaitReadAvailableBlocksUntilPush(t *testing.T) {
	q := NewQueue[int](1)

	done := make(chan int)
	go func() {
		done <- q.WaitReadAvailable()
	}()

	select {
	case <-done:
		t.Fatalf("WaitReadAvailable returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(42)

	select {
	case n := <-done:
		if n != 1 {
			t.Fatalf("WaitReadAvailable() = %d, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitReadAvailable did not unblock after Push")
	}
}

func TestQueueUnblockProducer(t *testing.T) {
	q := NewQueue[int](1)
	q.TryPush(0)

	returned := make(chan struct{})
	go func() {
		q.Push(1) // dropped: producer was unblocked, not given room
		close(returned)
	}()

	time.Sleep(20 * time.Millisecond)
	q.UnblockProducer(true)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("Push did not unblock after UnblockProducer")
	}
}

func TestQueueUnblockConsumer(t *testing.T) {
	q := NewQueue[int](1)

	returned := make(chan int)
	go func() {
		returned <- q.WaitReadAvailable()
	}()

	time.Sleep(20 * time.Millisecond)
	q.UnblockConsumer(true)

	select {
	case n := <-returned:
		if n != 0 {
			t.Fatalf("WaitReadAvailable() = %d, want 0 when unblocked empty", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitReadAvailable did not unblock after UnblockConsumer")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue[int](4)
	q.TryPush(1)
	q.TryPush(2)
	q.UnblockProducer(true)

	q.Clear()

	if got := q.ReadAvailable(); got != 0 {
		t.Fatalf("ReadAvailable() after Clear = %d, want 0", got)
	}
	if got := q.WriteAvailable(); got != q.Capacity() {
		t.Fatalf("WriteAvailable() after Clear = %d, want %d", got, q.Capacity())
	}
}

// TestQueueStress pushes and pops a million ints through a
// capacity-100 queue across two goroutines, checking in-order
// delivery and the absence of deadlock.
func TestQueueStress(t *testing.T) {
	const n = 1_000_000
	q := NewQueue[int](100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			q.WaitReadAvailable()
			got := q.Front()
			q.Pop()
			if got != i {
				t.Errorf("consumed %d, want %d", got, i)
				return
			}
		}
	}()

	for i := 0; i < n; i++ {
		q.Push(i)
	}

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatalf("stress test did not complete: suspected deadlock")
	}
}
