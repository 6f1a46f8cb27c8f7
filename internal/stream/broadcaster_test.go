package stream

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	l1 := b.Subscribe()
	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}

	// done channel closes on unsubscribe
	select {
	case <-l1.done:
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}

func TestBroadcastDeliversToAll(t *testing.T) {
	b := NewBroadcaster()
	listeners := make([]*Listener, 5)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan []int16, 10)
	go b.Run(ctx, source)

	frame := []int16{100, -200, 300, -400}
	source <- frame

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if len(got) != len(frame) {
				t.Fatalf("Listener %d frame length %d, want %d", i, len(got), len(frame))
			}
			for j, v := range got {
				if v != frame[j] {
					t.Errorf("Listener %d frame[%d] = %d, want %d", i, j, v, frame[j])
				}
			}
		case <-time.After(time.Second):
			t.Errorf("Listener %d timed out", i)
		}
	}

	if d := b.DroppedFrames(); d != 0 {
		t.Errorf("DroppedFrames = %d with keeping-up listeners, want 0", d)
	}

	cancel()
	for _, l := range listeners {
		b.Unsubscribe(l)
	}
}

func TestBroadcastDropsSlowListener(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	fast := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan []int16, 200)
	go b.Run(ctx, source)

	// Fill the slow listener's buffer (150 capacity) without reading.
	for i := 0; i < 200; i++ {
		source <- []int16{int16(i)}
	}
	time.Sleep(100 * time.Millisecond)

	drain := func(l *Listener) int {
		n := 0
		for {
			select {
			case <-l.C:
				n++
			default:
				return n
			}
		}
	}

	if n := drain(slow); n > 150 {
		t.Errorf("Slow listener got %d frames, should cap at buffer size 150", n)
	}
	if n := drain(fast); n == 0 {
		t.Error("Fast listener got 0 frames")
	}
	// 200 frames against a 150-frame buffer overflows each listener by 50.
	if d := b.DroppedFrames(); d < 50 {
		t.Errorf("DroppedFrames = %d, want at least 50", d)
	}

	cancel()
	b.Unsubscribe(slow)
	b.Unsubscribe(fast)
}

func TestBroadcastStops(t *testing.T) {
	run := func(stop func(cancel context.CancelFunc, source chan []int16)) {
		b := NewBroadcaster()
		ctx, cancel := context.WithCancel(context.Background())
		source := make(chan []int16, 10)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx, source)
		}()

		stop(cancel, source)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Broadcaster did not stop")
		}
	}

	run(func(cancel context.CancelFunc, _ chan []int16) { cancel() })
	run(func(_ context.CancelFunc, source chan []int16) { close(source) })
}
