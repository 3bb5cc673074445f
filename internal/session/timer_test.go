package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRealClockAfterFires(t *testing.T) {
	clock := NewClock()
	done := make(chan struct{})
	clock.After(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("After callback did not fire")
	}
}

func TestRealClockAfterStopPreventsFire(t *testing.T) {
	clock := NewClock()
	var fired atomic.Bool
	h := clock.After(20*time.Millisecond, func() { fired.Store(true) })
	h.Stop()
	h.Stop() // safe to repeat

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("stopped timer fired")
	}
}

func TestRealClockEveryRepeats(t *testing.T) {
	clock := NewClock()
	var n atomic.Int32
	h := clock.Every(5*time.Millisecond, func() { n.Add(1) })
	defer h.Stop()

	deadline := time.Now().Add(time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n.Load() < 3 {
		t.Fatalf("ticker fired %d times, want at least 3", n.Load())
	}
}

func TestRealClockEveryStop(t *testing.T) {
	clock := NewClock()
	var n atomic.Int32
	h := clock.Every(5*time.Millisecond, func() { n.Add(1) })

	time.Sleep(20 * time.Millisecond)
	h.Stop()
	h.Stop()
	settled := n.Load()

	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got > settled+1 {
		t.Errorf("ticker kept firing after stop: %d -> %d", settled, got)
	}
}
