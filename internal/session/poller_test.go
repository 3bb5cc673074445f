package session

import (
	"testing"
	"time"
)

func TestPollerStartSchedulesWarmupAndPeriodic(t *testing.T) {
	clock := &fakeClock{}
	rosterCalls := 0
	vitalsCalls := 0
	p := &poller{
		clock:          clock,
		rosterInterval: 30 * time.Second,
		vitalsInterval: 2 * time.Second,
		warmupDelay:    2 * time.Second,
		refreshRoster:  func() { rosterCalls++ },
		refreshVitals:  func() { vitalsCalls++ },
	}

	p.start()

	clock.mu.Lock()
	oneShots := 0
	periodics := 0
	for _, tm := range clock.timers {
		if tm.periodic {
			periodics++
		} else {
			oneShots++
			if tm.d != 2*time.Second {
				t.Errorf("warmup delay = %v, want 2s", tm.d)
			}
		}
	}
	timers := append([]*fakeTimer(nil), clock.timers...)
	clock.mu.Unlock()

	if oneShots != 2 || periodics != 2 {
		t.Fatalf("scheduled %d one-shots and %d periodics, want 2 and 2", oneShots, periodics)
	}

	for _, tm := range timers {
		clock.fire(tm)
	}
	if rosterCalls != 2 || vitalsCalls != 2 {
		t.Errorf("fired roster %d times and vitals %d times, want 2 and 2", rosterCalls, vitalsCalls)
	}
}

func TestPollerStopCancelsEverything(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	p := &poller{
		clock:          clock,
		rosterInterval: time.Second,
		vitalsInterval: time.Second,
		warmupDelay:    time.Second,
		refreshRoster:  func() { calls++ },
		refreshVitals:  func() { calls++ },
	}

	p.start()
	p.stop()

	clock.mu.Lock()
	timers := append([]*fakeTimer(nil), clock.timers...)
	clock.mu.Unlock()
	for _, tm := range timers {
		if !tm.stopped {
			t.Error("timer left running after stop")
		}
		clock.fire(tm)
	}
	if calls != 0 {
		t.Errorf("stopped timers fired %d callbacks", calls)
	}
	if p.handles != nil {
		t.Error("handles not cleared by stop")
	}

	p.stop() // idempotent
}

func TestPollerRestartReplacesTimers(t *testing.T) {
	clock := &fakeClock{}
	p := &poller{
		clock:          clock,
		rosterInterval: time.Second,
		vitalsInterval: time.Second,
		warmupDelay:    time.Second,
		refreshRoster:  func() {},
		refreshVitals:  func() {},
	}

	p.start()
	p.start()

	clock.mu.Lock()
	defer clock.mu.Unlock()
	if len(clock.timers) != 8 {
		t.Fatalf("scheduled %d timers across two starts, want 8", len(clock.timers))
	}
	for i, tm := range clock.timers {
		wantStopped := i < 4
		if tm.stopped != wantStopped {
			t.Errorf("timer %d stopped = %v, want %v", i, tm.stopped, wantStopped)
		}
	}
}
