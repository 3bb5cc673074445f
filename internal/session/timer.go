package session

import (
	"sync"
	"time"
)

// Handle is a cancellable scheduled callback. Stop prevents any future fire;
// it is safe to call more than once. Components that schedule work hold the
// handle and stop it on the state transition that invalidates the timer,
// rather than re-checking connection flags inside the fired callback.
type Handle interface {
	Stop()
}

// Clock schedules one-shot and periodic callbacks. The production
// implementation delegates to the time package; tests substitute a manual
// clock to fire deterministically.
type Clock interface {
	After(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
}

type realClock struct{}

// NewClock returns the time-package-backed Clock.
func NewClock() Clock {
	return realClock{}
}

type afterHandle struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (h *afterHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.timer.Stop()
}

func (realClock) After(d time.Duration, fn func()) Handle {
	h := &afterHandle{}
	h.timer = time.AfterFunc(d, func() {
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	return h
}

type everyHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *everyHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

func (realClock) Every(d time.Duration, fn func()) Handle {
	h := &everyHandle{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-h.ticker.C:
				fn()
			}
		}
	}()
	return h
}
