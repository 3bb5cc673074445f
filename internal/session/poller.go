package session

import (
	"time"
)

// poller owns the periodic roster and vitals sampling timers plus the
// one-shot warmup samples fired shortly after login, when the adapter's
// internal state has had a moment to populate. start and stop run under the
// Machine mutex; stop is synchronous with the transition that invalidates
// the timers.
type poller struct {
	clock          Clock
	rosterInterval time.Duration
	vitalsInterval time.Duration
	warmupDelay    time.Duration
	refreshRoster  func()
	refreshVitals  func()

	handles []Handle
}

func (p *poller) start() {
	p.stop()
	p.handles = []Handle{
		p.clock.After(p.warmupDelay, p.refreshRoster),
		p.clock.After(p.warmupDelay, p.refreshVitals),
		p.clock.Every(p.rosterInterval, p.refreshRoster),
		p.clock.Every(p.vitalsInterval, p.refreshVitals),
	}
}

func (p *poller) stop() {
	for _, h := range p.handles {
		h.Stop()
	}
	p.handles = nil
}
