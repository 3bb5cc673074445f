package session

import (
	"time"
)

// Reconnect policy constants. The floor is both the starting backoff value
// and the value restored after every successful login.
const (
	ReconnectFloor   = 5 * time.Second
	ReconnectCeiling = 300 * time.Second
	ThrottleMinimum  = 60 * time.Second

	// waitMargin pads server-mandated wait times so the retry does not
	// arrive a moment too early and get rejected again.
	waitMargin = 5 * time.Second
)

// reconnector owns retry attempt count, backoff state, the last disconnect
// reason and the single pending retry timer. It is always accessed under the
// Machine mutex.
type reconnector struct {
	attempts   int
	backoff    time.Duration
	lastReason string
	manual     bool
	pending    Handle
	detector   ThrottleDetector
}

func newReconnector(detector ThrottleDetector) *reconnector {
	if detector == nil {
		detector = DefaultThrottleDetector
	}
	return &reconnector{
		backoff:  ReconnectFloor,
		detector: detector,
	}
}

// reset restores attempt and backoff state to the post-login baseline.
// It does not touch the manual flag or any pending timer.
func (r *reconnector) reset() {
	r.attempts = 0
	r.backoff = ReconnectFloor
	r.lastReason = ""
}

// cancelPending stops the pending retry timer, if any. At most one pending
// retry exists at any time.
func (r *reconnector) cancelPending() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

// nextDelay advances the attempt count and computes the delay for the next
// retry. A reason-mandated wait gets the safety margin added; a throttling
// reason uses the minimum delay scaled linearly with the attempt count so
// repeated throttling backs off. Without a reason-derived delay the current
// backoff is used, doubling (capped at the ceiling) once more than three
// attempts have failed.
func (r *reconnector) nextDelay() time.Duration {
	r.attempts++

	if r.lastReason != "" {
		text := reasonText(r.lastReason)
		if wait, ok := extractWait(text); ok {
			return wait + waitMargin
		}
		if r.detector(text) {
			return time.Duration(float64(ThrottleMinimum) * (1 + 0.5*float64(r.attempts)))
		}
	}

	if r.attempts > 3 {
		r.backoff *= 2
		if r.backoff > ReconnectCeiling {
			r.backoff = ReconnectCeiling
		}
	}
	return r.backoff
}
