package session

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Disconnect reasons arrive in whatever shape the server chose: plain text,
// a chat component object with text/translate fields, or a JSON-encoded
// string. Extraction is best effort; an unrecognized shape just falls through
// to the raw string.

type reasonComponent struct {
	Text      string `json:"text"`
	Translate string `json:"translate"`
}

// reasonText recovers a human-readable string from a raw disconnect reason.
func reasonText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}
	var comp reasonComponent
	if err := json.Unmarshal([]byte(trimmed), &comp); err != nil {
		return raw
	}
	if comp.Text != "" {
		return comp.Text
	}
	if comp.Translate != "" {
		return comp.Translate
	}
	return raw
}

var (
	waitSecondsRe = regexp.MustCompile(`(?i)wait (\d+) seconds`)
	waitMinutesRe = regexp.MustCompile(`(?i)wait (\d+) minutes?`)
)

// extractWait finds an explicit "wait N seconds" / "wait N minutes"
// directive in the reason text. Absence of a match is not an error.
func extractWait(text string) (time.Duration, bool) {
	if m := waitSecondsRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return time.Duration(n) * time.Second, true
		}
	}
	if m := waitMinutesRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return time.Duration(n) * time.Minute, true
		}
	}
	return 0, false
}

// ThrottleDetector reports whether a reason text indicates connection
// throttling. The default matches the vanilla server wording; deployments
// against servers with different wording can swap it out.
type ThrottleDetector func(text string) bool

// DefaultThrottleDetector matches the vanilla throttle messages.
func DefaultThrottleDetector(text string) bool {
	return strings.Contains(text, "throttled") || strings.Contains(text, "before reconnecting")
}
