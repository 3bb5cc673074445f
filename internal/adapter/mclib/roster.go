package mclib

import (
	"crypto/md5"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/craftrelay/backend/internal/adapter"
)

// The protocol library does not surface the tab list, so the roster is
// recovered from the server's join/leave announcements: the raw translate
// key form some servers relay, and the rendered vanilla wording.
var (
	joinedKeyRe  = regexp.MustCompile(`multiplayer\.player\.joined\s+\[(\w{1,16})\]`)
	joinedTextRe = regexp.MustCompile(`^(\w{1,16}) joined the game`)
	leftKeyRe    = regexp.MustCompile(`multiplayer\.player\.left\s+\[(\w{1,16})\]`)
	leftTextRe   = regexp.MustCompile(`^(\w{1,16}) left the game`)
)

func matchJoined(text string) (string, bool) {
	if m := joinedKeyRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := joinedTextRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

func matchLeft(text string) (string, bool) {
	if m := leftKeyRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := leftTextRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// roster is the adapter's live player set, keyed by username.
type roster struct {
	mu      sync.Mutex
	players map[string]adapter.Player
}

func newRoster() *roster {
	return &roster{players: make(map[string]adapter.Player)}
}

func (r *roster) add(username string) (adapter.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[username]; ok {
		return p, false
	}
	p := adapter.Player{
		Username: username,
		UUID:     offlineUUID(username),
	}
	r.players[username] = p
	return p, true
}

func (r *roster) remove(username string) (adapter.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[username]
	if !ok {
		return adapter.Player{}, false
	}
	delete(r.players, username)
	return p, true
}

func (r *roster) snapshot() []adapter.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]adapter.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// offlineUUID derives the stable offline-mode UUID for a username: the MD5
// of "OfflinePlayer:<name>" with version-3 and RFC 4122 variant bits set.
func offlineUUID(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	u, err := uuid.FromBytes(sum[:])
	if err != nil {
		return ""
	}
	return u.String()
}
