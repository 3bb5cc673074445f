// Package mock is a synthetic game adapter for developing the frontend and
// the relay without a reachable game server. It logs in after a short delay,
// chatters, and wanders its vitals.
package mock

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/craftrelay/backend/internal/adapter"
)

var mockPlayers = []string{"Steve", "Alex", "Herobrine", "Notch", "Dinnerbone"}

var mockChatter = []string{
	"anyone seen my diamonds?",
	"creeper blew up my base again",
	"selling dirt, 1 emerald per stack",
	"who built the giant chicken?",
	"afk for a bit",
}

// New returns a synthetic adapter. The config is validated the same way the
// real factory validates it so dev mode exercises the same error paths.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bot{
		username: cfg.Username,
		events:   make(chan adapter.Event, 256),
		done:     make(chan struct{}),
		players:  map[string]adapter.Player{},
		health:   20,
		food:     20,
	}
	go b.run()
	return b, nil
}

type Bot struct {
	username string
	events   chan adapter.Event
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	spawned bool
	ended   bool
	health  float64
	food    float64
	players map[string]adapter.Player
}

func (b *Bot) run() {
	// Simulated handshake.
	select {
	case <-b.done:
		b.finish()
		return
	case <-time.After(300 * time.Millisecond):
	}

	b.mu.Lock()
	b.spawned = true
	b.players[b.username] = adapter.Player{Username: b.username, Ping: 0, UUID: "00000000-0000-3000-8000-000000000000"}
	b.mu.Unlock()
	b.events <- adapter.Event{Kind: adapter.Login}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-b.done:
			b.finish()
			return
		case <-ticker.C:
			tick++
			b.advance(tick)
		}
	}
}

func (b *Bot) advance(tick int) {
	switch {
	case tick%7 == 3:
		name := mockPlayers[rand.Intn(len(mockPlayers))]
		b.mu.Lock()
		_, present := b.players[name]
		var p adapter.Player
		if !present {
			p = adapter.Player{Username: name, Ping: 20 + rand.Intn(80)}
			b.players[name] = p
		}
		b.mu.Unlock()
		if !present {
			b.events <- adapter.Event{Kind: adapter.PlayerJoined, Player: p}
		}
	case tick%11 == 6:
		b.mu.Lock()
		var p adapter.Player
		removed := false
		for name, cand := range b.players {
			if name != b.username {
				p = cand
				delete(b.players, name)
				removed = true
				break
			}
		}
		b.mu.Unlock()
		if removed {
			b.events <- adapter.Event{Kind: adapter.PlayerLeft, Player: p}
		}
	case tick%5 == 0:
		b.mu.Lock()
		b.health = float64(14 + rand.Intn(7))
		b.food = float64(12 + rand.Intn(9))
		b.mu.Unlock()
		b.events <- adapter.Event{Kind: adapter.HealthChanged}
	default:
		b.events <- adapter.Event{
			Kind: adapter.Chat,
			Text: fmt.Sprintf("<%s> %s", mockPlayers[rand.Intn(len(mockPlayers))], mockChatter[rand.Intn(len(mockChatter))]),
		}
	}
}

func (b *Bot) finish() {
	b.mu.Lock()
	b.ended = true
	b.mu.Unlock()
	b.events <- adapter.Event{Kind: adapter.End}
	close(b.events)
}

func (b *Bot) Events() <-chan adapter.Event { return b.events }

// SendChat echoes the line back as if the server relayed it. The ended check
// keeps a racing send from hitting the closed event channel.
func (b *Bot) SendChat(text string) error {
	b.mu.Lock()
	ended := b.ended
	b.mu.Unlock()
	if ended {
		return nil
	}
	b.events <- adapter.Event{Kind: adapter.Chat, Text: fmt.Sprintf("<%s> %s", b.username, text)}
	return nil
}

func (b *Bot) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bot) Username() string { return b.username }

func (b *Bot) Players() []adapter.Player {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]adapter.Player, 0, len(b.players))
	for _, p := range b.players {
		out = append(out, p)
	}
	return out
}

func (b *Bot) Health() (health, food float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health, b.food, b.spawned
}

func (b *Bot) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spawned
}

func (b *Bot) Sleeping() bool { return false }

func (b *Bot) GameMode() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.spawned {
		return "", false
	}
	return "creative", true
}

func (b *Bot) Experience() (adapter.Experience, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.spawned {
		return adapter.Experience{}, false
	}
	return adapter.Experience{Level: 30, Points: 1395, Progress: 0.5}, true
}

func (b *Bot) ArmorPoints() (int, bool) { return 0, false }

func (b *Bot) Position() (adapter.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.spawned {
		return adapter.Position{}, false
	}
	return adapter.Position{X: 128, Y: 64, Z: -40}, true
}
