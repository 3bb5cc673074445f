// Package mclib implements the game adapter on top of the go-mclib client.
// The session engine owns reconnection, so the underlying client's own
// retry loop is disabled and every connection ends with a single End event.
package mclib

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mcclient "github.com/go-mclib/client/pkg/client"
	chatmod "github.com/go-mclib/client/pkg/client/modules/chat"
	"github.com/go-mclib/client/pkg/client/modules/protocol"
	"github.com/go-mclib/client/pkg/client/modules/self"
	"github.com/go-mclib/data/pkg/data/packet_ids"
	"github.com/go-mclib/data/pkg/packets"
	jp "github.com/go-mclib/protocol/java_protocol"

	"github.com/craftrelay/backend/internal/adapter"
)

// New opens a connection per cfg. Construction fails only on invalid
// config; network and login failures surface asynchronously as ErrorEvent
// followed by End, the same shape as any mid-session loss.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bot{
		username: cfg.Username,
		events:   make(chan adapter.Event, 256),
		roster:   newRoster(),
	}

	c := mcclient.New(cfg.Addr(), cfg.Username, cfg.Auth != adapter.AuthOffline)
	c.MaxReconnectAttempts = 0

	proto := protocol.New()
	proto.TreatTransferAsDisconnect = true
	c.Register(proto)

	b.self = self.New()
	c.Register(b.self)

	b.chat = chatmod.New()
	c.Register(b.chat)

	b.self.OnSpawn(b.onSpawn)
	b.self.OnHealthSet(b.onHealthSet)
	b.self.OnDeath(b.onDeath)
	b.self.OnGameEvent(b.onGameEvent)

	b.chat.OnPlayerChat(b.onPlayerChat)
	b.chat.OnDisguisedChat(b.onPlayerChat)
	b.chat.OnSystemChat(b.onSystemChat)

	c.RegisterHandler(b.handleDisconnectPacket)

	b.client = c
	go b.run()
	return b, nil
}

// Bot adapts one go-mclib client instance. Callback-driven fields are
// cached under mu because the poller reads them from another goroutine.
type Bot struct {
	client *mcclient.Client
	self   *self.Module
	chat   *chatmod.Module
	roster *roster

	username string
	events   chan adapter.Event

	mu      sync.Mutex
	spawned bool
	health  float64
	food    float64
	dead    bool
	closed  bool
}

func (b *Bot) run() {
	err := b.client.ConnectAndStart(context.Background())

	b.mu.Lock()
	manual := b.closed
	b.mu.Unlock()

	if err != nil && !manual {
		b.events <- adapter.Event{Kind: adapter.ErrorEvent, Err: err}
	}
	b.events <- adapter.Event{Kind: adapter.End}
	close(b.events)
}

func (b *Bot) Events() <-chan adapter.Event { return b.events }

func (b *Bot) SendChat(text string) error {
	if cmd, ok := strings.CutPrefix(text, "/"); ok {
		return b.client.SendCommand(cmd)
	}
	return b.client.SendChatMessage(text)
}

// Close tears the connection down without triggering the client's own
// reconnect. Idempotent.
func (b *Bot) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	_ = b.client.Disconnect(true)
}

func (b *Bot) Username() string { return b.username }

func (b *Bot) Players() []adapter.Player { return b.roster.snapshot() }

func (b *Bot) Health() (health, food float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health, b.food, b.spawned
}

func (b *Bot) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spawned && !b.dead
}

// Sleeping is not tracked by go-mclib; the engine substitutes the safe
// default.
func (b *Bot) Sleeping() bool { return false }

var gameModeNames = map[uint8]string{
	0: "survival",
	1: "creative",
	2: "adventure",
	3: "spectator",
}

func (b *Bot) GameMode() (string, bool) {
	b.mu.Lock()
	spawned := b.spawned
	b.mu.Unlock()
	if !spawned {
		return "", false
	}
	if name, ok := gameModeNames[b.self.Gamemode()]; ok {
		return name, true
	}
	return "", false
}

func (b *Bot) Experience() (adapter.Experience, bool) {
	b.mu.Lock()
	spawned := b.spawned
	b.mu.Unlock()
	if !spawned {
		return adapter.Experience{}, false
	}
	return adapter.Experience{
		Level:    int(b.self.Level()),
		Points:   int(b.self.TotalExperience()),
		Progress: float64(b.self.ExperienceBar()),
	}, true
}

// ArmorPoints is not exposed by go-mclib.
func (b *Bot) ArmorPoints() (int, bool) { return 0, false }

func (b *Bot) Position() (adapter.Position, bool) {
	b.mu.Lock()
	spawned := b.spawned
	b.mu.Unlock()
	if !spawned {
		return adapter.Position{}, false
	}
	x, y, z := b.self.Position()
	return adapter.Position{
		X: x,
		Y: y,
		Z: z,
	}, true
}

// callbacks, all invoked from the client's packet loop goroutine

func (b *Bot) onSpawn() {
	b.mu.Lock()
	first := !b.spawned
	b.spawned = true
	b.dead = false
	if first {
		b.health = 20
		b.food = 20
	}
	b.mu.Unlock()

	if first {
		b.roster.add(b.username)
		b.events <- adapter.Event{Kind: adapter.Login}
		return
	}
	b.events <- adapter.Event{Kind: adapter.Spawned}
}

func (b *Bot) onHealthSet(health, food float32) {
	b.mu.Lock()
	b.health = float64(health)
	b.food = float64(food)
	b.mu.Unlock()
	b.events <- adapter.Event{Kind: adapter.HealthChanged}
}

func (b *Bot) onDeath() {
	b.mu.Lock()
	b.dead = true
	b.mu.Unlock()
	b.events <- adapter.Event{Kind: adapter.Died}
}

// gameEventChangeGameMode is the notification id the server sends when the
// controlled identity's game mode changes.
const gameEventChangeGameMode = 3

func (b *Bot) onGameEvent(event uint8, value float32) {
	if event != gameEventChangeGameMode {
		return
	}
	b.events <- adapter.Event{Kind: adapter.GameChanged}
}

func (b *Bot) onPlayerChat(sender, message string, isWhisper bool) {
	text := fmt.Sprintf("<%s> %s", sender, message)
	if isWhisper {
		text = fmt.Sprintf("%s whispers: %s", sender, message)
	}
	b.events <- adapter.Event{Kind: adapter.Chat, Text: text}
}

func (b *Bot) onSystemChat(message string, isOverlay bool) {
	if isOverlay {
		// Action bar spam (coordinates, minigame scores); not chat.
		return
	}

	if name, ok := matchJoined(message); ok && name != b.username {
		if p, added := b.roster.add(name); added {
			b.events <- adapter.Event{Kind: adapter.PlayerJoined, Player: p}
		}
	}
	if name, ok := matchLeft(message); ok && name != b.username {
		if p, removed := b.roster.remove(name); removed {
			b.events <- adapter.Event{Kind: adapter.PlayerLeft, Player: p}
		}
	}

	b.events <- adapter.Event{Kind: adapter.Chat, Text: message}
}

// handleDisconnectPacket records server-issued disconnect reasons so the
// engine can parse mandated wait times. The subsequent read failure ends the
// connection; the reason always precedes the End event.
func (b *Bot) handleDisconnectPacket(c *mcclient.Client, pkt *jp.WirePacket) {
	switch pkt.PacketID {
	case packet_ids.S2CDisconnectPlayID:
		var d packets.S2CDisconnectPlay
		if err := pkt.ReadInto(&d); err == nil {
			b.events <- adapter.Event{Kind: adapter.Kicked, Reason: string(d.Reason.Text)}
		}
	case packet_ids.S2CLoginDisconnectID:
		var d packets.S2CLoginDisconnectLogin
		if err := pkt.ReadInto(&d); err == nil {
			b.events <- adapter.Event{Kind: adapter.Kicked, Reason: string(d.Reason.Text)}
		}
	case packet_ids.S2CDisconnectConfigurationID:
		var d packets.S2CDisconnectConfiguration
		if err := pkt.ReadInto(&d); err == nil {
			b.events <- adapter.Event{Kind: adapter.Kicked, Reason: string(d.Reason.Text)}
		}
	}
}
