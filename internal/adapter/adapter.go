// Package adapter defines the boundary between the relay and the game
// protocol client. The session engine consumes this interface only; concrete
// implementations live in subpackages.
package adapter

import (
	"errors"
	"fmt"
)

// AuthMode selects how the client authenticates with the server.
type AuthMode string

const (
	AuthOffline   AuthMode = "offline"
	AuthMicrosoft AuthMode = "microsoft"
	AuthMojang    AuthMode = "mojang"
)

// Config describes one connection attempt. It is immutable once a session
// starts; a new connect request replaces it wholesale.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Auth     AuthMode
}

var (
	ErrMissingHost     = errors.New("missing server host")
	ErrMissingUsername = errors.New("missing bot username")
)

// Validate rejects configs that can never produce a working connection.
// Rejected configs must never reach a factory.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Port)
	}
	if c.Username == "" {
		return ErrMissingUsername
	}
	return nil
}

// Addr returns the "host:port" form used in status payloads.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EventKind tags the inbound event union.
type EventKind int

const (
	Login EventKind = iota
	End
	Kicked
	ErrorEvent
	Chat
	PlayerJoined
	PlayerLeft
	HealthChanged
	GameChanged
	ExperienceChanged
	Spawned
	Died
	SleepStarted
	WokeUp
)

var eventKindNames = map[EventKind]string{
	Login:             "login",
	End:               "end",
	Kicked:            "kicked",
	ErrorEvent:        "error",
	Chat:              "chat",
	PlayerJoined:      "player_joined",
	PlayerLeft:        "player_left",
	HealthChanged:     "health_changed",
	GameChanged:       "game_changed",
	ExperienceChanged: "experience_changed",
	Spawned:           "spawned",
	Died:              "died",
	SleepStarted:      "sleep_started",
	WokeUp:            "woke_up",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is a single adapter lifecycle event. Only the fields relevant to the
// kind are populated: Reason for Kicked, Err for ErrorEvent, Text for Chat,
// Player for PlayerJoined/PlayerLeft.
type Event struct {
	Kind   EventKind
	Reason string
	Err    error
	Text   string
	Player Player
}

// Player is one entry of the adapter's live player set.
type Player struct {
	Username string
	Ping     int
	UUID     string
}

// Position is the controlled identity's world position.
type Position struct {
	X, Y, Z float64
}

// Experience is the controlled identity's XP state.
type Experience struct {
	Level    int
	Points   int
	Progress float64
}

// Adapter is a live game connection. All events arrive sequentially on the
// Events channel; the channel is closed after the End event. Read methods
// return ok=false (or zero values) while the underlying client has not yet
// populated the field.
type Adapter interface {
	// Events returns the inbound event stream. The stream terminates with
	// an End event followed by channel close.
	Events() <-chan Event

	// SendChat sends a chat line or, when prefixed with "/", a command.
	// It is a one-way send; no acknowledgement is awaited.
	SendChat(text string) error

	// Close tears the connection down. Idempotent.
	Close()

	Username() string
	Players() []Player
	Health() (health, food float64, ok bool)
	Alive() bool
	Sleeping() bool
	GameMode() (string, bool)
	Experience() (Experience, bool)
	ArmorPoints() (int, bool)
	Position() (Position, bool)
}

// Factory opens a new connection. A returned error is an adapter
// construction error; the caller decides whether to retry.
type Factory func(Config) (Adapter, error)
