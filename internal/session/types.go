package session

import (
	"encoding/json"
	"time"
)

// State is the single process-wide session state. It is mutated only by the
// Machine.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	Reconnecting: "reconnecting",
}

var stateFromName = map[string]State{
	"disconnected": Disconnected,
	"connecting":   Connecting,
	"connected":    Connected,
	"reconnecting": Reconnecting,
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := stateFromName[name]; ok {
		*s = v
	}
	return nil
}

// Status is the connection status payload broadcast on every transition.
// Server falls back to the last known config, then to defaults, when no
// adapter is live.
type Status struct {
	Connected  bool   `json:"connected"`
	Connecting bool   `json:"connecting"`
	Username   string `json:"username"`
	Server     string `json:"server"`
}

// ChatCategory annotates system-generated chat entries.
type ChatCategory string

const (
	CategoryAdmin ChatCategory = "admin"
	CategoryJoin  ChatCategory = "join"
	CategoryLeave ChatCategory = "leave"
	CategoryDeath ChatCategory = "death"
)

// ChatMessage is one entry of the bounded chat window.
type ChatMessage struct {
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	IsSystem  bool         `json:"isSystem,omitempty"`
	Category  ChatCategory `json:"type,omitempty"`
}

// PlayerRecord is one roster entry. The roster is re-derived wholesale on
// each poll and sorted by username; no incremental diffing.
type PlayerRecord struct {
	Username string `json:"username"`
	Ping     int    `json:"ping"`
	UUID     string `json:"uuid"`
	IsBot    bool   `json:"isBot"`
}

// PositionSnapshot mirrors adapter.Position for the vitals payload.
type PositionSnapshot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ExperienceSnapshot mirrors adapter.Experience for the vitals payload.
type ExperienceSnapshot struct {
	Level    int     `json:"level"`
	Points   int     `json:"points"`
	Progress float64 `json:"progress"`
}

// VitalsSnapshot is the full controlled-identity vitals value. Whenever the
// session is not Connected it holds emptyVitals.
type VitalsSnapshot struct {
	Health     float64             `json:"health"`
	Food       float64             `json:"food"`
	IsAlive    bool                `json:"isAlive"`
	IsSleeping bool                `json:"isSleeping"`
	IsOperator bool                `json:"isOperator"`
	GameMode   string              `json:"gameMode,omitempty"`
	Position   *PositionSnapshot   `json:"position,omitempty"`
	Experience *ExperienceSnapshot `json:"experience,omitempty"`
	Armor      *int                `json:"armor,omitempty"`
}

// emptyVitals is the canonical not-connected vitals value.
func emptyVitals() VitalsSnapshot {
	return VitalsSnapshot{}
}
