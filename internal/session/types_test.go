package session

import (
	"encoding/json"
	"testing"
)

func TestStateMarshalJSON(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{Disconnected, `"disconnected"`},
		{Connecting, `"connecting"`},
		{Connected, `"connected"`},
		{Reconnecting, `"reconnecting"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.state)
		if err != nil {
			t.Errorf("Marshal(%v) error: %v", tt.state, err)
			continue
		}
		if string(data) != tt.expected {
			t.Errorf("Marshal(%v) = %s, want %s", tt.state, data, tt.expected)
		}
	}
}

func TestStateUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected State
	}{
		{`"connected"`, Connected},
		{`"reconnecting"`, Reconnecting},
		{`"disconnected"`, Disconnected},
	}

	for _, tt := range tests {
		var s State
		if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.input, err)
			continue
		}
		if s != tt.expected {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, s, tt.expected)
		}
	}
}

func TestChatMessageJSONShape(t *testing.T) {
	msg := ChatMessage{Text: "hello", IsSystem: true, Category: CategoryJoin}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["text"] != "hello" {
		t.Errorf("text = %v, want hello", decoded["text"])
	}
	if decoded["isSystem"] != true {
		t.Errorf("isSystem = %v, want true", decoded["isSystem"])
	}
	if decoded["type"] != "join" {
		t.Errorf("type = %v, want join", decoded["type"])
	}

	// Player-authored messages omit the system fields entirely.
	data, _ = json.Marshal(ChatMessage{Text: "hi"})
	decoded = nil
	json.Unmarshal(data, &decoded)
	if _, ok := decoded["isSystem"]; ok {
		t.Error("isSystem present on non-system message")
	}
	if _, ok := decoded["type"]; ok {
		t.Error("type present on uncategorized message")
	}
}

func TestEmptyVitalsOmitsOptionalFields(t *testing.T) {
	data, err := json.Marshal(emptyVitals())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, field := range []string{"gameMode", "position", "experience", "armor"} {
		if _, ok := decoded[field]; ok {
			t.Errorf("empty vitals includes optional field %q", field)
		}
	}
	if decoded["isAlive"] != false {
		t.Errorf("isAlive = %v, want false", decoded["isAlive"])
	}
}
