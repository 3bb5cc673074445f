package session

import (
	"sync"
)

// DefaultChatCapacity bounds the in-memory chat window.
const DefaultChatCapacity = 100

// Store holds the process-wide chat window, roster, vitals and status.
// Its lifecycle is tied to the process, not to any one session: roster and
// vitals are reset to empty across sessions, the chat window survives
// reconnects and is only ever trimmed by capacity.
type Store struct {
	mu      sync.RWMutex
	chatCap int
	chat    []ChatMessage
	players []PlayerRecord
	vitals  VitalsSnapshot
	status  Status
}

func NewStore(chatCapacity int) *Store {
	if chatCapacity <= 0 {
		chatCapacity = DefaultChatCapacity
	}
	return &Store{chatCap: chatCapacity}
}

// AppendChat adds a message to the window, evicting the oldest entry once
// the capacity is exceeded.
func (s *Store) AppendChat(msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msg)
	if len(s.chat) > s.chatCap {
		s.chat = s.chat[len(s.chat)-s.chatCap:]
	}
}

// ChatHistory returns a copy of the current window, oldest first.
func (s *Store) ChatHistory() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}

func (s *Store) SetPlayers(players []PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = players
}

func (s *Store) Players() []PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlayerRecord, len(s.players))
	copy(out, s.players)
	return out
}

func (s *Store) SetVitals(v VitalsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vitals = v
}

func (s *Store) Vitals() VitalsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vitals
}

func (s *Store) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ClearSessionData resets roster and vitals to their empty values. Called on
// every transition out of Connected. The chat window is left intact.
func (s *Store) ClearSessionData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = nil
	s.vitals = emptyVitals()
}
