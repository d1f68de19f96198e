package whatsapp

import (
	"sync"

	"github.com/mamadbah2/meatdesk/pkg/clients/anthropic"
)

// maxHistory bounds the turns replayed to the assistant per user.
const maxHistory = 10

// SessionManager keeps the recent assistant conversation of each user.
type SessionManager struct {
	sessions map[string][]anthropic.Message
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string][]anthropic.Message),
	}
}

// History returns a copy of the conversation of a user.
func (sm *SessionManager) History(userID string) []anthropic.Message {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]anthropic.Message(nil), sm.sessions[userID]...)
}

// Append records one question and its answer, dropping the oldest turns beyond maxHistory.
func (sm *SessionManager) Append(userID, question, answer string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	history := append(sm.sessions[userID],
		anthropic.Message{Role: "user", Content: question},
		anthropic.Message{Role: "assistant", Content: answer},
	)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	sm.sessions[userID] = history
}

// ClearSession removes a user's session.
func (sm *SessionManager) ClearSession(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}
