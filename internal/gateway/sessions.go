package gateway

import (
	"sync"

	"arpg-auction-gateway/internal/model"
)

// SessionRegistry maps connection ids to the character bound to them.
// A connection has no character until login completes; requests arriving
// before that resolve to nothing and are dropped by the handlers.
type SessionRegistry struct {
	mu    sync.RWMutex
	chars map[string]*model.PlayerCharacterData
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		chars: make(map[string]*model.PlayerCharacterData),
	}
}

// Bind associates a logged-in character with a connection.
func (r *SessionRegistry) Bind(connID string, char *model.PlayerCharacterData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chars[connID] = char
}

// Unbind removes and returns the character bound to a connection, if any.
// The character data itself outlives the connection; the caller decides when
// to persist and release it.
func (r *SessionRegistry) Unbind(connID string) *model.PlayerCharacterData {
	r.mu.Lock()
	defer r.mu.Unlock()
	char := r.chars[connID]
	delete(r.chars, connID)
	return char
}

// Character resolves the character bound to a connection.
func (r *SessionRegistry) Character(connID string) (*model.PlayerCharacterData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	char, ok := r.chars[connID]
	return char, ok
}

// Count returns the number of bound sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chars)
}
