package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/repository"
)

// CharacterService owns the character lifecycle around a session: load at
// login, write back at logout and after auction commits. It keeps a registry
// of active characters so a character id logged in on two connections
// resolves to ONE live instance: the ledger serializes flows per character
// id, which only holds if every session mutates the same copy of the gold
// and inventory state.
type CharacterService struct {
	repo repository.CharacterRepository

	mu     sync.Mutex
	active map[string]*activeCharacter
}

// activeCharacter refcounts the sessions sharing one live instance. The
// character is persisted and released only when the last session ends.
type activeCharacter struct {
	char *model.PlayerCharacterData
	refs int
}

// NewCharacterService creates a new character service.
// Returns nil if repo is nil (required dependency).
func NewCharacterService(repo repository.CharacterRepository) *CharacterService {
	if repo == nil {
		return nil
	}
	return &CharacterService{
		repo:   repo,
		active: make(map[string]*activeCharacter),
	}
}

// Login resolves the character for a session. If the character is already
// active on another session the live instance is shared, never reloaded from
// storage: a fresh copy would let both sessions validate against the same
// persisted balance. A missing character is an error here: sessions only
// bind characters that exist.
func (s *CharacterService) Login(ctx context.Context, characterID string) (*model.PlayerCharacterData, error) {
	s.mu.Lock()
	if e, ok := s.active[characterID]; ok {
		e.refs++
		s.mu.Unlock()
		log.Printf("[CharacterService] Character %s joined on another session (refs=%d)", characterID, e.refs)
		return e.char, nil
	}
	s.mu.Unlock()

	char, err := s.repo.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load character %s: %w", characterID, err)
	}
	if char == nil {
		return nil, fmt.Errorf("character %s not found", characterID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.active[characterID]; ok {
		// Another session won the load race; its instance is the live one.
		e.refs++
		return e.char, nil
	}
	s.active[characterID] = &activeCharacter{char: char, refs: 1}

	log.Printf("[CharacterService] Character logged in: %s (%s)", char.Name, char.CharacterID)
	return char, nil
}

// Persist writes the character's current state back to storage. Called after
// auction commits and at logout; failures are logged by callers and never
// roll back an already-committed ledger mutation.
func (s *CharacterService) Persist(ctx context.Context, char *model.PlayerCharacterData) error {
	if char == nil {
		return nil
	}
	if err := s.repo.SaveCharacter(ctx, char); err != nil {
		return fmt.Errorf("failed to persist character %s: %w", char.CharacterID, err)
	}
	return nil
}

// Logout drops one session's claim on the character. The character stays
// active while other sessions still share it; the last logout persists and
// releases the instance.
func (s *CharacterService) Logout(ctx context.Context, char *model.PlayerCharacterData) {
	if char == nil {
		return
	}

	s.mu.Lock()
	if e, ok := s.active[char.CharacterID]; ok {
		e.refs--
		if e.refs > 0 {
			s.mu.Unlock()
			log.Printf("[CharacterService] Character %s left a session (refs=%d)", char.CharacterID, e.refs)
			return
		}
		delete(s.active, char.CharacterID)
	}
	s.mu.Unlock()

	if err := s.Persist(ctx, char); err != nil {
		log.Printf("[CharacterService] Logout persist failed for %s: %v", char.CharacterID, err)
		return
	}
	log.Printf("[CharacterService] Character logged out: %s (%s)", char.Name, char.CharacterID)
}
