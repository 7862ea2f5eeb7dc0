package ledger

import (
	"errors"
	"sync"

	"arpg-auction-gateway/internal/model"
)

// Mutation errors.
var (
	ErrInvalidSlot       = errors.New("invalid inventory slot")
	ErrInsufficientItems = errors.New("insufficient items in slot")
	ErrInsufficientGold  = errors.New("insufficient gold")
)

// Ledger is the sole mutator of character gold and inventory in this
// process. It also serializes auction flows per character: Lock must be held
// from validation through the remote call to the commit, so two concurrent
// flows for one character can never validate against the same pre-commit
// state. Different characters never contend.
type Ledger struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// lockEntry is one character's serializer lock. refs counts the flows that
// hold or are waiting for it; the entry is dropped when the last one
// unlocks, so the map never accumulates entries for idle characters.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the character's serializer lock and returns the unlock func.
// At most one validate-remote-commit sequence is in flight per character
// while the lock is held. The unlock func must be called exactly once.
func (l *Ledger) Lock(characterID string) func() {
	l.mu.Lock()
	e, ok := l.locks[characterID]
	if !ok {
		e = &lockEntry{}
		l.locks[characterID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, characterID)
		}
		l.mu.Unlock()
	}
}

// DebitGold removes amount gold from the character. The caller must hold the
// character's lock. Gold never goes negative: the debit fails if the balance
// is short.
func (l *Ledger) DebitGold(c *model.PlayerCharacterData, amount int64) error {
	if amount < 0 {
		return ErrInsufficientGold
	}
	if c.Gold < amount {
		return ErrInsufficientGold
	}
	c.Gold -= amount
	return nil
}

// RemoveItems removes amount units from the slot at index. The caller must
// hold the character's lock. Removal never exceeds what the slot holds; an
// emptied slot keeps its position so client slot indexes stay stable.
func (l *Ledger) RemoveItems(c *model.PlayerCharacterData, index, amount int) error {
	if index < 0 || index >= len(c.NonEquipItems) {
		return ErrInvalidSlot
	}
	if amount <= 0 || c.NonEquipItems[index].Amount < amount {
		return ErrInsufficientItems
	}
	c.NonEquipItems[index].Amount -= amount
	return nil
}
