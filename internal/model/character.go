package model

// CharacterItem is one non-equip inventory slot: an item reference and how
// many units the slot holds.
type CharacterItem struct {
	ItemID string `json:"item_id"`
	Amount int    `json:"amount"`
}

// PlayerCharacterData is the game server's authoritative view of a logged-in
// character. Gold and NonEquipItems are mutated only through the resource
// ledger's commit operations; nothing touches them speculatively before a
// remote call has confirmed.
type PlayerCharacterData struct {
	CharacterID   string          `json:"character_id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Gold          int64           `json:"gold"`
	NonEquipItems []CharacterItem `json:"non_equip_items"`
}

// HasItems reports whether the slot at index holds at least amount units.
func (c *PlayerCharacterData) HasItems(index, amount int) bool {
	if index < 0 || index >= len(c.NonEquipItems) {
		return false
	}
	return c.NonEquipItems[index].Amount >= amount
}
