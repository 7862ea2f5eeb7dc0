package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"arpg-auction-gateway/internal/model"
)

// MySQLCharacterRepository implements CharacterRepository using MySQL, for
// deployments where the game world database already lives there.
type MySQLCharacterRepository struct {
	db *sql.DB
}

// NewMySQLCharacterRepository creates a new MySQL character repository.
func NewMySQLCharacterRepository(db *sql.DB) (*MySQLCharacterRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS characters (
		character_id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(64) NOT NULL,
		gold BIGINT NOT NULL DEFAULT 0,
		items_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_characters_user (user_id)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create characters table: %w", err)
	}
	return &MySQLCharacterRepository{db: db}, nil
}

// GetCharacter loads a character by id.
func (r *MySQLCharacterRepository) GetCharacter(ctx context.Context, characterID string) (*model.PlayerCharacterData, error) {
	query := `SELECT character_id, user_id, name, gold, items_json FROM characters WHERE character_id = ? LIMIT 1`

	var char model.PlayerCharacterData
	var itemsJSON string

	err := r.db.QueryRowContext(ctx, query, characterID).Scan(
		&char.CharacterID, &char.UserID, &char.Name, &char.Gold, &itemsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	if err := json.Unmarshal([]byte(itemsJSON), &char.NonEquipItems); err != nil {
		return nil, fmt.Errorf("failed to parse character items: %w", err)
	}
	return &char, nil
}

// SaveCharacter inserts or updates a character.
func (r *MySQLCharacterRepository) SaveCharacter(ctx context.Context, char *model.PlayerCharacterData) error {
	itemsJSON, err := json.Marshal(char.NonEquipItems)
	if err != nil {
		return fmt.Errorf("failed to serialize character items: %w", err)
	}

	query := `
		INSERT INTO characters (character_id, user_id, name, gold, items_json, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			user_id = VALUES(user_id),
			name = VALUES(name),
			gold = VALUES(gold),
			items_json = VALUES(items_json),
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query, char.CharacterID, char.UserID, char.Name, char.Gold, string(itemsJSON))
	if err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

// GetStats returns statistics about the character database.
func (r *MySQLCharacterRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM characters").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_characters"] = count

	var lastSave sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM characters").Scan(&lastSave); err == nil && lastSave.Valid {
		stats["last_save"] = lastSave.Time
	}

	return stats, nil
}

// Close closes the database connection.
func (r *MySQLCharacterRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLCharacterRepository implements CharacterRepository
var _ CharacterRepository = (*MySQLCharacterRepository)(nil)
