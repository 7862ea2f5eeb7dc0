package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"arpg-auction-gateway/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteCharacterRepository implements CharacterRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteCharacterRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCharacterRepository creates a new SQLite character repository.
// dbPath is the path to the SQLite database file (e.g., "./data/characters.db")
func NewSQLiteCharacterRepository(dbPath string) (*SQLiteCharacterRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createCharacterTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteCharacterRepository] Initialized with database: %s", dbPath)
	return &SQLiteCharacterRepository{db: db}, nil
}

func createCharacterTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS characters (
		character_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		gold INTEGER NOT NULL DEFAULT 0,
		items_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_characters_user ON characters(user_id);
	`
	_, err := db.Exec(query)
	return err
}

// GetCharacter loads a character by id.
func (r *SQLiteCharacterRepository) GetCharacter(ctx context.Context, characterID string) (*model.PlayerCharacterData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT character_id, user_id, name, gold, items_json FROM characters WHERE character_id = ?`

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
func (r *SQLiteCharacterRepository) SaveCharacter(ctx context.Context, char *model.PlayerCharacterData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	itemsJSON, err := json.Marshal(char.NonEquipItems)
	if err != nil {
		return fmt.Errorf("failed to serialize character items: %w", err)
	}

	query := `
		INSERT INTO characters (character_id, user_id, name, gold, items_json, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(character_id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			gold = excluded.gold,
			items_json = excluded.items_json,
			updated_at = datetime('now')`

	_, err = r.db.ExecContext(ctx, query, char.CharacterID, char.UserID, char.Name, char.Gold, string(itemsJSON))
	if err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

// GetStats returns statistics about the character database.
func (r *SQLiteCharacterRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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

	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// DB exposes the underlying handle so the audit repository can share the
// same database file.
func (r *SQLiteCharacterRepository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection.
func (r *SQLiteCharacterRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteCharacterRepository implements CharacterRepository
var _ CharacterRepository = (*SQLiteCharacterRepository)(nil)
