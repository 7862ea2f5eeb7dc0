package repository

import (
	"context"
	"time"

	"arpg-auction-gateway/internal/model"
)

// CharacterRepository defines character persistence. Characters are loaded at
// login and written back at logout and after auction commits; between those
// points the in-process copy is authoritative.
type CharacterRepository interface {
	// GetCharacter loads a character by id. Returns nil without error when
	// the character does not exist.
	GetCharacter(ctx context.Context, characterID string) (*model.PlayerCharacterData, error)

	// SaveCharacter inserts or updates a character.
	SaveCharacter(ctx context.Context, char *model.PlayerCharacterData) error

	// GetStats returns statistics about the character database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// AuditRepository defines storage for committed auction operations.
type AuditRepository interface {
	// InsertRecord appends one audit record.
	InsertRecord(ctx context.Context, rec *model.AuctionAuditRecord) error

	// GetRecords returns records newest first, with the total count.
	GetRecords(ctx context.Context, limit, offset int) ([]model.AuctionAuditRecord, int64, error)

	// DeleteOldRecords removes records older than the threshold and returns
	// how many were removed.
	DeleteOldRecords(ctx context.Context, threshold time.Duration) (int64, error)

	// Close closes the repository connection.
	Close() error
}
