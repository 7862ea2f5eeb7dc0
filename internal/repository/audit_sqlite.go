package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"arpg-auction-gateway/internal/model"
)

// SQLiteAuditRepository implements AuditRepository using SQLite. It usually
// shares the character repository's database handle.
type SQLiteAuditRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteAuditRepository creates the audit table if needed and returns the
// repository.
func NewSQLiteAuditRepository(db *sql.DB) (*SQLiteAuditRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS auction_audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		character_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		auction_id TEXT NOT NULL,
		amount INTEGER NOT NULL DEFAULT 0,
		price INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_character ON auction_audit(character_id);
	CREATE INDEX IF NOT EXISTS idx_audit_created ON auction_audit(created_at);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}
	return &SQLiteAuditRepository{db: db}, nil
}

// InsertRecord appends one audit record.
func (r *SQLiteAuditRepository) InsertRecord(ctx context.Context, rec *model.AuctionAuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO auction_audit (character_id, user_id, operation, auction_id, amount, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.CharacterID, rec.UserID, rec.Operation, rec.AuctionID, rec.Amount, rec.Price, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// GetRecords returns records newest first, with the total count.
func (r *SQLiteAuditRepository) GetRecords(ctx context.Context, limit, offset int) ([]model.AuctionAuditRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, character_id, user_id, operation, auction_id, amount, price, created_at
		FROM auction_audit
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := []model.AuctionAuditRecord{}
	for rows.Next() {
		var rec model.AuctionAuditRecord
		if err := rows.Scan(&rec.ID, &rec.CharacterID, &rec.UserID, &rec.Operation,
			&rec.AuctionID, &rec.Amount, &rec.Price, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM auction_audit").Scan(&total); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// DeleteOldRecords removes records older than the threshold.
func (r *SQLiteAuditRepository) DeleteOldRecords(ctx context.Context, threshold time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-threshold)

	result, err := r.db.ExecContext(ctx, `DELETE FROM auction_audit WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Printf("[SQLiteAuditRepository] Purged %d audit records older than %v", deleted, threshold)
	}
	return deleted, nil
}

// Close is a no-op when the handle is shared with the character repository;
// the owner closes it.
func (r *SQLiteAuditRepository) Close() error {
	return nil
}

// Ensure SQLiteAuditRepository implements AuditRepository
var _ AuditRepository = (*SQLiteAuditRepository)(nil)
