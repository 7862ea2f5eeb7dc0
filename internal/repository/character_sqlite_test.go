package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *repository.SQLiteCharacterRepository {
	t.Helper()
	repo, err := repository.NewSQLiteCharacterRepository(filepath.Join(t.TempDir(), "characters.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCharacterSaveAndGet(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	char := &model.PlayerCharacterData{
		CharacterID: "char-1",
		UserID:      "user-1",
		Name:        "Tester",
		Gold:        1500,
		NonEquipItems: []model.CharacterItem{
			{ItemID: "potion", Amount: 10},
			{ItemID: "sword", Amount: 1},
		},
	}
	require.NoError(t, repo.SaveCharacter(ctx, char))

	got, err := repo.GetCharacter(ctx, "char-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "Tester", got.Name)
	assert.Equal(t, int64(1500), got.Gold)
	assert.Equal(t, char.NonEquipItems, got.NonEquipItems)
}

func TestCharacterGetMissing(t *testing.T) {
	repo := newSQLiteRepo(t)

	got, err := repo.GetCharacter(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCharacterSaveOverwrites(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	char := &model.PlayerCharacterData{
		CharacterID:   "char-1",
		UserID:        "user-1",
		Name:          "Tester",
		Gold:          1000,
		NonEquipItems: []model.CharacterItem{{ItemID: "potion", Amount: 10}},
	}
	require.NoError(t, repo.SaveCharacter(ctx, char))

	char.Gold = 400
	char.NonEquipItems[0].Amount = 7
	require.NoError(t, repo.SaveCharacter(ctx, char))

	got, err := repo.GetCharacter(ctx, "char-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(400), got.Gold)
	assert.Equal(t, 7, got.NonEquipItems[0].Amount)
}

func TestCharacterStats(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCharacter(ctx, &model.PlayerCharacterData{
		CharacterID:   "char-1",
		UserID:        "user-1",
		Name:          "A",
		NonEquipItems: []model.CharacterItem{},
	}))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["total_characters"])
}

func TestAuditRepository(t *testing.T) {
	repo := newSQLiteRepo(t)
	audit, err := repository.NewSQLiteAuditRepository(repo.DB())
	require.NoError(t, err)
	ctx := context.Background()

	for i, op := range []string{model.AuditOpCreate, model.AuditOpBid, model.AuditOpBuyout} {
		require.NoError(t, audit.InsertRecord(ctx, &model.AuctionAuditRecord{
			CharacterID: "char-1",
			UserID:      "user-1",
			Operation:   op,
			AuctionID:   "a-1",
			Price:       int64(100 * (i + 1)),
		}))
	}

	records, total, err := audit.GetRecords(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, model.AuditOpBuyout, records[0].Operation)
	assert.False(t, records[0].CreatedAt.IsZero())

	records, total, err = audit.GetRecords(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 1)
	assert.Equal(t, model.AuditOpCreate, records[0].Operation)
}

func TestAuditDeleteOldRecords(t *testing.T) {
	repo := newSQLiteRepo(t)
	audit, err := repository.NewSQLiteAuditRepository(repo.DB())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, audit.InsertRecord(ctx, &model.AuctionAuditRecord{
		CharacterID: "char-1",
		UserID:      "user-1",
		Operation:   model.AuditOpBid,
		AuctionID:   "a-1",
	}))

	// A fresh record survives a 30 day threshold.
	deleted, err := audit.DeleteOldRecords(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// A zero threshold purges everything written before now.
	time.Sleep(10 * time.Millisecond)
	deleted, err = audit.DeleteOldRecords(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := audit.GetRecords(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
