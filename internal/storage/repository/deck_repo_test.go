package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/models"
)

func TestDeckRepository_RecordResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	deck := &models.Deck{
		Code:      "CEAQCAIFAEAAA",
		Regions:   []string{"Shadow Isles"},
		Champions: []string{},
		CardCount: 3,
	}

	require.NoError(t, repo.RecordResult(ctx, deck, true, first))
	require.NoError(t, repo.RecordResult(ctx, deck, false, first.Add(time.Hour)))
	require.NoError(t, repo.RecordResult(ctx, deck, true, first.Add(2*time.Hour)))

	stored, err := repo.GetByCode(ctx, "CEAQCAIFAEAAA")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 2, stored.Wins)
	assert.Equal(t, 1, stored.Losses)
	assert.InDelta(t, 2.0/3.0, stored.WinRate(), 1e-9)
	assert.Equal(t, []string{"Shadow Isles"}, stored.Regions)
	assert.Empty(t, stored.Champions)
	assert.True(t, stored.FirstPlayed.Equal(first), "first_played must keep the first game")
	assert.True(t, stored.LastPlayed.Equal(first.Add(2*time.Hour)))
}

func TestDeckRepository_RequiresCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)

	err := repo.RecordResult(context.Background(), &models.Deck{}, true, time.Now())
	assert.Error(t, err)
}

func TestDeckRepository_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordResult(ctx, &models.Deck{Code: "OLD"}, true, base))
	require.NoError(t, repo.Upsert(ctx, &models.Deck{Code: "NEW", LastPlayed: base.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &models.Deck{Code: "OLD", CardCount: 40, LastPlayed: base}))

	decks, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, "NEW", decks[0].Code)
	assert.Equal(t, "OLD", decks[1].Code)
	assert.Equal(t, 1, decks[1].Wins, "upsert must not change the record")
	assert.Equal(t, 40, decks[1].CardCount)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	missing, err := repo.GetByCode(ctx, "MISSING")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeckRepository_Merge(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordResult(ctx, &models.Deck{Code: "DECK"}, true, base))
	require.NoError(t, repo.Merge(ctx, &models.Deck{
		Code:        "DECK",
		Wins:        3,
		Losses:      2,
		FirstPlayed: base.Add(-24 * time.Hour),
		LastPlayed:  base.Add(-time.Hour),
	}))

	stored, err := repo.GetByCode(ctx, "DECK")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 4, stored.Wins)
	assert.Equal(t, 2, stored.Losses)
	assert.True(t, stored.FirstPlayed.Equal(base.Add(-24*time.Hour)))
	assert.True(t, stored.LastPlayed.Equal(base))
}
