package integration

import (
	"context"
	"testing"
	"time"

	"chess_arena/internal/domain"
	"chess_arena/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_Record_GetByRoomCode(t *testing.T) {
	pool := archivePool(t)
	if pool == nil {
		t.Skip("DATABASE_URL not set")
	}
	repo := repository.NewMatchRepository(pool)
	ctx := context.Background()

	code := gonanoid.MustGenerate("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", 6)
	tx := "5xTx"
	rec := &domain.MatchRecord{
		RoomCode:      code,
		EntryFee:      "5",
		WinnerSeat:    1,
		WinnerName:    "Bob",
		WinnerAddress: "bob-wallet",
		EndReason:     "timeout",
		PayoutAmount:  "9",
		PayoutOutcome: domain.PayoutSent,
		PayoutTx:      &tx,
		FinishedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.RecordMatch(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.GetByRoomCode(ctx, code)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].WinnerName)
	assert.Equal(t, "timeout", got[0].EndReason)
	assert.Equal(t, domain.PayoutSent, got[0].PayoutOutcome)
	require.NotNil(t, got[0].PayoutTx)
	assert.Equal(t, tx, *got[0].PayoutTx)
	assert.Nil(t, got[0].PayoutError)

	recent, err := repo.GetRecent(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
	require.NoError(t, repo.Ping(ctx))
}
