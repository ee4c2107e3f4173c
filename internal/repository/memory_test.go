package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-server/internal/model"
)

func TestMemoryStore_GetOrCreateUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	user, created, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(10000), user.Balance)

	_, err = store.SetBalance(ctx, 1, 500)
	require.NoError(t, err)

	user, created, err = store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(500), user.Balance)
}

func TestMemoryStore_SetBalance(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, _, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	_, err = store.SetBalance(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrNegativeBalance)

	_, err = store.SetBalance(ctx, 2, 100)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := store.SetBalance(ctx, 1, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), user.Balance)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, _, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	first.Balance = 42

	again, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), again.Balance)
}

func TestMemoryStore_ListBetsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.AppendBet(ctx, &model.Bet{
			UserID: 1, Game: model.GameDice, BetAmount: int64(100 + i), Profit: 0, GameData: []byte(`{}`),
		})
		require.NoError(t, err)
	}

	list, err := store.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(102), list[0].BetAmount)
	assert.Equal(t, int64(100), list[2].BetAmount)

	list, err = store.ListBets(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(102), list[0].BetAmount)
}

func TestMemoryStore_Settle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, _, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	user, bet, err := store.Settle(ctx, 1, 10090, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 100, Profit: 90, GameData: []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10090), user.Balance)
	assert.NotZero(t, bet.ID)

	// Failed settlement leaves both tables untouched.
	_, _, err = store.Settle(ctx, 2, 100, &model.Bet{
		UserID: 2, Game: model.GameDice, BetAmount: 100, Profit: -100, GameData: []byte(`{}`),
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	list, err := store.ListBets(ctx, 2, 50)
	require.NoError(t, err)
	assert.Empty(t, list)
}
