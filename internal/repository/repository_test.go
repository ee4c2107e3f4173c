package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"casino-server/internal/model"
)

func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB spins up a PostgreSQL container, applies the schema and
// returns a connection pool. Skips the test if Docker is unavailable.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return pool
}

func TestAccountRepository_Create(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "alice", 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int64(10000), user.Balance)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestAccountRepository_GetByID(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAccountRepository_GetOrCreate(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 7, "bob", 10000)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(10000), user.Balance)

	// Second call must not reset the balance.
	_, err = repo.SetBalance(ctx, 7, 500)
	require.NoError(t, err)

	user, created, err = repo.GetOrCreate(ctx, 7, "bob", 10000)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(500), user.Balance)
}

func TestAccountRepository_SetBalance(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	user, err := repo.SetBalance(ctx, 1, 12500)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), user.Balance)

	_, err = repo.SetBalance(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrNegativeBalance)

	user, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), user.Balance)

	_, err = repo.SetBalance(ctx, 999, 100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBetRepository_AppendAndList(t *testing.T) {
	pool := setupTestDB(t)
	accounts := NewAccountRepository(pool)
	bets := NewBetRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	data, err := model.EncodeGameData(model.GameDice, model.DiceGameData{
		Prediction: model.PredictionOver, TargetValue: 3, Result: 5,
	})
	require.NoError(t, err)

	first, err := bets.Append(ctx, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 100, Profit: 90, GameData: data,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := bets.Append(ctx, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 200, Profit: -200, GameData: data,
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	// Newest first.
	list, err := bets.ListByUser(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, int64(100), list[1].BetAmount)
	assert.Equal(t, int64(90), list[1].Profit)
	assert.Equal(t, model.GameDice, list[1].Game)
	assert.JSONEq(t, string(data), string(list[1].GameData))

	// Limit applies to the newest records.
	list, err = bets.ListByUser(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	// Other users see nothing.
	list, err = bets.ListByUser(ctx, 2, 50)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Settle(t *testing.T) {
	pool := setupTestDB(t)
	store := NewStore(pool)
	ctx := context.Background()

	_, created, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)
	require.True(t, created)

	data, err := model.EncodeGameData(model.GameDice, model.DiceGameData{
		Prediction: model.PredictionOver, TargetValue: 3, Result: 5,
	})
	require.NoError(t, err)

	user, bet, err := store.Settle(ctx, 1, 10090, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 100, Profit: 90, GameData: data,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10090), user.Balance)
	assert.NotZero(t, bet.ID)

	list, err := store.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(90), list[0].Profit)
}

func TestStore_SettleAtomicity(t *testing.T) {
	pool := setupTestDB(t)
	store := NewStore(pool)
	ctx := context.Background()

	_, _, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	// Unknown user: no ledger row must be written.
	_, _, err = store.Settle(ctx, 999, 100, &model.Bet{
		UserID: 999, Game: model.GameDice, BetAmount: 100, Profit: -100, GameData: []byte(`{}`),
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Invalid ledger row: the balance must stay untouched.
	_, _, err = store.Settle(ctx, 1, 9900, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 0, Profit: 0, GameData: []byte(`{}`),
	})
	assert.Error(t, err)

	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), user.Balance)

	list, err := store.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_SettleRejectsNegativeBalance(t *testing.T) {
	pool := setupTestDB(t)
	store := NewStore(pool)
	ctx := context.Background()

	_, _, err := store.GetOrCreateUser(ctx, 1, "alice", 10000)
	require.NoError(t, err)

	_, _, err = store.Settle(ctx, 1, -10, &model.Bet{
		UserID: 1, Game: model.GameDice, BetAmount: 100, Profit: -100, GameData: []byte(`{}`),
	})
	assert.ErrorIs(t, err, ErrNegativeBalance)
}
