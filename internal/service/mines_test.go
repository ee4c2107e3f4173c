package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-server/internal/game/mines"
	"casino-server/internal/model"
)

func newMinesService(env *testEnv) *MinesService {
	return NewMinesService(env.store, env.sessions, env.locks, testMaxBet, zerolog.Nop())
}

// minesRound starts a round and hands back the session state so tests
// can steer reveals onto known cells.
func minesRound(t *testing.T, env *testEnv, svc *MinesService, bet int64, mineCount int) (*MinesState, map[int]bool) {
	t.Helper()
	out, err := svc.Start(context.Background(), 1, bet, mineCount)
	require.NoError(t, err)

	sess, err := env.sessions.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	mined := make(map[int]bool, len(sess.MinePositions))
	for _, p := range sess.MinePositions {
		mined[p] = true
	}
	return out, mined
}

func TestMinesService_StartEscrowsBet(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)

	out, err := svc.Start(context.Background(), 1, 100, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, 5, out.MineCount)
	assert.Empty(t, out.RevealedPositions)
	assert.Empty(t, out.MinePositions)
	assert.Equal(t, int64(testStartingBalance-100), out.Balance)
	assert.Equal(t, int64(testStartingBalance-100), env.balance(t, 1))

	// Escrow is not a settlement: no ledger row yet.
	bets, err := env.accounts.ListBets(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Empty(t, bets)
}

func TestMinesService_StartValidation(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	_, err := svc.Start(ctx, 1, 0, 5)
	assert.ErrorIs(t, err, mines.ErrInvalidBet)

	_, err = svc.Start(ctx, 1, 100, 0)
	assert.ErrorIs(t, err, mines.ErrInvalidMineCount)

	_, err = svc.Start(ctx, 1, 100, 25)
	assert.ErrorIs(t, err, mines.ErrInvalidMineCount)

	_, err = svc.Start(ctx, 1, testMaxBet+1, 5)
	assert.ErrorIs(t, err, ErrBetTooLarge)

	_, err = svc.Start(ctx, 1, testStartingBalance+1, 5)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, int64(testStartingBalance), env.balance(t, 1))
}

func TestMinesService_RevealSafeCell(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	start, mined := minesRound(t, env, svc, 100, 5)

	safe := -1
	for cell := 0; cell < mines.TotalCells; cell++ {
		if !mined[cell] {
			safe = cell
			break
		}
	}

	out, err := svc.Reveal(ctx, 1, start.SessionID, safe)
	require.NoError(t, err)
	assert.False(t, out.Exploded)
	assert.False(t, out.Settled)
	assert.Equal(t, []int{safe}, out.RevealedPositions)
	assert.Empty(t, out.MinePositions)
	assert.Greater(t, out.Multiplier, 1.0)

	// Same cell twice is rejected.
	_, err = svc.Reveal(ctx, 1, start.SessionID, safe)
	assert.ErrorIs(t, err, ErrCellRevealed)

	_, err = svc.Reveal(ctx, 1, start.SessionID, -1)
	assert.ErrorIs(t, err, ErrCellOutOfRange)
	_, err = svc.Reveal(ctx, 1, start.SessionID, mines.TotalCells)
	assert.ErrorIs(t, err, ErrCellOutOfRange)
}

func TestMinesService_RevealMineSettlesLoss(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	start, mined := minesRound(t, env, svc, 100, 5)

	mine := -1
	for cell := range mined {
		mine = cell
		break
	}

	out, err := svc.Reveal(ctx, 1, start.SessionID, mine)
	require.NoError(t, err)
	assert.True(t, out.Exploded)
	assert.True(t, out.Settled)
	assert.Len(t, out.MinePositions, 5)
	assert.Equal(t, int64(-100), out.Profit)
	// The bet left at escrow; the explosion does not move the balance
	// again.
	assert.Equal(t, int64(testStartingBalance-100), out.Balance)

	// The loss is ledgered.
	bets, err := env.accounts.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, model.GameMines, bets[0].Game)
	assert.Equal(t, int64(-100), bets[0].Profit)

	data, err := bets[0].DecodeGameData()
	require.NoError(t, err)
	minesData, ok := data.(model.MinesGameData)
	require.True(t, ok)
	assert.Equal(t, 0, minesData.TilesRevealed)
	assert.Contains(t, minesData.RevealedPositions, mine)

	// The session is gone.
	_, err = svc.Reveal(ctx, 1, start.SessionID, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMinesService_CashOut(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	start, mined := minesRound(t, env, svc, 100, 5)

	// Reveal ten safe cells: multiplier 1 + (10/20)^2*10 = 3.5.
	revealed := 0
	for cell := 0; cell < mines.TotalCells && revealed < 10; cell++ {
		if mined[cell] {
			continue
		}
		_, err := svc.Reveal(ctx, 1, start.SessionID, cell)
		require.NoError(t, err)
		revealed++
	}

	out, err := svc.CashOut(ctx, 1, start.SessionID)
	require.NoError(t, err)
	assert.True(t, out.Settled)
	assert.False(t, out.Exploded)
	assert.Equal(t, int64(250), out.Profit)
	assert.Equal(t, int64(testStartingBalance+250), out.Balance)
	assert.Equal(t, out.Balance, env.balance(t, 1))

	bets, err := env.accounts.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, int64(250), bets[0].Profit)

	// Settled sessions cannot cash out again.
	_, err = svc.CashOut(ctx, 1, start.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMinesService_CashOutWithoutRevealsRefunds(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	start, err := svc.Start(ctx, 1, 100, 5)
	require.NoError(t, err)

	out, err := svc.CashOut(ctx, 1, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Profit)
	assert.Equal(t, int64(testStartingBalance), out.Balance)

	// The zero-profit outcome still gets a ledger row.
	bets, err := env.accounts.ListBets(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, int64(0), bets[0].Profit)
}

func TestMinesService_FullClearAutoSettles(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	svc := newMinesService(env)
	ctx := context.Background()

	// 24 mines leave a single safe cell; revealing it clears the board.
	start, mined := minesRound(t, env, svc, 100, 24)

	safe := -1
	for cell := 0; cell < mines.TotalCells; cell++ {
		if !mined[cell] {
			safe = cell
			break
		}
	}

	out, err := svc.Reveal(ctx, 1, start.SessionID, safe)
	require.NoError(t, err)
	assert.True(t, out.Settled)
	assert.False(t, out.Exploded)
	// Full clear pays the maximum multiplier: profit = bet * 10.
	assert.Equal(t, int64(1000), out.Profit)
	assert.Equal(t, int64(testStartingBalance+1000), out.Balance)
}

func TestMinesService_SessionOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, 1)
	env.user(t, 2)
	svc := newMinesService(env)
	ctx := context.Background()

	start, err := svc.Start(ctx, 1, 100, 5)
	require.NoError(t, err)

	_, err = svc.Reveal(ctx, 2, start.SessionID, 0)
	assert.ErrorIs(t, err, ErrNotYourSession)

	_, err = svc.CashOut(ctx, 2, start.SessionID)
	assert.ErrorIs(t, err, ErrNotYourSession)

	_, err = svc.Reveal(ctx, 1, "no-such-session", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
