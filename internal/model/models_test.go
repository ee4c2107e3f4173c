package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeGameData_RejectsMismatchedPayload(t *testing.T) {
	// The payload type must match the game tag.
	_, err := EncodeGameData(GameDice, MinesGameData{MineCount: 5})
	assert.Error(t, err)

	_, err = EncodeGameData(GameBlackjack, DiceGameData{Result: 3})
	assert.Error(t, err)

	_, err = EncodeGameData(Game("poker"), DiceGameData{Result: 3})
	assert.Error(t, err)
}

func TestDecodeGameData_ReturnsTypedVariant(t *testing.T) {
	data, err := EncodeGameData(GameMines, MinesGameData{
		MineCount:         5,
		TilesRevealed:     3,
		MinePositions:     []int{1, 2, 3, 4, 5},
		RevealedPositions: []int{10, 11, 12},
	})
	require.NoError(t, err)

	bet := &Bet{Game: GameMines, GameData: data}
	decoded, err := bet.DecodeGameData()
	require.NoError(t, err)

	minesData, ok := decoded.(MinesGameData)
	require.True(t, ok)
	assert.Equal(t, 5, minesData.MineCount)
	assert.Equal(t, []int{10, 11, 12}, minesData.RevealedPositions)
}

func TestDecodeGameData_UnknownGame(t *testing.T) {
	bet := &Bet{Game: Game("poker"), GameData: []byte(`{}`)}
	_, err := bet.DecodeGameData()
	assert.Error(t, err)
}

func TestGameValid(t *testing.T) {
	assert.True(t, GameDice.Valid())
	assert.True(t, GameMines.Valid())
	assert.True(t, GameBlackjack.Valid())
	assert.False(t, Game("poker").Valid())
	assert.False(t, Game("").Valid())
}

func TestPredictionValid(t *testing.T) {
	assert.True(t, PredictionOver.Valid())
	assert.True(t, PredictionUnder.Valid())
	assert.False(t, Prediction("exactly").Valid())
}
