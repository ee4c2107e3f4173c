// Package model defines the data models for the casino server.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// User represents a player account. Balance is held in whole currency
// units and must never go negative.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Game identifies one of the supported game types.
type Game string

const (
	GameDice      Game = "dice"
	GameMines     Game = "mines"
	GameBlackjack Game = "blackjack"
)

// Valid reports whether g is a known game type.
func (g Game) Valid() bool {
	switch g {
	case GameDice, GameMines, GameBlackjack:
		return true
	}
	return false
}

// Prediction is the direction of a dice bet.
type Prediction string

const (
	PredictionOver  Prediction = "over"
	PredictionUnder Prediction = "under"
)

// Valid reports whether p is a known prediction.
func (p Prediction) Valid() bool {
	return p == PredictionOver || p == PredictionUnder
}

// Result is the outcome of a finished hand or session.
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultPush Result = "push"
)

// Suit names for cards.
const (
	SuitHearts   = "hearts"
	SuitDiamonds = "diamonds"
	SuitClubs    = "clubs"
	SuitSpades   = "spades"
)

// Card is a single playing card. Value is one of "2".."10", "J", "Q",
// "K", "A".
type Card struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// Bet is one row of the append-only bet ledger. A bet is written exactly
// once per completed wagering outcome and is never mutated afterwards.
// Profit is signed: negative for a loss, zero for a push.
type Bet struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"userId"`
	Game      Game            `db:"game" json:"game"`
	BetAmount int64           `db:"bet_amount" json:"betAmount"`
	Profit    int64           `db:"profit" json:"profit"`
	GameData  json.RawMessage `db:"game_data" json:"gameData"`
	CreatedAt time.Time       `db:"created_at" json:"timestamp"`
}

// DiceGameData records a single dice roll settlement.
type DiceGameData struct {
	Prediction  Prediction `json:"prediction"`
	TargetValue int        `json:"targetValue"`
	Result      int        `json:"result"`
}

// MinesGameData records a finished mines session. MinePositions and
// RevealedPositions are disjoint until the losing reveal, if any.
type MinesGameData struct {
	MineCount         int   `json:"mineCount"`
	TilesRevealed     int   `json:"tilesRevealed"`
	MinePositions     []int `json:"minePositions"`
	RevealedPositions []int `json:"revealedPositions"`
}

// BlackjackGameData records a finished blackjack hand.
type BlackjackGameData struct {
	PlayerCards []Card `json:"playerCards"`
	DealerCards []Card `json:"dealerCards"`
	PlayerScore int    `json:"playerScore"`
	DealerScore int    `json:"dealerScore"`
	Result      Result `json:"result"`
}

// EncodeGameData marshals the per-game payload for a bet record and
// verifies that the payload type matches the game tag.
func EncodeGameData(game Game, data any) (json.RawMessage, error) {
	var ok bool
	switch game {
	case GameDice:
		_, ok = data.(DiceGameData)
	case GameMines:
		_, ok = data.(MinesGameData)
	case GameBlackjack:
		_, ok = data.(BlackjackGameData)
	default:
		return nil, fmt.Errorf("unknown game type %q", game)
	}
	if !ok {
		return nil, fmt.Errorf("game data type %T does not match game %q", data, game)
	}
	return json.Marshal(data)
}

// DecodeGameData unmarshals a bet's payload into the typed variant for
// its game tag.
func (b *Bet) DecodeGameData() (any, error) {
	switch b.Game {
	case GameDice:
		var d DiceGameData
		if err := json.Unmarshal(b.GameData, &d); err != nil {
			return nil, fmt.Errorf("failed to decode dice game data: %w", err)
		}
		return d, nil
	case GameMines:
		var d MinesGameData
		if err := json.Unmarshal(b.GameData, &d); err != nil {
			return nil, fmt.Errorf("failed to decode mines game data: %w", err)
		}
		return d, nil
	case GameBlackjack:
		var d BlackjackGameData
		if err := json.Unmarshal(b.GameData, &d); err != nil {
			return nil, fmt.Errorf("failed to decode blackjack game data: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown game type %q", b.Game)
	}
}
