// Package session holds in-progress game sessions server side. Mines
// and blackjack span multiple requests; all game-determining state (the
// mine layout, the deck, the hands) stays here, keyed by an opaque
// token, and is never accepted back from the client.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"casino-server/internal/model"
)

// ErrNotFound is returned when a session token does not resolve, has
// expired, or was already settled.
var ErrNotFound = errors.New("session not found")

// Session is one in-progress multi-step game. Only active sessions are
// stored; settling a session deletes it.
type Session struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"userId"`
	Game      model.Game `json:"game"`
	BetAmount int64      `json:"betAmount"`
	CreatedAt time.Time  `json:"createdAt"`

	// Mines state.
	MineCount         int   `json:"mineCount,omitempty"`
	MinePositions     []int `json:"minePositions,omitempty"`
	RevealedPositions []int `json:"revealedPositions,omitempty"`

	// Blackjack state.
	PlayerCards []model.Card `json:"playerCards,omitempty"`
	DealerCards []model.Card `json:"dealerCards,omitempty"`
	Deck        []model.Card `json:"deck,omitempty"`
}

// New creates a session with a fresh opaque token.
func New(userID int64, game model.Game, betAmount int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Game:      game,
		BetAmount: betAmount,
		CreatedAt: time.Now(),
	}
}

// Store persists active sessions between requests.
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
