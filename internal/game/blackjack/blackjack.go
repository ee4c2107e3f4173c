// Package blackjack implements the blackjack round: dealing, player
// hits, the fixed dealer policy, and settlement math.
package blackjack

import (
	"errors"

	"casino-server/internal/game/deck"
	"casino-server/internal/model"
)

// DealerStandValue is the dealer policy threshold: the dealer draws
// while below it and stands on any 17, soft included.
const DealerStandValue = 17

// ErrInvalidBet rejects non-positive wagers.
var ErrInvalidBet = errors.New("bet amount must be positive")

// Validate checks the bet before any escrow.
func Validate(bet int64) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	return nil
}

// Round holds one blackjack hand in progress. The deck is shuffled once
// at deal time and consumed across the whole hand.
type Round struct {
	PlayerCards []model.Card
	DealerCards []model.Card

	deck *deck.Deck
}

// Deal starts a round: a fresh shuffled deck, two cards to the player,
// two to the dealer.
func Deal() *Round {
	d := deck.NewShuffled()
	r := &Round{deck: d}
	r.PlayerCards = []model.Card{d.Draw(), d.Draw()}
	r.DealerCards = []model.Card{d.Draw(), d.Draw()}
	return r
}

// Resume rebuilds an in-progress round from persisted session state.
func Resume(playerCards, dealerCards, remaining []model.Card) *Round {
	return &Round{
		PlayerCards: append([]model.Card(nil), playerCards...),
		DealerCards: append([]model.Card(nil), dealerCards...),
		deck:        deck.Restore(remaining),
	}
}

// DeckCards returns the undrawn remainder of the round's deck, for
// persisting into session state between requests.
func (r *Round) DeckCards() []model.Card {
	return r.deck.Cards()
}

// PlayerValue scores the player's hand.
func (r *Round) PlayerValue() int {
	return deck.HandValue(r.PlayerCards)
}

// DealerValue scores the dealer's hand.
func (r *Round) DealerValue() int {
	return deck.HandValue(r.DealerCards)
}

// PlayerNatural reports whether the player was dealt a two-card 21.
func (r *Round) PlayerNatural() bool {
	return deck.IsNatural(r.PlayerCards)
}

// ResolveDeal settles a player natural on the initial deal. It returns
// the result and true when the player holds a natural: a push if the
// dealer also has 21, an immediate win otherwise. With no player
// natural it returns false and the round stays on the player's turn.
func (r *Round) ResolveDeal() (model.Result, bool) {
	if r.PlayerValue() != 21 {
		return "", false
	}
	if r.DealerValue() == 21 {
		return model.ResultPush, true
	}
	return model.ResultWin, true
}

// Hit draws one card to the player's hand and returns it. The caller
// checks PlayerValue for a bust.
func (r *Round) Hit() model.Card {
	card := r.deck.Draw()
	r.PlayerCards = append(r.PlayerCards, card)
	return card
}

// PlayDealer runs the dealer policy after the player stands: draw while
// the hand value is below 17, then stand.
func (r *Round) PlayDealer() {
	for r.DealerValue() < DealerStandValue {
		r.DealerCards = append(r.DealerCards, r.deck.Draw())
	}
}

// CompareOutcome settles a stood hand against the finished dealer hand:
// a dealer bust or higher player score wins, a lower one loses, equal
// scores push.
func (r *Round) CompareOutcome() model.Result {
	playerValue := r.PlayerValue()
	dealerValue := r.DealerValue()

	switch {
	case dealerValue > 21:
		return model.ResultWin
	case playerValue > dealerValue:
		return model.ResultWin
	case playerValue < dealerValue:
		return model.ResultLose
	default:
		return model.ResultPush
	}
}

// GameData builds the ledger payload for a finished hand.
func (r *Round) GameData(result model.Result) model.BlackjackGameData {
	return model.BlackjackGameData{
		PlayerCards: append([]model.Card(nil), r.PlayerCards...),
		DealerCards: append([]model.Card(nil), r.DealerCards...),
		PlayerScore: r.PlayerValue(),
		DealerScore: r.DealerValue(),
		Result:      result,
	}
}

// Profit computes the signed profit for a finished hand. A natural win
// pays 3:2, floored toward the house; any other win pays even money; a
// push returns zero; a loss forfeits the bet.
func Profit(bet int64, result model.Result, natural bool) int64 {
	switch result {
	case model.ResultWin:
		if natural {
			return bet * 3 / 2
		}
		return bet
	case model.ResultLose:
		return -bet
	default:
		return 0
	}
}
