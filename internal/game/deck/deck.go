// Package deck implements the 52-card deck and blackjack hand scoring.
package deck

import (
	"casino-server/internal/model"
	"casino-server/internal/pkg/rng"
)

var suits = []string{
	model.SuitHearts,
	model.SuitDiamonds,
	model.SuitClubs,
	model.SuitSpades,
}

var values = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Deck is an ordered sequence of cards consumed from the end. A deck is
// built fresh for each blackjack hand and discarded afterwards.
type Deck struct {
	cards []model.Card
}

// NewShuffled builds the full 4x13 deck and applies a Fisher-Yates
// shuffle driven by the cryptographic sampler, producing a uniformly
// random permutation.
func NewShuffled() *Deck {
	cards := make([]model.Card, 0, len(suits)*len(values))
	for _, suit := range suits {
		for _, value := range values {
			cards = append(cards, model.Card{Suit: suit, Value: value})
		}
	}

	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Sample(0, i)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Deck{cards: cards}
}

// Restore rebuilds a deck from a previously saved card sequence. Used to
// resume an in-progress blackjack hand from session state.
func Restore(cards []model.Card) *Deck {
	d := &Deck{cards: make([]model.Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns the top card. Drawing from an empty deck is a
// contract violation: a blackjack hand can never consume all 52 cards,
// so an empty draw means corrupted state and panics.
func (d *Deck) Draw() model.Card {
	if len(d.cards) == 0 {
		panic("deck: draw from empty deck")
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// Remaining returns the number of cards left.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining card sequence, for persisting
// the deck into session state between requests.
func (d *Deck) Cards() []model.Card {
	out := make([]model.Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// HandValue scores a blackjack hand. Aces count 11 and are downgraded to
// 1 one at a time while the total exceeds 21, which reproduces standard
// soft/hard scoring including multi-ace hands.
func HandValue(hand []model.Card) int {
	value := 0
	aces := 0

	for _, card := range hand {
		switch card.Value {
		case "A":
			aces++
			value += 11
		case "K", "Q", "J", "10":
			value += 10
		case "9":
			value += 9
		case "8":
			value += 8
		case "7":
			value += 7
		case "6":
			value += 6
		case "5":
			value += 5
		case "4":
			value += 4
		case "3":
			value += 3
		case "2":
			value += 2
		}
	}

	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}

	return value
}

// IsNatural reports whether a hand is a two-card 21.
func IsNatural(hand []model.Card) bool {
	return len(hand) == 2 && HandValue(hand) == 21
}
