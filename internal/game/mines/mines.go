// Package mines implements the mines game math: a 5x5 grid seeded with
// mines, a quadratic progressive multiplier over safe reveals, and the
// cash-out payout.
package mines

import (
	"errors"
	"fmt"

	"casino-server/internal/pkg/rng"
)

const (
	// TotalCells is the grid size.
	TotalCells = 25

	// MinMines and MaxMines bound the mine count: at least one mine and
	// at least one safe cell must remain.
	MinMines = 1
	MaxMines = 24

	// maxMultiplierGain is the quadratic growth ceiling: clearing every
	// safe cell yields a multiplier of 1 + maxMultiplierGain.
	maxMultiplierGain = 10
)

// Errors for mines bet validation.
var (
	ErrInvalidBet       = errors.New("bet amount must be positive")
	ErrInvalidMineCount = errors.New("mine count must be between 1 and 24")
)

// Validate checks the session parameters before any escrow.
func Validate(bet int64, mineCount int) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	if mineCount < MinMines || mineCount > MaxMines {
		return fmt.Errorf("%w: %d", ErrInvalidMineCount, mineCount)
	}
	return nil
}

// GenerateMines picks mineCount distinct cell indexes in [0, TotalCells)
// by repeated unbiased sampling with duplicate rejection. The mine count
// must already be validated.
func GenerateMines(mineCount int) []int {
	positions := make([]int, 0, mineCount)
	used := make(map[int]bool, mineCount)

	for len(positions) < mineCount {
		pos := rng.Sample(0, TotalCells-1)
		if used[pos] {
			continue
		}
		used[pos] = true
		positions = append(positions, pos)
	}

	return positions
}

// SafeCells returns the number of cells without a mine.
func SafeCells(mineCount int) int {
	return TotalCells - mineCount
}

// Multiplier returns the progressive payout multiplier after
// tilesRevealed safe reveals: 1 + (revealed/safe)^2 * 10. It grows
// strictly with each reveal and reaches exactly 11 when every safe cell
// has been cleared.
func Multiplier(tilesRevealed, mineCount int) float64 {
	safe := float64(SafeCells(mineCount))
	ratio := float64(tilesRevealed) / safe
	return 1 + ratio*ratio*maxMultiplierGain
}

// Profit computes the cash-out profit, floor(bet * (multiplier - 1)),
// in exact integer arithmetic: bet * 10 * revealed^2 / safe^2 under
// floor division, so fractional units always go to the house.
func Profit(bet int64, tilesRevealed, mineCount int) int64 {
	safe := int64(SafeCells(mineCount))
	n := int64(tilesRevealed)
	return bet * maxMultiplierGain * n * n / (safe * safe)
}
