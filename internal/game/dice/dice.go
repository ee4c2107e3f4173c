// Package dice implements the over/under dice game: a single roll of a
// six-sided die settled against the player's prediction.
package dice

import (
	"errors"
	"fmt"

	"casino-server/internal/model"
	"casino-server/internal/pkg/rng"
)

// HouseEdge is the multiplicative discount applied to the fair payout
// multiplier before computing profit.
const HouseEdge = 0.95

// Errors for dice bet validation.
var (
	ErrInvalidBet        = errors.New("bet amount must be positive")
	ErrInvalidPrediction = errors.New("prediction must be over or under")
	ErrInvalidTarget     = errors.New("target value must be between 1 and 6")
	ErrNoWinningFaces    = errors.New("prediction has no winning faces for this target")
)

// Validate checks the bet parameters before any state change. A target
// of 6 with "over" (and 1 with "under") leaves zero favorable faces and
// an undefined multiplier, so those combinations are rejected.
func Validate(bet int64, prediction model.Prediction, target int) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	if !prediction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPrediction, prediction)
	}
	if target < 1 || target > 6 {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}
	if favorableFaces(prediction, target) == 0 {
		return ErrNoWinningFaces
	}
	return nil
}

// favorableFaces counts the die faces that win for the prediction.
func favorableFaces(prediction model.Prediction, target int) int {
	if prediction == model.PredictionOver {
		return 6 - target
	}
	return target - 1
}

// Multiplier returns the fair payout multiplier for a winning bet,
// before the house edge: 6 divided by the number of favorable faces.
// The inputs must already be validated.
func Multiplier(prediction model.Prediction, target int) float64 {
	return 6.0 / float64(favorableFaces(prediction, target))
}

// Roll produces one unbiased die result in [1, 6].
func Roll() int {
	return rng.Sample(1, 6)
}

// IsWin reports whether the rolled result beats the target in the
// predicted direction. The comparison is strict: rolling the target
// itself always loses.
func IsWin(prediction model.Prediction, target, result int) bool {
	if prediction == model.PredictionOver {
		return result > target
	}
	return result < target
}

// Profit computes the signed profit for a settled roll. A win pays
// floor(bet * (multiplier*HouseEdge - 1)), flooring fractional units
// toward the house; a loss forfeits the bet.
//
// The payout is evaluated in exact integer arithmetic: the edged
// multiplier is the rational 6*95 / (faces*100), so the win profit is
// bet*(570 - 100*faces) / (100*faces) under floor division. Computing
// it through float64 would lose a unit on exact results (100 * (2.0 *
// 0.95 - 1) evaluates to 89.999... in binary floating point).
func Profit(bet int64, prediction model.Prediction, target int, win bool) int64 {
	if !win {
		return -bet
	}
	faces := int64(favorableFaces(prediction, target))
	return bet * (570 - 100*faces) / (100 * faces)
}
