package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"casino-server/internal/game/dice"
	"casino-server/internal/model"
	"casino-server/internal/pkg/lock"
)

// DiceService plays the single-step dice game: one request validates,
// rolls, and settles.
type DiceService struct {
	store  Gateway
	locks  *lock.UserLock
	maxBet int64
	logger zerolog.Logger
}

// NewDiceService creates a new DiceService instance.
func NewDiceService(store Gateway, locks *lock.UserLock, maxBet int64, logger zerolog.Logger) *DiceService {
	return &DiceService{
		store:  store,
		locks:  locks,
		maxBet: maxBet,
		logger: logger.With().Str("game", "dice").Logger(),
	}
}

// DiceOutcome is the settled result of one dice bet.
type DiceOutcome struct {
	Result  int
	Win     bool
	Profit  int64
	Balance int64
	Bet     *model.Bet
}

// Play validates the wager, rolls the die, and settles the outcome
// atomically. The read-validate-roll-write sequence runs under the
// user's lock.
func (s *DiceService) Play(ctx context.Context, userID int64, betAmount int64, prediction model.Prediction, target int) (*DiceOutcome, error) {
	if err := dice.Validate(betAmount, prediction, target); err != nil {
		return nil, err
	}
	if betAmount > s.maxBet {
		return nil, ErrBetTooLarge
	}

	var out *DiceOutcome
	err := s.locks.WithLock(userID, func() error {
		user, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if user.Balance < betAmount {
			return ErrInsufficientBalance
		}

		result := dice.Roll()
		win := dice.IsWin(prediction, target, result)
		profit := dice.Profit(betAmount, prediction, target, win)

		data, err := model.EncodeGameData(model.GameDice, model.DiceGameData{
			Prediction:  prediction,
			TargetValue: target,
			Result:      result,
		})
		if err != nil {
			return fmt.Errorf("failed to encode game data: %w", err)
		}

		newBalance := user.Balance + profit
		settled, bet, err := s.store.Settle(ctx, userID, newBalance, &model.Bet{
			UserID:    userID,
			Game:      model.GameDice,
			BetAmount: betAmount,
			Profit:    profit,
			GameData:  data,
		})
		if err != nil {
			return fmt.Errorf("failed to settle dice bet: %w", err)
		}

		s.logger.Info().
			Int64("user_id", userID).
			Int64("bet", betAmount).
			Int("result", result).
			Bool("win", win).
			Int64("profit", profit).
			Msg("dice bet settled")

		out = &DiceOutcome{
			Result:  result,
			Win:     win,
			Profit:  profit,
			Balance: settled.Balance,
			Bet:     bet,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
