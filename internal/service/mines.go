package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"casino-server/internal/game/mines"
	"casino-server/internal/model"
	"casino-server/internal/pkg/lock"
	"casino-server/internal/session"
)

// Mines-specific errors.
var (
	ErrCellOutOfRange   = errors.New("cell index out of range")
	ErrCellRevealed     = errors.New("cell already revealed")
	ErrSessionWrongGame = errors.New("session is for a different game")
)

// MinesService runs the session driven mines game. Starting a round
// escrows the bet; the round settles on an explosion, a cash out, or a
// full clear of the safe cells. Mine positions live only on the server.
type MinesService struct {
	store    Gateway
	sessions session.Store
	locks    *lock.UserLock
	maxBet   int64
	logger   zerolog.Logger
}

// NewMinesService creates a new MinesService instance.
func NewMinesService(store Gateway, sessions session.Store, locks *lock.UserLock, maxBet int64, logger zerolog.Logger) *MinesService {
	return &MinesService{
		store:    store,
		sessions: sessions,
		locks:    locks,
		maxBet:   maxBet,
		logger:   logger.With().Str("game", "mines").Logger(),
	}
}

// MinesState is the player-visible state of a mines round. MinePositions
// is populated only once the round is over.
type MinesState struct {
	SessionID         string
	MineCount         int
	RevealedPositions []int
	MinePositions     []int
	Multiplier        float64
	Exploded          bool
	Settled           bool
	// PotentialProfit is what a cash out would pay right now; set only
	// while the round is open.
	PotentialProfit int64
	Profit          int64
	Balance         int64
}

// Start escrows the bet, places the mines, and opens a session.
func (s *MinesService) Start(ctx context.Context, userID int64, betAmount int64, mineCount int) (*MinesState, error) {
	if err := mines.Validate(betAmount, mineCount); err != nil {
		return nil, err
	}
	if betAmount > s.maxBet {
		return nil, ErrBetTooLarge
	}

	var out *MinesState
	err := s.locks.WithLock(userID, func() error {
		user, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if user.Balance < betAmount {
			return ErrInsufficientBalance
		}

		// Escrow: the bet leaves the balance now and comes back, with
		// any winnings, at settlement.
		updated, err := s.store.SetBalance(ctx, userID, user.Balance-betAmount)
		if err != nil {
			return fmt.Errorf("failed to escrow bet: %w", err)
		}

		sess := session.New(userID, model.GameMines, betAmount)
		sess.MineCount = mineCount
		sess.MinePositions = mines.GenerateMines(mineCount)
		sess.RevealedPositions = []int{}

		if err := s.sessions.Put(ctx, sess); err != nil {
			// Undo the escrow so the bet is not stranded.
			if _, refundErr := s.store.SetBalance(ctx, userID, updated.Balance+betAmount); refundErr != nil {
				s.logger.Error().Err(refundErr).Int64("user_id", userID).Msg("failed to refund escrow")
			}
			return fmt.Errorf("failed to store session: %w", err)
		}

		s.logger.Info().
			Int64("user_id", userID).
			Int64("bet", betAmount).
			Int("mine_count", mineCount).
			Msg("mines round started")

		out = &MinesState{
			SessionID:         sess.ID,
			MineCount:         mineCount,
			RevealedPositions: []int{},
			Multiplier:        mines.Multiplier(0, mineCount),
			Balance:           updated.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reveal uncovers one cell. Hitting a mine settles the round as a loss;
// revealing the last safe cell settles it as a full-clear win. Any
// other safe reveal keeps the session open.
func (s *MinesService) Reveal(ctx context.Context, userID int64, sessionID string, cell int) (*MinesState, error) {
	if cell < 0 || cell >= mines.TotalCells {
		return nil, ErrCellOutOfRange
	}

	var out *MinesState
	err := s.locks.WithLock(userID, func() error {
		sess, err := s.getSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		for _, p := range sess.RevealedPositions {
			if p == cell {
				return ErrCellRevealed
			}
		}

		for _, m := range sess.MinePositions {
			if m == cell {
				return s.settleLoss(ctx, sess, cell, &out)
			}
		}

		sess.RevealedPositions = append(sess.RevealedPositions, cell)
		if len(sess.RevealedPositions) == mines.SafeCells(sess.MineCount) {
			return s.settleWin(ctx, sess, &out)
		}

		if err := s.sessions.Put(ctx, sess); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		out = &MinesState{
			SessionID:         sess.ID,
			MineCount:         sess.MineCount,
			RevealedPositions: sess.RevealedPositions,
			Multiplier:        mines.Multiplier(len(sess.RevealedPositions), sess.MineCount),
			PotentialProfit:   mines.Profit(sess.BetAmount, len(sess.RevealedPositions), sess.MineCount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CashOut settles an open round at the current multiplier. Cashing out
// before any reveal returns the bet with zero profit.
func (s *MinesService) CashOut(ctx context.Context, userID int64, sessionID string) (*MinesState, error) {
	var out *MinesState
	err := s.locks.WithLock(userID, func() error {
		sess, err := s.getSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		return s.settleWin(ctx, sess, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MinesService) getSession(ctx context.Context, userID int64, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.UserID != userID {
		return nil, ErrNotYourSession
	}
	if sess.Game != model.GameMines {
		return nil, ErrSessionWrongGame
	}
	return sess, nil
}

// settleLoss records the explosion. The bet was escrowed at start, so
// the balance stays put; the ledger row and the session delete still
// happen.
func (s *MinesService) settleLoss(ctx context.Context, sess *session.Session, hitCell int, out **MinesState) error {
	user, err := getUser(ctx, s.store, sess.UserID)
	if err != nil {
		return err
	}

	revealed := append(append([]int(nil), sess.RevealedPositions...), hitCell)
	data, err := model.EncodeGameData(model.GameMines, model.MinesGameData{
		MineCount:         sess.MineCount,
		TilesRevealed:     len(sess.RevealedPositions),
		MinePositions:     sess.MinePositions,
		RevealedPositions: revealed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode game data: %w", err)
	}

	settled, _, err := s.store.Settle(ctx, sess.UserID, user.Balance, &model.Bet{
		UserID:    sess.UserID,
		Game:      model.GameMines,
		BetAmount: sess.BetAmount,
		Profit:    -sess.BetAmount,
		GameData:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to settle mines loss: %w", err)
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to delete session")
	}

	s.logger.Info().
		Int64("user_id", sess.UserID).
		Int64("bet", sess.BetAmount).
		Int("tiles_revealed", len(sess.RevealedPositions)).
		Msg("mines round exploded")

	*out = &MinesState{
		SessionID:         sess.ID,
		MineCount:         sess.MineCount,
		RevealedPositions: revealed,
		MinePositions:     sess.MinePositions,
		Exploded:          true,
		Settled:           true,
		Profit:            -sess.BetAmount,
		Balance:           settled.Balance,
	}
	return nil
}

func (s *MinesService) settleWin(ctx context.Context, sess *session.Session, out **MinesState) error {
	user, err := getUser(ctx, s.store, sess.UserID)
	if err != nil {
		return err
	}

	profit := mines.Profit(sess.BetAmount, len(sess.RevealedPositions), sess.MineCount)
	data, err := model.EncodeGameData(model.GameMines, model.MinesGameData{
		MineCount:         sess.MineCount,
		TilesRevealed:     len(sess.RevealedPositions),
		MinePositions:     sess.MinePositions,
		RevealedPositions: sess.RevealedPositions,
	})
	if err != nil {
		return fmt.Errorf("failed to encode game data: %w", err)
	}

	// The escrowed bet returns together with the profit.
	newBalance := user.Balance + sess.BetAmount + profit
	settled, _, err := s.store.Settle(ctx, sess.UserID, newBalance, &model.Bet{
		UserID:    sess.UserID,
		Game:      model.GameMines,
		BetAmount: sess.BetAmount,
		Profit:    profit,
		GameData:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to settle mines win: %w", err)
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to delete session")
	}

	s.logger.Info().
		Int64("user_id", sess.UserID).
		Int64("bet", sess.BetAmount).
		Int("tiles_revealed", len(sess.RevealedPositions)).
		Int64("profit", profit).
		Msg("mines round cashed out")

	*out = &MinesState{
		SessionID:         sess.ID,
		MineCount:         sess.MineCount,
		RevealedPositions: sess.RevealedPositions,
		MinePositions:     sess.MinePositions,
		Settled:           true,
		Multiplier:        mines.Multiplier(len(sess.RevealedPositions), sess.MineCount),
		Profit:            profit,
		Balance:           settled.Balance,
	}
	return nil
}
