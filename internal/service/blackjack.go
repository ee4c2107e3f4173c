package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"casino-server/internal/game/blackjack"
	"casino-server/internal/game/deck"
	"casino-server/internal/model"
	"casino-server/internal/pkg/lock"
	"casino-server/internal/session"
)

// BlackjackService runs the session driven blackjack game. The deck is
// shuffled once at the deal and lives in the session, so hits draw from
// the same deck the deal came from. The dealer's hole card stays hidden
// until the round settles.
type BlackjackService struct {
	store    Gateway
	sessions session.Store
	locks    *lock.UserLock
	maxBet   int64
	logger   zerolog.Logger
}

// NewBlackjackService creates a new BlackjackService instance.
func NewBlackjackService(store Gateway, sessions session.Store, locks *lock.UserLock, maxBet int64, logger zerolog.Logger) *BlackjackService {
	return &BlackjackService{
		store:    store,
		sessions: sessions,
		locks:    locks,
		maxBet:   maxBet,
		logger:   logger.With().Str("game", "blackjack").Logger(),
	}
}

// BlackjackState is the player-visible state of a hand. While the
// round is open, DealerCards holds only the up card and Result is
// empty. Balance is meaningful after the deal and after settlement,
// the two points where it changes.
type BlackjackState struct {
	SessionID   string
	PlayerCards []model.Card
	PlayerScore int
	DealerCards []model.Card
	DealerScore int
	Result      model.Result
	Done        bool
	Profit      int64
	Balance     int64
}

// Deal starts a hand. A player natural settles immediately; otherwise
// the bet is escrowed and a session opens for hit and stand.
func (s *BlackjackService) Deal(ctx context.Context, userID int64, betAmount int64) (*BlackjackState, error) {
	if err := blackjack.Validate(betAmount); err != nil {
		return nil, err
	}
	if betAmount > s.maxBet {
		return nil, ErrBetTooLarge
	}

	var out *BlackjackState
	err := s.locks.WithLock(userID, func() error {
		user, err := getUser(ctx, s.store, userID)
		if err != nil {
			return err
		}
		if user.Balance < betAmount {
			return ErrInsufficientBalance
		}

		round := blackjack.Deal()

		if result, done := round.ResolveDeal(); done {
			return s.settleFromDeal(ctx, userID, user.Balance, betAmount, round, result, &out)
		}

		updated, err := s.store.SetBalance(ctx, userID, user.Balance-betAmount)
		if err != nil {
			return fmt.Errorf("failed to escrow bet: %w", err)
		}

		sess := session.New(userID, model.GameBlackjack, betAmount)
		sess.PlayerCards = round.PlayerCards
		sess.DealerCards = round.DealerCards
		sess.Deck = round.DeckCards()

		if err := s.sessions.Put(ctx, sess); err != nil {
			if _, refundErr := s.store.SetBalance(ctx, userID, updated.Balance+betAmount); refundErr != nil {
				s.logger.Error().Err(refundErr).Int64("user_id", userID).Msg("failed to refund escrow")
			}
			return fmt.Errorf("failed to store session: %w", err)
		}

		s.logger.Info().
			Int64("user_id", userID).
			Int64("bet", betAmount).
			Int("player_score", round.PlayerValue()).
			Msg("blackjack hand dealt")

		out = openState(sess, round, updated.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Hit draws one card. A bust settles the hand as a loss; otherwise the
// session stays open.
func (s *BlackjackService) Hit(ctx context.Context, userID int64, sessionID string) (*BlackjackState, error) {
	var out *BlackjackState
	err := s.locks.WithLock(userID, func() error {
		sess, round, err := s.resumeSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}

		round.Hit()

		if round.PlayerValue() > 21 {
			return s.settleOpen(ctx, sess, round, model.ResultLose, &out)
		}

		sess.PlayerCards = round.PlayerCards
		sess.Deck = round.DeckCards()
		if err := s.sessions.Put(ctx, sess); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		out = openState(sess, round, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stand finishes the player's turn: the dealer draws to 17 and the
// hand settles.
func (s *BlackjackService) Stand(ctx context.Context, userID int64, sessionID string) (*BlackjackState, error) {
	var out *BlackjackState
	err := s.locks.WithLock(userID, func() error {
		sess, round, err := s.resumeSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}

		round.PlayDealer()
		return s.settleOpen(ctx, sess, round, round.CompareOutcome(), &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BlackjackService) resumeSession(ctx context.Context, userID int64, sessionID string) (*session.Session, *blackjack.Round, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.UserID != userID {
		return nil, nil, ErrNotYourSession
	}
	if sess.Game != model.GameBlackjack {
		return nil, nil, ErrSessionWrongGame
	}
	return sess, blackjack.Resume(sess.PlayerCards, sess.DealerCards, sess.Deck), nil
}

// settleFromDeal settles a natural on the initial deal. No escrow
// happened, so the profit applies to the untouched balance.
func (s *BlackjackService) settleFromDeal(ctx context.Context, userID int64, balance, betAmount int64, round *blackjack.Round, result model.Result, out **BlackjackState) error {
	profit := blackjack.Profit(betAmount, result, round.PlayerNatural())
	settled, err := s.settle(ctx, userID, balance+profit, betAmount, round, result, profit)
	if err != nil {
		return err
	}
	*out = settledState("", round, result, profit, settled.Balance)
	return nil
}

// settleOpen settles a hand that went through the escrow at deal time:
// the bet returns along with the profit.
func (s *BlackjackService) settleOpen(ctx context.Context, sess *session.Session, round *blackjack.Round, result model.Result, out **BlackjackState) error {
	user, err := getUser(ctx, s.store, sess.UserID)
	if err != nil {
		return err
	}

	profit := blackjack.Profit(sess.BetAmount, result, false)
	newBalance := user.Balance + sess.BetAmount + profit
	settled, err := s.settle(ctx, sess.UserID, newBalance, sess.BetAmount, round, result, profit)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("failed to delete session")
	}
	*out = settledState(sess.ID, round, result, profit, settled.Balance)
	return nil
}

func (s *BlackjackService) settle(ctx context.Context, userID int64, newBalance, betAmount int64, round *blackjack.Round, result model.Result, profit int64) (*model.User, error) {
	data, err := model.EncodeGameData(model.GameBlackjack, round.GameData(result))
	if err != nil {
		return nil, fmt.Errorf("failed to encode game data: %w", err)
	}

	settled, _, err := s.store.Settle(ctx, userID, newBalance, &model.Bet{
		UserID:    userID,
		Game:      model.GameBlackjack,
		BetAmount: betAmount,
		Profit:    profit,
		GameData:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle blackjack hand: %w", err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("bet", betAmount).
		Str("result", string(result)).
		Int64("profit", profit).
		Msg("blackjack hand settled")

	return settled, nil
}

// openState exposes only the dealer's up card while the hand is live.
func openState(sess *session.Session, round *blackjack.Round, balance int64) *BlackjackState {
	upCard := []model.Card{round.DealerCards[0]}
	return &BlackjackState{
		SessionID:   sess.ID,
		PlayerCards: round.PlayerCards,
		PlayerScore: round.PlayerValue(),
		DealerCards: upCard,
		DealerScore: deck.HandValue(upCard),
		Balance:     balance,
	}
}

func settledState(sessionID string, round *blackjack.Round, result model.Result, profit, balance int64) *BlackjackState {
	return &BlackjackState{
		SessionID:   sessionID,
		PlayerCards: round.PlayerCards,
		PlayerScore: round.PlayerValue(),
		DealerCards: round.DealerCards,
		DealerScore: round.DealerValue(),
		Result:      result,
		Done:        true,
		Profit:      profit,
		Balance:     balance,
	}
}
