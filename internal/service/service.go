// Package service implements the wagering flows on top of the storage
// gateway: account access, the single-step dice game and the session
// driven mines and blackjack games. Every settlement runs under the
// per-user lock so concurrent requests for one user serialize.
package service

import (
	"context"
	"errors"
	"fmt"

	"casino-server/internal/model"
	"casino-server/internal/repository"
)

// Service-level errors. Handlers map these onto HTTP statuses.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBetTooLarge         = errors.New("bet amount exceeds the maximum")
	ErrSessionNotFound     = errors.New("no active game session")
	ErrNotYourSession      = errors.New("session belongs to another user")
)

// Gateway is the storage surface the services consume. The PostgreSQL
// store and the in-memory store both implement it.
type Gateway interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetOrCreateUser(ctx context.Context, id int64, username string, startingBalance int64) (*model.User, bool, error)
	SetBalance(ctx context.Context, id int64, newBalance int64) (*model.User, error)
	AppendBet(ctx context.Context, bet *model.Bet) (*model.Bet, error)
	ListBets(ctx context.Context, userID int64, limit int) ([]*model.Bet, error)
	Settle(ctx context.Context, userID int64, newBalance int64, bet *model.Bet) (*model.User, *model.Bet, error)
}

var _ Gateway = (*repository.Store)(nil)
var _ Gateway = (*repository.MemoryStore)(nil)

// AccountService handles account lookup and bet history.
type AccountService struct {
	store           Gateway
	startingBalance int64
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store Gateway, startingBalance int64) *AccountService {
	return &AccountService{store: store, startingBalance: startingBalance}
}

// EnsureUser returns the user's account, creating it with the starting
// balance on first sight.
func (s *AccountService) EnsureUser(ctx context.Context, id int64, username string) (*model.User, error) {
	user, _, err := s.store.GetOrCreateUser(ctx, id, username, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, nil
}

// GetBalance returns the user's current balance.
func (s *AccountService) GetBalance(ctx context.Context, id int64) (int64, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Balance, nil
}

// ListBets returns the user's bet history, newest first.
func (s *AccountService) ListBets(ctx context.Context, id int64, limit int) ([]*model.Bet, error) {
	bets, err := s.store.ListBets(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}

// getUser translates the repository not-found error.
func getUser(ctx context.Context, store Gateway, id int64) (*model.User, error) {
	user, err := store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
