package repository

import (
	"context"
	"sync"
	"time"

	"casino-server/internal/model"
)

// MemoryStore is an in-process gateway implementation. It backs the
// memory database driver and the service tests; the settlement keeps
// the same both-or-neither shape as the PostgreSQL store.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	bets   map[int64][]*model.Bet
	nextID int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]*model.User),
		bets:   make(map[int64][]*model.Bet),
		nextID: 1,
	}
}

func copyUser(u *model.User) *model.User {
	out := *u
	return &out
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetOrCreateUser retrieves a user, creating the account on first sight.
func (s *MemoryStore) GetOrCreateUser(_ context.Context, id int64, username string, startingBalance int64) (*model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		return copyUser(user), false, nil
	}

	now := time.Now()
	user := &model.User{
		ID:        id,
		Username:  username,
		Balance:   startingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[id] = user
	return copyUser(user), true, nil
}

// SetBalance atomically sets a user's balance.
func (s *MemoryStore) SetBalance(_ context.Context, id int64, newBalance int64) (*model.User, error) {
	if newBalance < 0 {
		return nil, ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Balance = newBalance
	user.UpdatedAt = time.Now()
	return copyUser(user), nil
}

func (s *MemoryStore) appendLocked(bet *model.Bet) *model.Bet {
	out := *bet
	out.ID = s.nextID
	s.nextID++
	out.CreatedAt = time.Now()
	s.bets[out.UserID] = append(s.bets[out.UserID], &out)
	return &out
}

// AppendBet writes one ledger record.
func (s *MemoryStore) AppendBet(_ context.Context, bet *model.Bet) (*model.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.appendLocked(bet)
	cp := *out
	return &cp, nil
}

// ListBets retrieves a user's bets, newest first.
func (s *MemoryStore) ListBets(_ context.Context, userID int64, limit int) ([]*model.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.bets[userID]
	out := make([]*model.Bet, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *all[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Settle applies the balance write and the ledger append under one
// lock, matching the transactional semantics of the PostgreSQL store.
func (s *MemoryStore) Settle(_ context.Context, userID int64, newBalance int64, bet *model.Bet) (*model.User, *model.Bet, error) {
	if newBalance < 0 {
		return nil, nil, ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil, ErrUserNotFound
	}
	user.Balance = newBalance
	user.UpdatedAt = time.Now()

	out := s.appendLocked(bet)
	cp := *out
	return copyUser(user), &cp, nil
}
