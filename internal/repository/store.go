package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"casino-server/internal/model"
)

// Store combines the account store and the bet ledger over one pool and
// provides the cross-table settlement transaction. It implements the
// gateway interface the game services consume.
type Store struct {
	pool     *pgxpool.Pool
	accounts *AccountRepository
	bets     *BetRepository
}

// NewStore creates a Store over a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		accounts: NewAccountRepository(pool),
		bets:     NewBetRepository(pool),
	}
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.accounts.GetByID(ctx, id)
}

// GetOrCreateUser retrieves a user, creating the account on first sight.
func (s *Store) GetOrCreateUser(ctx context.Context, id int64, username string, startingBalance int64) (*model.User, bool, error) {
	return s.accounts.GetOrCreate(ctx, id, username, startingBalance)
}

// SetBalance atomically sets a user's balance. Used for the escrow step
// of multi-step games, which has no ledger row of its own.
func (s *Store) SetBalance(ctx context.Context, id int64, newBalance int64) (*model.User, error) {
	return s.accounts.SetBalance(ctx, id, newBalance)
}

// AppendBet writes one ledger record.
func (s *Store) AppendBet(ctx context.Context, bet *model.Bet) (*model.Bet, error) {
	return s.bets.Append(ctx, bet)
}

// ListBets retrieves a user's bets, newest first.
func (s *Store) ListBets(ctx context.Context, userID int64, limit int) ([]*model.Bet, error) {
	return s.bets.ListByUser(ctx, userID, limit)
}

// Settle applies one settlement atomically: the balance write and the
// ledger append happen in a single transaction, so a crash between them
// cannot leave an unaudited balance change. Returns the updated user
// and the appended bet.
func (s *Store) Settle(ctx context.Context, userID int64, newBalance int64, bet *model.Bet) (*model.User, *model.Bet, error) {
	if newBalance < 0 {
		return nil, nil, ErrNegativeBalance
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateQuery = `
		UPDATE users
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	user, err := scanUser(tx.QueryRow(ctx, updateQuery, userID, newBalance))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to set balance: %w", err)
	}

	const insertQuery = `
		INSERT INTO bets (user_id, game, bet_amount, profit, game_data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + betColumns

	var out model.Bet
	err = tx.QueryRow(ctx, insertQuery, bet.UserID, bet.Game, bet.BetAmount, bet.Profit, bet.GameData).Scan(
		&out.ID,
		&out.UserID,
		&out.Game,
		&out.BetAmount,
		&out.Profit,
		&out.GameData,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to append bet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return user, &out, nil
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			game VARCHAR(20) NOT NULL,
			bet_amount BIGINT NOT NULL CHECK (bet_amount > 0),
			profit BIGINT NOT NULL,
			game_data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_bets_user_id_desc ON bets(user_id, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create bets table: %w", err)
	}

	return nil
}
