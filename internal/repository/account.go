// Package repository provides the data access layer: the account store
// and the append-only bet ledger, backed by PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"casino-server/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNegativeBalance = errors.New("balance must not be negative")
)

// AccountRepository handles user account persistence.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, username, balance, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a new user with the given starting balance.
func (r *AccountRepository) Create(ctx context.Context, id int64, username string, startingBalance int64) (*model.User, error) {
	const query = `
		INSERT INTO users (id, username, balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + accountColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, username, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID. Returns ErrUserNotFound if the user
// does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + accountColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user, creating the account with the starting
// balance on first sight. Reports whether the account was created.
func (r *AccountRepository) GetOrCreate(ctx context.Context, id int64, username string, startingBalance int64) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, id)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, id, username, startingBalance)
	if err != nil {
		// Another request may have created the user concurrently.
		user, err = r.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// SetBalance atomically sets a user's balance to an exact value. The
// new balance must be non-negative; the table's CHECK constraint
// enforces the same bound.
func (r *AccountRepository) SetBalance(ctx context.Context, id int64, newBalance int64) (*model.User, error) {
	if newBalance < 0 {
		return nil, ErrNegativeBalance
	}

	const query = `
		UPDATE users
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, newBalance))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}
	return user, nil
}
