package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"casino-server/internal/model"
)

// BetRepository handles the append-only bet ledger. Rows are written
// once per completed wagering outcome and never updated or deleted.
type BetRepository struct {
	pool *pgxpool.Pool
}

// NewBetRepository creates a new BetRepository instance.
func NewBetRepository(pool *pgxpool.Pool) *BetRepository {
	return &BetRepository{pool: pool}
}

const betColumns = `id, user_id, game, bet_amount, profit, game_data, created_at`

// Append writes one bet record and returns it with the assigned id and
// server timestamp.
func (r *BetRepository) Append(ctx context.Context, bet *model.Bet) (*model.Bet, error) {
	const query = `
		INSERT INTO bets (user_id, game, bet_amount, profit, game_data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + betColumns

	var out model.Bet
	err := r.pool.QueryRow(ctx, query, bet.UserID, bet.Game, bet.BetAmount, bet.Profit, bet.GameData).Scan(
		&out.ID,
		&out.UserID,
		&out.Game,
		&out.BetAmount,
		&out.Profit,
		&out.GameData,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append bet: %w", err)
	}
	return &out, nil
}

// ListByUser retrieves a user's bets, newest first. The id is assigned
// monotonically, so ordering by id descending is newest-first even for
// rows sharing a timestamp.
func (r *BetRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Bet, error) {
	const query = `
		SELECT ` + betColumns + `
		FROM bets
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	var bets []*model.Bet
	for rows.Next() {
		var bet model.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.UserID,
			&bet.Game,
			&bet.BetAmount,
			&bet.Profit,
			&bet.GameData,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bets: %w", err)
	}

	return bets, nil
}
