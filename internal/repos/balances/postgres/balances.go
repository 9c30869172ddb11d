package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/gamewallet/internal/repos/balances"
)

var _ balances.Balances = (*balancesRepo)(nil)

type balancesRepo struct{ db *sql.DB }

func New(db *sql.DB) *balancesRepo {
	return &balancesRepo{db: db}
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM balances
		WHERE user_id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, balances.ErrNotFound
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (r *balancesRepo) Set(ctx context.Context, userID string, amount int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    updated_at = EXCLUDED.updated_at
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}
