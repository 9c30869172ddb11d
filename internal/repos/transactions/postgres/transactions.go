package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

const uniqueViolation = "23505"

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Append(ctx context.Context, e transactions.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, amount, kind, game_id, action_id, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, e.Amount, string(e.Kind), e.GameID, e.ActionID, e.RefID, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return transactions.ErrDuplicateTransaction
		}

		return fmt.Errorf("insert ledger entry: %w", err)
	}

	return nil
}

func (r *transactionsRepo) List(ctx context.Context, userID string, limit int) ([]transactions.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount, kind, game_id, action_id, ref_id, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	out := make([]transactions.Entry, 0, limit)

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return out, nil
}

func (r *transactionsRepo) FindByID(ctx context.Context, userID, txID string) (transactions.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, kind, game_id, action_id, ref_id, created_at
		FROM ledger_entries
		WHERE user_id = $1 AND id = $2
	`, userID, txID)

	return scanOne(row)
}

func (r *transactionsRepo) FindByActionID(ctx context.Context, userID, actionID string) (transactions.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, kind, game_id, action_id, ref_id, created_at
		FROM ledger_entries
		WHERE user_id = $1 AND action_id = $2
	`, userID, actionID)

	return scanOne(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (transactions.Entry, error) {
	var (
		e    transactions.Entry
		kind string
	)

	err := s.Scan(&e.ID, &e.UserID, &e.Amount, &kind, &e.GameID, &e.ActionID, &e.RefID, &e.CreatedAt)
	if err != nil {
		return transactions.Entry{}, fmt.Errorf("scan ledger entry: %w", err)
	}

	e.Kind = transactions.Kind(kind)

	return e, nil
}

func scanOne(row *sql.Row) (transactions.Entry, error) {
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transactions.Entry{}, transactions.ErrNotFound
		}

		return transactions.Entry{}, err
	}

	return e, nil
}
