package transactions

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

type Kind string

const (
	KindBet      Kind = "bet"
	KindWin      Kind = "win"
	KindRollback Kind = "rollback"
)

// Entry is one applied ledger movement. Amount is signed: bets are negative,
// wins positive, and a rollback carries the negation of the entry it reverses.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      Kind      `json:"kind"`
	GameID    string    `json:"game_id,omitempty"`
	ActionID  string    `json:"action_id,omitempty"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Transactions is the append-only per-user history.
type Transactions interface {
	// Append adds entry to the head of its user's log.
	Append(ctx context.Context, entry Entry) error
	// List returns up to limit entries, most recent first.
	List(ctx context.Context, userID string, limit int) ([]Entry, error)
	FindByID(ctx context.Context, userID, txID string) (Entry, error)
	// FindByActionID resolves the provider's action id to the entry it produced.
	FindByActionID(ctx context.Context, userID, actionID string) (Entry, error)
}
