package ledger

import (
	"fmt"
	"time"

	"github.com/fastprodman/gamewallet/internal/repos/transactions"
)

type ActionKind string

const (
	ActionBet ActionKind = "bet"
	ActionWin ActionKind = "win"
)

// ParseActionKind accepts exactly "bet" or "win".
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionBet, ActionWin:
		return ActionKind(s), nil
	default:
		return "", fmt.Errorf("unknown action %q: %w", s, ErrInvalidRequest)
	}
}

func (k ActionKind) entryKind() transactions.Kind {
	if k == ActionBet {
		return transactions.KindBet
	}

	return transactions.KindWin
}

// Action is one provider instruction. Amount is in minor units and always
// positive; the kind decides the sign.
type Action struct {
	Kind     ActionKind
	Amount   int64
	ActionID string
}

// Batch is an ordered list of actions for one user and one game round.
type Batch struct {
	UserID   string
	Currency string
	Game     string
	GameID   string
	Finished bool
	Actions  []Action
}

func (b Batch) validate() error {
	if b.UserID == "" {
		return fmt.Errorf("missing user id: %w", ErrInvalidRequest)
	}

	for i, a := range b.Actions {
		_, err := ParseActionKind(string(a.Kind))
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}

		if a.Amount <= 0 {
			return fmt.Errorf("action %d: amount must be positive: %w", i, ErrInvalidRequest)
		}
	}

	return nil
}

// Ack correlates a provider action id with the ledger transaction it produced.
type Ack struct {
	ActionID    string
	TxID        string
	ProcessedAt time.Time
}

type PlayResult struct {
	Balance      int64
	GameID       string
	Transactions []Ack
}

type RollbackRequest struct {
	UserID        string
	TransactionID string
	// Amount is the caller's view of the original amount. It is only
	// compared against the logged entry, never applied.
	Amount int64
}

type RollbackResult struct {
	UserID  string
	Balance int64
}
