// Package notify delivers balance changes to interested parties after the
// ledger has committed them. Delivery is best effort: no sink may block or
// fail a ledger operation.
package notify

import (
	"context"
	"time"
)

type Notifier interface {
	Notify(ctx context.Context, userID string, balance int64)
}

// BalanceChanged is the event published to the stream.
type BalanceChanged struct {
	UserID     string    `json:"user_id"`
	Balance    int64     `json:"balance"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Nop struct{}

func (Nop) Notify(context.Context, string, int64) {}

// Fanout forwards every notification to each sink in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, userID string, balance int64) {
	for _, n := range f {
		n.Notify(ctx, userID, balance)
	}
}
