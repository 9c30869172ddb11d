package balances

import (
	"context"
	"errors"
)

var _ Balances = (*withDefault)(nil)

type withDefault struct {
	store   Balances
	opening int64
}

// WithDefault wraps store so that a user without a record reads as the
// opening balance. Nothing is persisted until the first Set. Any other Get
// error is returned unchanged, as are Set errors.
func WithDefault(store Balances, opening int64) Balances {
	return &withDefault{store: store, opening: opening}
}

func (d *withDefault) Get(ctx context.Context, userID string) (int64, error) {
	amount, err := d.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return d.opening, nil
	}

	return amount, err
}

func (d *withDefault) Set(ctx context.Context, userID string, amount int64) error {
	return d.store.Set(ctx, userID, amount)
}
