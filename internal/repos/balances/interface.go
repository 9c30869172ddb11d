package balances

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("balance not found")

// Balances is a single numeric balance per user id, in minor units.
// A single key's write is atomic and visible to the next read on that key;
// callers serialize read-modify-write cycles themselves.
type Balances interface {
	// Get returns ErrNotFound when the user has no stored balance.
	Get(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, amount int64) error
}
