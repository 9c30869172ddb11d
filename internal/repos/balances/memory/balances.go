package balances

import (
	"context"
	"sync"

	"github.com/fastprodman/gamewallet/internal/repos/balances"
)

var _ balances.Balances = (*balancesRepo)(nil)

type balancesRepo struct {
	mu   sync.RWMutex
	data map[string]int64
}

// New returns a process-local store. It does not survive a restart and is
// meant for tests and single-node development.
func New() *balancesRepo {
	return &balancesRepo{data: make(map[string]int64)}
}

func (r *balancesRepo) Get(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	amount, ok := r.data[userID]
	if !ok {
		return 0, balances.ErrNotFound
	}

	return amount, nil
}

func (r *balancesRepo) Set(_ context.Context, userID string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[userID] = amount

	return nil
}
