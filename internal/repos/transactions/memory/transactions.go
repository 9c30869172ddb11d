package transactions

import (
	"context"
	"sync"

	"github.com/fastprodman/gamewallet/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type userLog struct {
	entries  []transactions.Entry // oldest first
	byID     map[string]int
	byAction map[string]int
}

type transactionsRepo struct {
	mu    sync.RWMutex
	users map[string]*userLog
}

func New() *transactionsRepo {
	return &transactionsRepo{users: make(map[string]*userLog)}
}

func (r *transactionsRepo) Append(_ context.Context, entry transactions.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.users[entry.UserID]
	if !ok {
		log = &userLog{
			byID:     make(map[string]int),
			byAction: make(map[string]int),
		}
		r.users[entry.UserID] = log
	}

	if _, dup := log.byID[entry.ID]; dup {
		return transactions.ErrDuplicateTransaction
	}

	if entry.ActionID != "" {
		if _, dup := log.byAction[entry.ActionID]; dup {
			return transactions.ErrDuplicateTransaction
		}
	}

	idx := len(log.entries)
	log.entries = append(log.entries, entry)
	log.byID[entry.ID] = idx

	if entry.ActionID != "" {
		log.byAction[entry.ActionID] = idx
	}

	return nil
}

func (r *transactionsRepo) List(_ context.Context, userID string, limit int) ([]transactions.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.users[userID]
	if !ok || limit <= 0 {
		return []transactions.Entry{}, nil
	}

	n := min(limit, len(log.entries))
	out := make([]transactions.Entry, 0, n)

	for i := len(log.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, log.entries[i])
	}

	return out, nil
}

func (r *transactionsRepo) FindByID(_ context.Context, userID, txID string) (transactions.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.users[userID]
	if !ok {
		return transactions.Entry{}, transactions.ErrNotFound
	}

	idx, ok := log.byID[txID]
	if !ok {
		return transactions.Entry{}, transactions.ErrNotFound
	}

	return log.entries[idx], nil
}

func (r *transactionsRepo) FindByActionID(_ context.Context, userID, actionID string) (transactions.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.users[userID]
	if !ok {
		return transactions.Entry{}, transactions.ErrNotFound
	}

	idx, ok := log.byAction[actionID]
	if !ok {
		return transactions.Entry{}, transactions.ErrNotFound
	}

	return log.entries[idx], nil
}
