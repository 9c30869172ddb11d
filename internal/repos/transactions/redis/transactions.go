package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	"github.com/redis/go-redis/v9"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

// Per user the log is a list of JSON entries (head = newest) plus two hashes
// indexing the same payloads by transaction id and action id. The index
// prefixes are disjoint from the list prefix, so no user id can address
// another user's keys.
const (
	listPrefix   = "user:transactions:"
	byIDPrefix   = "user:txindex:id:"
	byActionPref = "user:txindex:action:"
)

// appendScript writes the list entry and both indexes in one step. It
// returns 0 without writing anything when the id is already indexed. The
// list is pushed first so a failed push leaves no index behind.
//
// KEYS: id index, list, action index. ARGV: tx id, payload, action id.
var appendScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
	return 0
end
redis.call('LPUSH', KEYS[2], ARGV[2])
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
if ARGV[3] ~= '' then
	redis.call('HSETNX', KEYS[3], ARGV[3], ARGV[1])
end
return 1
`)

type transactionsRepo struct{ rdb redis.Cmdable }

func New(rdb redis.Cmdable) *transactionsRepo {
	return &transactionsRepo{rdb: rdb}
}

func (r *transactionsRepo) Append(ctx context.Context, e transactions.Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}

	keys := []string{byIDPrefix + e.UserID, listPrefix + e.UserID, byActionPref + e.UserID}

	added, err := appendScript.Run(ctx, r.rdb, keys, e.ID, payload, e.ActionID).Int()
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	if added == 0 {
		return transactions.ErrDuplicateTransaction
	}

	return nil
}

func (r *transactionsRepo) List(ctx context.Context, userID string, limit int) ([]transactions.Entry, error) {
	if limit <= 0 {
		return []transactions.Entry{}, nil
	}

	raw, err := r.rdb.LRange(ctx, listPrefix+userID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	out := make([]transactions.Entry, 0, len(raw))

	for _, item := range raw {
		var e transactions.Entry

		err = json.Unmarshal([]byte(item), &e)
		if err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}

		out = append(out, e)
	}

	return out, nil
}

func (r *transactionsRepo) FindByID(ctx context.Context, userID, txID string) (transactions.Entry, error) {
	raw, err := r.rdb.HGet(ctx, byIDPrefix+userID, txID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return transactions.Entry{}, transactions.ErrNotFound
		}

		return transactions.Entry{}, fmt.Errorf("find ledger entry: %w", err)
	}

	var e transactions.Entry

	err = json.Unmarshal([]byte(raw), &e)
	if err != nil {
		return transactions.Entry{}, fmt.Errorf("decode ledger entry: %w", err)
	}

	return e, nil
}

func (r *transactionsRepo) FindByActionID(ctx context.Context, userID, actionID string) (transactions.Entry, error) {
	txID, err := r.rdb.HGet(ctx, byActionPref+userID, actionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return transactions.Entry{}, transactions.ErrNotFound
		}

		return transactions.Entry{}, fmt.Errorf("find action index: %w", err)
	}

	return r.FindByID(ctx, userID, txID)
}
