package balances

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fastprodman/gamewallet/internal/repos/balances"
	"github.com/redis/go-redis/v9"
)

var _ balances.Balances = (*balancesRepo)(nil)

const keyPrefix = "user:balance:"

type balancesRepo struct{ rdb redis.Cmdable }

func New(rdb redis.Cmdable) *balancesRepo {
	return &balancesRepo{rdb: rdb}
}

func key(userID string) string {
	return keyPrefix + userID
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (int64, error) {
	raw, err := r.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, balances.ErrNotFound
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse stored balance %q: %w", raw, err)
	}

	return amount, nil
}

func (r *balancesRepo) Set(ctx context.Context, userID string, amount int64) error {
	err := r.rdb.Set(ctx, key(userID), strconv.FormatInt(amount, 10), 0).Err()
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}
