package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fastprodman/gamewallet/internal/infra/pgutils"
	"github.com/fastprodman/gamewallet/internal/infra/redisutils"
	"github.com/fastprodman/gamewallet/internal/repos/balances"
	membalances "github.com/fastprodman/gamewallet/internal/repos/balances/memory"
	pgbalances "github.com/fastprodman/gamewallet/internal/repos/balances/postgres"
	redisbalances "github.com/fastprodman/gamewallet/internal/repos/balances/redis"
	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	memtransactions "github.com/fastprodman/gamewallet/internal/repos/transactions/memory"
	pgtransactions "github.com/fastprodman/gamewallet/internal/repos/transactions/postgres"
	redistransactions "github.com/fastprodman/gamewallet/internal/repos/transactions/redis"
	"github.com/fastprodman/gamewallet/pkg/shutdownqueue"
)

// openStores connects the configured backend and registers its shutdown.
func openStores(ctx context.Context, cfg *apiConfig) (balances.Balances, transactions.Transactions, error) {
	switch cfg.Ledger.Backend {
	case "redis":
		rdb, err := redisutils.OpenClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}

		shutdownqueue.Add("redis", func(context.Context) error {
			return rdb.Close()
		})

		return redisbalances.New(rdb), redistransactions.New(rdb), nil

	case "postgres":
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}

		shutdownqueue.Add("postgres", func(context.Context) error {
			return db.Close()
		})

		return pgbalances.New(db), pgtransactions.New(db), nil

	case "memory":
		slog.Warn("using in-memory ledger store, balances are lost on restart")

		return membalances.New(), memtransactions.New(), nil

	default:
		return nil, nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Ledger.Backend)
	}
}
