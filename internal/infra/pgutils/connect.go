package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/gamewallet/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var ErrEmptyDSN = errors.New("postgres dsn is empty")

// OpenDB opens a pgx-backed *sql.DB, applies pool settings and pings it.
func OpenDB(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
