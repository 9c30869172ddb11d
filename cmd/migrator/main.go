package main

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fastprodman/gamewallet/internal/infra/logging"
	"github.com/fastprodman/gamewallet/pkg/envconf"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

//go:embed test_data/*.sql
var seedFS embed.FS

// Seed data is versioned independently from the schema.
const seedMigrationsTable = "seed_migrations"

type migratorConfig struct {
	DSN      string     `env:"PG_DSN"`
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"INFO"`
	AppEnv   string     `env:"APP_ENV" default:"PROD"`
}

func main() {
	err := run()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func run() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := new(migratorConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//nolint:errcheck
	defer logging.SetupJSON(cfg.LogLevel, "").Close()

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	err = db.Ping()
	if err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	err = apply(db, schemaFS, "migrations", postgres.DefaultMigrationsTable)
	if err != nil {
		return fmt.Errorf("schema migrations: %w", err)
	}

	slog.Info("schema migrations applied")

	if cfg.AppEnv == "DEV" {
		err = apply(db, seedFS, "test_data", seedMigrationsTable)
		if err != nil {
			return fmt.Errorf("seed migrations: %w", err)
		}

		slog.Info("seed migrations applied")
	}

	return nil
}

func apply(db *sql.DB, fsys embed.FS, dir, table string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}

	return nil
}
