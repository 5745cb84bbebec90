package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/USSTM/doc-gateway/db/migrations"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Database struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

func New(cfg *config.DatabaseConfig) (*Database, error) {
	pool, err := pgxpool.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Activate and test the connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return FromPool(pool), nil
}

// FromPool wraps an existing pool, e.g. one owned by a test container.
func FromPool(pool *pgxpool.Pool) *Database {
	return &Database{
		pool:    pool,
		queries: db.New(pool),
	}
}

func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func (d *Database) Queries() *db.Queries {
	return d.queries
}

func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate applies every embedded migration that has not run yet.
func (d *Database) Migrate() error {
	sqlDB, err := d.gooseDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Reset rolls every migration back and applies them again, leaving only seed data.
func (d *Database) Reset() error {
	sqlDB, err := d.gooseDB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.Reset(sqlDB, "."); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (d *Database) gooseDB() (*sql.DB, error) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return stdlib.OpenDBFromPool(d.pool), nil
}
