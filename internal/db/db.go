// Package db holds the optional Postgres connection pool shared by the
// job-audit-log mirror and the template store, for deployments that
// want reconciliation history and templates to outlive a single
// instance's local disk.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/semaphore"

	"github.com/utasoy/market-reconciler/internal/config"
)

// DB wraps a sqlx connection pool with a semaphore that bounds how many
// transactions run concurrently, so a burst of job-status writes can't
// exhaust the pool out from under the HTTP handlers sharing it.
type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// Open connects to Postgres via pgx's database/sql driver and verifies
// the connection with a short-lived ping.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &DB{DB: conn, sem: semaphore.NewWeighted(10)}, nil
}

// WithTx runs fn inside a transaction, bounded by the pool semaphore.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("db: acquire: %w", err)
	}
	defer d.sem.Release(1)

	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
