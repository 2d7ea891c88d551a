package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// MigratePostgres creates the schema if missing and seeds the catalog once.
func MigratePostgres(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM goods`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, g := range seedGoods {
		if _, err := pool.Exec(ctx,
			`INSERT INTO goods (name, price, discount, merchant, payment_method) VALUES ($1,$2,$3,$4,$5)`,
			g.name, g.price, g.discount, g.merchant, g.method); err != nil {
			return err
		}
	}
	log.Info("seeded goods", "count", len(seedGoods))
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS goods (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		discount DOUBLE PRECISION NOT NULL DEFAULT 0,
		merchant TEXT NOT NULL,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('fiat','crypto'))
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL,
		masked_number TEXT NOT NULL,
		expiry TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS cards_holder_created ON cards (holder_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS banks (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL,
		bank_name TEXT NOT NULL,
		masked_account_number TEXT NOT NULL,
		account_holder_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS banks_holder_created ON banks (holder_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS purchase_history (
		id TEXT PRIMARY KEY,
		user_email TEXT NOT NULL,
		item TEXT NOT NULL,
		amount_paid DOUBLE PRECISION NOT NULL,
		payment_method TEXT NOT NULL,
		points BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Completed',
		merchant_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reward_history (
		id TEXT PRIMARY KEY,
		user_email TEXT NOT NULL,
		tokens BIGINT NOT NULL,
		source TEXT NOT NULL,
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload JSONB NOT NULL,
		headers JSONB NOT NULL DEFAULT '{}'::jsonb,
		traceparent TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TIMESTAMPTZ,
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
