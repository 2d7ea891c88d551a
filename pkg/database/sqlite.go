package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the fixed-width UTC layout used for TEXT timestamps in SQLite,
// so that lexical order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// OpenSQLite opens the database file at path. SQLite allows a single writer, so
// the pool is pinned to one connection; this also keeps ":memory:" databases
// shared across calls.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func MigrateSQLite(ctx context.Context, log *slog.Logger, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goods`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, g := range seedGoods {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO goods (name, price, discount, merchant, payment_method) VALUES (?, ?, ?, ?, ?)`,
			g.name, g.price, g.discount, g.merchant, g.method); err != nil {
			return err
		}
	}
	log.Info("seeded goods", "count", len(seedGoods))
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS goods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		discount REAL NOT NULL DEFAULT 0,
		merchant TEXT NOT NULL,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('fiat','crypto'))
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL,
		masked_number TEXT NOT NULL,
		expiry TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS cards_holder_created ON cards (holder_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS banks (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL,
		bank_name TEXT NOT NULL,
		masked_account_number TEXT NOT NULL,
		account_holder_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS banks_holder_created ON banks (holder_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS purchase_history (
		id TEXT PRIMARY KEY,
		user_email TEXT NOT NULL,
		item TEXT NOT NULL,
		amount_paid REAL NOT NULL,
		payment_method TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Completed',
		merchant_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reward_history (
		id TEXT PRIMARY KEY,
		user_email TEXT NOT NULL,
		tokens INTEGER NOT NULL,
		source TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload BLOB NOT NULL,
		headers TEXT NOT NULL DEFAULT '{}',
		traceparent TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TEXT NOT NULL
	)`,
}
