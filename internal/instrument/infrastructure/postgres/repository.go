package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/UniPay/internal/instrument/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveCard(ctx context.Context, c domain.Card) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cards (id, holder_id, masked_number, expiry, name, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.HolderID, c.MaskedNumber, c.Expiry, c.DisplayName, c.CreatedAt)
	return err
}

func (r *Repository) SaveBank(ctx context.Context, b domain.BankAccount) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO banks (id, holder_id, bank_name, masked_account_number, account_holder_name, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.HolderID, b.BankName, b.MaskedAccountNumber, b.AccountHolderName, b.CreatedAt)
	return err
}

func (r *Repository) ListCards(ctx context.Context, holderID string) ([]domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, holder_id, masked_number, expiry, name, created_at FROM cards
		WHERE holder_id=$1 ORDER BY created_at DESC, id DESC`, holderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Card, error) {
		var c domain.Card
		err := row.Scan(&c.ID, &c.HolderID, &c.MaskedNumber, &c.Expiry, &c.DisplayName, &c.CreatedAt)
		c.CreatedAt = c.CreatedAt.UTC()
		return c, err
	})
}

func (r *Repository) ListBanks(ctx context.Context, holderID string) ([]domain.BankAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, holder_id, bank_name, masked_account_number, account_holder_name, created_at FROM banks
		WHERE holder_id=$1 ORDER BY created_at DESC, id DESC`, holderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BankAccount, error) {
		var b domain.BankAccount
		err := row.Scan(&b.ID, &b.HolderID, &b.BankName, &b.MaskedAccountNumber, &b.AccountHolderName, &b.CreatedAt)
		b.CreatedAt = b.CreatedAt.UTC()
		return b, err
	})
}
