package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dmehra2102/UniPay/internal/instrument/domain"
	"github.com/dmehra2102/UniPay/pkg/database"
)

type Repository struct {
	log *slog.Logger
	db  *sql.DB
}

func NewRepository(log *slog.Logger, db *sql.DB) *Repository {
	return &Repository{log: log, db: db}
}

func (r *Repository) SaveCard(ctx context.Context, c domain.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (id, holder_id, masked_number, expiry, name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.HolderID, c.MaskedNumber, c.Expiry, c.DisplayName, database.FormatTime(c.CreatedAt))
	return err
}

func (r *Repository) SaveBank(ctx context.Context, b domain.BankAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banks (id, holder_id, bank_name, masked_account_number, account_holder_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.HolderID, b.BankName, b.MaskedAccountNumber, b.AccountHolderName, database.FormatTime(b.CreatedAt))
	return err
}

func (r *Repository) ListCards(ctx context.Context, holderID string) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, holder_id, masked_number, expiry, name, created_at FROM cards
		WHERE holder_id = ? ORDER BY created_at DESC, id DESC`, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		var createdAt string
		if err := rows.Scan(&c.ID, &c.HolderID, &c.MaskedNumber, &c.Expiry, &c.DisplayName, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *Repository) ListBanks(ctx context.Context, holderID string) ([]domain.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, holder_id, bank_name, masked_account_number, account_holder_name, created_at FROM banks
		WHERE holder_id = ? ORDER BY created_at DESC, id DESC`, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []domain.BankAccount
	for rows.Next() {
		var b domain.BankAccount
		var createdAt string
		if err := rows.Scan(&b.ID, &b.HolderID, &b.BankName, &b.MaskedAccountNumber, &b.AccountHolderName, &createdAt); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}
