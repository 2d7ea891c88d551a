package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/database"
	"github.com/dmehra2102/UniPay/pkg/outbox"
)

type Repository struct {
	log *slog.Logger
	db  *sql.DB
}

func NewRepository(log *slog.Logger, db *sql.DB) *Repository {
	return &Repository{log: log, db: db}
}

func (r *Repository) SavePurchase(ctx context.Context, p domain.Purchase, ev outbox.Event) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_history (id, user_email, item, amount_paid, payment_method, points, status, merchant_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserEmail, p.Item, p.AmountPaid, p.PaymentMethod, p.Points, p.Status, p.MerchantName, database.FormatTime(p.CreatedAt)); err != nil {
			return err
		}
		return outbox.AppendSQL(ctx, tx, ev, p.CreatedAt)
	})
}

func (r *Repository) SaveReward(ctx context.Context, rw domain.Reward, ev outbox.Event) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reward_history (id, user_email, tokens, source, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			rw.ID, rw.UserEmail, rw.Tokens, rw.Source, rw.Note, database.FormatTime(rw.CreatedAt)); err != nil {
			return err
		}
		return outbox.AppendSQL(ctx, tx, ev, rw.CreatedAt)
	})
}

func (r *Repository) PurchasesByEmail(ctx context.Context, email string) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, item, amount_paid, payment_method, points, status, merchant_name, created_at
		FROM purchase_history WHERE user_email = ? ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		var createdAt string
		if err := rows.Scan(&p.ID, &p.UserEmail, &p.Item, &p.AmountPaid, &p.PaymentMethod, &p.Points, &p.Status, &p.MerchantName, &createdAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) RewardsByEmail(ctx context.Context, email string) ([]domain.Reward, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, tokens, source, note, created_at
		FROM reward_history WHERE user_email = ? ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reward
	for rows.Next() {
		var rw domain.Reward
		var note sql.NullString
		var createdAt string
		if err := rows.Scan(&rw.ID, &rw.UserEmail, &rw.Tokens, &rw.Source, &note, &createdAt); err != nil {
			return nil, err
		}
		if note.Valid {
			rw.Note = &note.String
		}
		if rw.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
