package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SavePurchase(ctx context.Context, p domain.Purchase, ev outbox.Event) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO purchase_history (id, user_email, item, amount_paid, payment_method, points, status, merchant_name, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.UserEmail, p.Item, p.AmountPaid, p.PaymentMethod, p.Points, p.Status, p.MerchantName, p.CreatedAt); err != nil {
			return err
		}
		return outbox.AppendPG(ctx, tx, ev)
	})
}

func (r *Repository) SaveReward(ctx context.Context, rw domain.Reward, ev outbox.Event) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO reward_history (id, user_email, tokens, source, note, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			rw.ID, rw.UserEmail, rw.Tokens, rw.Source, rw.Note, rw.CreatedAt); err != nil {
			return err
		}
		return outbox.AppendPG(ctx, tx, ev)
	})
}

func (r *Repository) PurchasesByEmail(ctx context.Context, email string) ([]domain.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_email, item, amount_paid, payment_method, points, status, merchant_name, created_at
		FROM purchase_history WHERE user_email=$1 ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Purchase, error) {
		var p domain.Purchase
		err := row.Scan(&p.ID, &p.UserEmail, &p.Item, &p.AmountPaid, &p.PaymentMethod, &p.Points, &p.Status, &p.MerchantName, &p.CreatedAt)
		p.CreatedAt = p.CreatedAt.UTC()
		return p, err
	})
}

func (r *Repository) RewardsByEmail(ctx context.Context, email string) ([]domain.Reward, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_email, tokens, source, note, created_at
		FROM reward_history WHERE user_email=$1 ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Reward, error) {
		var rw domain.Reward
		err := row.Scan(&rw.ID, &rw.UserEmail, &rw.Tokens, &rw.Source, &rw.Note, &rw.CreatedAt)
		rw.CreatedAt = rw.CreatedAt.UTC()
		return rw, err
	})
}
