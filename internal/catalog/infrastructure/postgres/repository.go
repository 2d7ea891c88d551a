package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/UniPay/internal/catalog/application"
	"github.com/dmehra2102/UniPay/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FirstByMethod(ctx context.Context, method domain.Method) (domain.Good, error) {
	var g domain.Good
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, discount, merchant, payment_method FROM goods WHERE payment_method=$1 ORDER BY id LIMIT 1`,
		string(method)).Scan(&g.ID, &g.Name, &g.Price, &g.Discount, &g.Merchant, &g.PaymentMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Good{}, application.ErrNoGood
	}
	if err != nil {
		return domain.Good{}, err
	}
	return g, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
