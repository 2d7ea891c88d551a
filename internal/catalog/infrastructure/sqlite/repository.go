package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/dmehra2102/UniPay/internal/catalog/application"
	"github.com/dmehra2102/UniPay/internal/catalog/domain"
)

type Repository struct {
	log *slog.Logger
	db  *sql.DB
}

func NewRepository(log *slog.Logger, db *sql.DB) *Repository {
	return &Repository{log: log, db: db}
}

func (r *Repository) FirstByMethod(ctx context.Context, method domain.Method) (domain.Good, error) {
	var g domain.Good
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, discount, merchant, payment_method FROM goods WHERE payment_method = ? ORDER BY id LIMIT 1`,
		string(method)).Scan(&g.ID, &g.Name, &g.Price, &g.Discount, &g.Merchant, &g.PaymentMethod)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Good{}, application.ErrNoGood
	}
	if err != nil {
		return domain.Good{}, err
	}
	return g, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
