package application

import (
	"context"

	"github.com/dmehra2102/UniPay/internal/catalog/domain"
)

type GoodsRepository interface {
	// FirstByMethod returns the lowest-id good for method, or ErrNoGood.
	FirstByMethod(ctx context.Context, method domain.Method) (domain.Good, error)
	Ping(ctx context.Context) error
}
