package application

import (
	"context"

	"github.com/dmehra2102/UniPay/internal/pricing/domain"
)

// Feed fetches live market quotes. Any error makes the service fall back.
type Feed interface {
	Quotes(ctx context.Context) ([]domain.Quote, error)
}
