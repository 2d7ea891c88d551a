package application

import (
	"context"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/outbox"
)

// Repository persists one record together with its outbox event in a single
// local transaction.
type Repository interface {
	SavePurchase(ctx context.Context, p domain.Purchase, ev outbox.Event) error
	SaveReward(ctx context.Context, r domain.Reward, ev outbox.Event) error
	PurchasesByEmail(ctx context.Context, email string) ([]domain.Purchase, error)
	RewardsByEmail(ctx context.Context, email string) ([]domain.Reward, error)
}
