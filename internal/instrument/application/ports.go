package application

import (
	"context"

	"github.com/dmehra2102/UniPay/internal/instrument/domain"
)

type Repository interface {
	SaveCard(ctx context.Context, c domain.Card) error
	SaveBank(ctx context.Context, b domain.BankAccount) error
	// ListCards and ListBanks return most recently added first.
	ListCards(ctx context.Context, holderID string) ([]domain.Card, error)
	ListBanks(ctx context.Context, holderID string) ([]domain.BankAccount, error)
}
