package application

import (
	"context"
	"log/slog"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	instrument "github.com/dmehra2102/UniPay/internal/instrument/domain"
	pricing "github.com/dmehra2102/UniPay/internal/pricing/domain"
	settlement "github.com/dmehra2102/UniPay/internal/settlement/domain"
)

type Catalog interface {
	GetItem(ctx context.Context, method catalog.Method) (catalog.Good, error)
}

// Pricer must not fail because the market feed is down; implementations
// degrade to fallback quotes.
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (pricing.Quote, error)
}

type Registry interface {
	ListCards(ctx context.Context, holderID string) ([]instrument.Card, error)
	ListBanks(ctx context.Context, holderID string) ([]instrument.BankAccount, error)
}

// Recorder writes settlement records. Calls sharing an idempotency key are
// answered with the first result instead of writing again.
type Recorder interface {
	RecordPurchase(ctx context.Context, idempotencyKey string, req settlement.NewPurchase) (settlement.Purchase, error)
	RecordReward(ctx context.Context, idempotencyKey string, req settlement.NewReward) (settlement.Reward, error)
}

// MethodStore keeps the chosen payment method for a browser-like session so
// it survives a reload.
type MethodStore interface {
	Save(ctx context.Context, session string, method catalog.Method) error
	Load(ctx context.Context, session string) (catalog.Method, bool, error)
	Clear(ctx context.Context, session string) error
}

type Deps struct {
	Catalog  Catalog
	Pricer   Pricer
	Registry Registry
	Recorder Recorder
	Methods  MethodStore
	Logger   *slog.Logger
}
