package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/internal/pricing/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/logging"
)

type feedFunc func(ctx context.Context) ([]domain.Quote, error)

func (f feedFunc) Quotes(ctx context.Context) ([]domain.Quote, error) { return f(ctx) }

func TestGetPrice_LiveQuote(t *testing.T) {
	calls := 0
	svc := NewService(logging.Discard(), feedFunc(func(context.Context) ([]domain.Quote, error) {
		calls++
		return []domain.Quote{{ID: 1, Symbol: "SOL", Name: "Solana", PriceUSD: 150.25}}, nil
	}))

	q, err := svc.GetPrice(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, 150.25, q.PriceUSD)

	_, err = svc.GetPrice(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "every lookup refetches")
}

func TestGetPrice_FeedFailuresFallBack(t *testing.T) {
	for name, feedErr := range map[string]error{
		"timeout":      context.DeadlineExceeded,
		"rate limited": ErrRateLimited,
		"bad status":   errors.New("coingecko: status 502"),
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(logging.Discard(), feedFunc(func(context.Context) ([]domain.Quote, error) {
				return nil, feedErr
			}))

			q, err := svc.GetPrice(context.Background(), "BTC")
			require.NoError(t, err)
			assert.Equal(t, 45000.00, q.PriceUSD)
		})
	}
}

func TestGetPrice_UnknownSymbol(t *testing.T) {
	svc := NewService(logging.Discard(), feedFunc(func(context.Context) ([]domain.Quote, error) {
		return nil, errors.New("down")
	}))

	_, err := svc.GetPrice(context.Background(), "DOGE")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.GetPrice(context.Background(), " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestList_EmptyFeedFallsBack(t *testing.T) {
	svc := NewService(logging.Discard(), feedFunc(func(context.Context) ([]domain.Quote, error) {
		return nil, nil
	}))
	assert.Len(t, svc.List(context.Background()), 2)
}
