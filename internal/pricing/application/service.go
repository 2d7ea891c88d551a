package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmehra2102/UniPay/internal/pricing/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/metrics"
)

// ErrRateLimited is returned by feeds that refuse to call upstream.
var ErrRateLimited = errors.New("price feed rate limited")

// Service answers price lookups. It never caches and never fails because of
// the feed: an unavailable feed degrades to domain.FallbackQuotes.
type Service struct {
	log  *slog.Logger
	feed Feed
}

func NewService(log *slog.Logger, feed Feed) *Service {
	return &Service{log: log, feed: feed}
}

func (s *Service) List(ctx context.Context) []domain.Quote {
	quotes, err := s.feed.Quotes(ctx)
	if err == nil && len(quotes) > 0 {
		return quotes
	}
	reason := "error"
	switch {
	case err == nil:
		reason = "empty"
	case errors.Is(err, ErrRateLimited):
		reason = "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	}
	s.log.WarnContext(ctx, "price feed unavailable, serving fallback quotes", "reason", reason, "err", err)
	metrics.PricingFallback(reason)
	return domain.FallbackQuotes()
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return domain.Quote{}, apperr.Validation("crypto type is required")
	}
	q, ok := domain.Find(s.List(ctx), symbol)
	if !ok {
		return domain.Quote{}, apperr.NotFound("crypto not found")
	}
	return q, nil
}
