package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/UniPay/internal/catalog/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
)

// ErrNoGood is returned by repositories when no good matches.
var ErrNoGood = errors.New("no good for method")

type Service struct {
	log  *slog.Logger
	repo GoodsRepository
}

func NewService(log *slog.Logger, repo GoodsRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) GetItem(ctx context.Context, raw string) (domain.Good, error) {
	method, err := domain.ParseMethod(raw)
	if err != nil {
		return domain.Good{}, err
	}
	good, err := s.repo.FirstByMethod(ctx, method)
	switch {
	case errors.Is(err, ErrNoGood):
		return domain.Good{}, apperr.NotFound("no goods found for " + string(method) + " payment method")
	case err != nil:
		return domain.Good{}, apperr.Persistence("failed to load goods", err)
	}
	return good, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
