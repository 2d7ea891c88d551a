package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/UniPay/internal/instrument/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/ids"
)

type Service struct {
	log   *slog.Logger
	repo  Repository
	clock func() time.Time
}

func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo, clock: time.Now}
}

func (s *Service) AddCard(ctx context.Context, req domain.NewCard) (domain.Card, error) {
	if !req.Complete() {
		return domain.Card{}, apperr.Validation("All card fields are required.")
	}
	card := domain.Card{
		ID:           ids.New("card"),
		HolderID:     req.HolderID,
		MaskedNumber: domain.MaskCardNumber(req.CardNumber),
		Expiry:       req.Expiry,
		DisplayName:  req.Name,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.repo.SaveCard(ctx, card); err != nil {
		return domain.Card{}, apperr.Persistence("Error saving card information.", err)
	}
	s.log.InfoContext(ctx, "card saved", "card_id", card.ID, "holder_id", card.HolderID)
	return card, nil
}

func (s *Service) AddBank(ctx context.Context, req domain.NewBank) (domain.BankAccount, error) {
	if !req.Complete() {
		return domain.BankAccount{}, apperr.Validation("All bank fields are required.")
	}
	bank := domain.BankAccount{
		ID:                  ids.New("bank"),
		HolderID:            req.HolderID,
		BankName:            req.BankName,
		MaskedAccountNumber: domain.MaskAccountNumber(req.AccountNumber),
		AccountHolderName:   req.AccountHolderName,
		CreatedAt:           s.clock().UTC(),
	}
	if err := s.repo.SaveBank(ctx, bank); err != nil {
		return domain.BankAccount{}, apperr.Persistence("Error saving bank information.", err)
	}
	s.log.InfoContext(ctx, "bank account saved", "bank_id", bank.ID, "holder_id", bank.HolderID)
	return bank, nil
}

func (s *Service) ListCards(ctx context.Context, holderID string) ([]domain.Card, error) {
	cards, err := s.repo.ListCards(ctx, holderID)
	if err != nil {
		return nil, apperr.Persistence("Database error occurred.", err)
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

func (s *Service) ListBanks(ctx context.Context, holderID string) ([]domain.BankAccount, error) {
	banks, err := s.repo.ListBanks(ctx, holderID)
	if err != nil {
		return nil, apperr.Persistence("Database error occurred.", err)
	}
	if banks == nil {
		banks = []domain.BankAccount{}
	}
	return banks, nil
}
