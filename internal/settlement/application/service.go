package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/ids"
	"github.com/dmehra2102/UniPay/pkg/metrics"
	"github.com/dmehra2102/UniPay/pkg/outbox"
	"github.com/dmehra2102/UniPay/pkg/tracing"
)

type Service struct {
	log    *slog.Logger
	repo   Repository
	source string
	clock  func() time.Time
}

// NewService builds the recorder. source is stamped on every outbox event.
func NewService(log *slog.Logger, repo Repository, source string) *Service {
	return &Service{log: log, repo: repo, source: source, clock: time.Now}
}

func (s *Service) RecordPurchase(ctx context.Context, req domain.NewPurchase) (domain.Purchase, error) {
	if !req.Complete() {
		return domain.Purchase{}, apperr.Validation("Missing required fields.")
	}
	p := domain.Purchase{
		ID:            ids.New("purchase"),
		UserEmail:     req.UserEmail,
		Item:          req.Item,
		AmountPaid:    *req.AmountPaid,
		PaymentMethod: req.PaymentMethod,
		Points:        req.Points,
		Status:        req.Status,
		MerchantName:  req.MerchantName,
		CreatedAt:     s.clock().UTC(),
	}
	if p.Status == "" {
		p.Status = domain.DefaultPurchaseStatus
	}

	ev, err := s.event(ctx, "purchase", p.ID, domain.EventPurchaseRecorded, domain.PurchaseRecorded{
		PurchaseID:    p.ID,
		UserEmail:     p.UserEmail,
		Item:          p.Item,
		AmountPaid:    p.AmountPaid,
		PaymentMethod: p.PaymentMethod,
		MerchantName:  p.MerchantName,
		RecordedAt:    p.CreatedAt,
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	err = s.repo.SavePurchase(ctx, p, ev)
	metrics.SettlementWrite("purchase", err)
	if err != nil {
		return domain.Purchase{}, apperr.Persistence("Error saving purchase.", err)
	}
	s.log.InfoContext(ctx, "purchase recorded", "purchase_id", p.ID, "payment_method", p.PaymentMethod)
	return p, nil
}

func (s *Service) RecordReward(ctx context.Context, req domain.NewReward) (domain.Reward, error) {
	if !req.Complete() {
		return domain.Reward{}, apperr.Validation("Missing required fields.")
	}
	r := domain.Reward{
		ID:        ids.New("reward"),
		UserEmail: req.UserEmail,
		Tokens:    *req.Tokens,
		Source:    req.Source,
		Note:      req.Note,
		CreatedAt: s.clock().UTC(),
	}
	if r.Note != nil && *r.Note == "" {
		r.Note = nil
	}

	ev, err := s.event(ctx, "reward", r.ID, domain.EventRewardGranted, domain.RewardGranted{
		RewardID:  r.ID,
		UserEmail: r.UserEmail,
		Tokens:    r.Tokens,
		Source:    r.Source,
		GrantedAt: r.CreatedAt,
	})
	if err != nil {
		return domain.Reward{}, err
	}

	err = s.repo.SaveReward(ctx, r, ev)
	metrics.SettlementWrite("reward", err)
	if err != nil {
		return domain.Reward{}, apperr.Persistence("Error saving reward.", err)
	}
	s.log.InfoContext(ctx, "reward recorded", "reward_id", r.ID, "tokens", r.Tokens)
	return r, nil
}

func (s *Service) History(ctx context.Context, email string) (domain.History, error) {
	purchases, err := s.repo.PurchasesByEmail(ctx, email)
	if err != nil {
		return domain.History{}, apperr.Persistence("Database error occurred.", err)
	}
	rewards, err := s.repo.RewardsByEmail(ctx, email)
	if err != nil {
		return domain.History{}, apperr.Persistence("Database error occurred.", err)
	}
	if purchases == nil {
		purchases = []domain.Purchase{}
	}
	if rewards == nil {
		rewards = []domain.Reward{}
	}
	return domain.History{Purchases: purchases, Rewards: rewards}, nil
}

func (s *Service) event(ctx context.Context, aggregate, id, eventType string, body any) (outbox.Event, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return outbox.Event{}, apperr.Persistence("failed to encode event", err)
	}
	return outbox.Event{
		AggregateType: aggregate,
		AggregateID:   id,
		Type:          eventType,
		Payload:       payload,
		Headers:       map[string]string{"source": s.source},
		Traceparent:   tracing.Traceparent(ctx),
	}, nil
}
