package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	"github.com/dmehra2102/UniPay/internal/checkout/domain"
	instrument "github.com/dmehra2102/UniPay/internal/instrument/domain"
	settlement "github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
)

const (
	rewardSource   = "Purchase Cashback"
	purchaseStatus = "Completed"
)

var (
	// ErrBusy is returned, without any state change, when an operation
	// arrives while a confirmation is in flight.
	ErrBusy = errors.New("checkout: confirmation in progress")
	// ErrPaymentFailed wraps settlement failures surfaced by Confirm.
	ErrPaymentFailed = errors.New("Payment failed. Please try again.")
	// ErrStale is returned when the session was reset while a call was outstanding.
	ErrStale = errors.New("checkout: session was reset")
)

type InstrumentKind string

const (
	KindCard InstrumentKind = "card"
	KindBank InstrumentKind = "bank"
)

type InstrumentRef struct {
	Kind InstrumentKind
	ID   string
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Status    domain.Status
	Method    catalog.Method
	Summary   *domain.Summary
	Cards     []instrument.Card
	Banks     []instrument.BankAccount
	Selected  *InstrumentRef
	Record    *domain.SettlementRecord
	LastError error
	RequestID string
}

type failStage int

const (
	failNone failStage = iota
	failSources
	failConfirm
)

// Session drives one checkout attempt from method choice to settlement.
// Calls may come from several goroutines; network calls run without the lock
// held and their results are dropped if the session was reset meanwhile.
type Session struct {
	deps       Deps
	user       domain.Identity
	sessionKey string

	mu        sync.Mutex
	gen       uint64
	status    domain.Status
	method    catalog.Method
	summary   *domain.Summary
	cards     []instrument.Card
	banks     []instrument.BankAccount
	sourced   bool
	selected  *InstrumentRef
	record    *domain.SettlementRecord
	lastErr   error
	failed    failStage
	requestID string
}

func NewSession(deps Deps, user domain.Identity, sessionKey string) *Session {
	return &Session{
		deps:       deps,
		user:       user,
		sessionKey: sessionKey,
		status:     domain.StatusIdle,
		requestID:  uuid.NewString(),
	}
}

// SelectMethod chooses fiat or crypto, persists the choice for the session
// and starts over from idle. Invalid methods leave the session untouched.
func (s *Session) SelectMethod(ctx context.Context, raw string) error {
	method, err := catalog.ParseMethod(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.selectableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.gen
	s.mu.Unlock()

	// The session only changes once the choice is persisted.
	if err := s.deps.Methods.Save(ctx, s.sessionKey, method); err != nil {
		s.deps.Logger.WarnContext(ctx, "persisting payment method failed", "session", s.sessionKey, "err", err)
		return apperr.Persistence("could not remember payment method", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrStale
	}
	if err := s.selectableLocked(); err != nil {
		return err
	}
	s.resetLocked()
	s.method = method
	s.deps.Logger.DebugContext(ctx, "payment method selected", "session", s.sessionKey, "method", method)
	return nil
}

func (s *Session) selectableLocked() error {
	switch s.status {
	case domain.StatusProcessing:
		return ErrBusy
	case domain.StatusSucceeded:
		return fmt.Errorf("%w: session already settled", domain.ErrInvalidTransition)
	}
	return nil
}

// Resume restores a method persisted by an earlier SelectMethod.
func (s *Session) Resume(ctx context.Context) (catalog.Method, bool, error) {
	method, ok, err := s.deps.Methods.Load(ctx, s.sessionKey)
	if err != nil {
		return "", false, apperr.Persistence("could not restore payment method", err)
	}
	if !ok {
		return "", false, nil
	}
	method, err = catalog.ParseMethod(string(method))
	if err != nil {
		return "", false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusIdle {
		return "", false, fmt.Errorf("%w: resume only from %s", domain.ErrInvalidTransition, domain.StatusIdle)
	}
	s.method = method
	return method, true, nil
}

// LoadSummary prices the item for the selected method. Crypto goods are
// priced with the current ETH rate, captured once here.
func (s *Session) LoadSummary(ctx context.Context) (domain.Summary, error) {
	s.mu.Lock()
	method, gen := s.method, s.gen
	if method == "" {
		s.mu.Unlock()
		return domain.Summary{}, apperr.Validation("select a payment method first")
	}
	if s.status != domain.StatusIdle && s.status != domain.StatusLoadingSources {
		st := s.status
		s.mu.Unlock()
		if st == domain.StatusProcessing {
			return domain.Summary{}, ErrBusy
		}
		return domain.Summary{}, fmt.Errorf("%w: cannot reprice in %s", domain.ErrInvalidTransition, st)
	}
	s.mu.Unlock()

	summary, err := s.price(ctx, method)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return domain.Summary{}, ErrStale
	}
	if err != nil {
		s.summary = nil
		return domain.Summary{}, err
	}
	s.summary = &summary
	if s.status == domain.StatusLoadingSources && s.sourced {
		s.status = domain.StatusAwaitingConfirmation
	}
	return summary.Clone(), nil
}

func (s *Session) price(ctx context.Context, method catalog.Method) (domain.Summary, error) {
	good, err := s.deps.Catalog.GetItem(ctx, method)
	if err != nil {
		return domain.Summary{}, err
	}

	var summary domain.Summary
	if method == catalog.MethodCrypto {
		quote, err := s.deps.Pricer.GetPrice(ctx, domain.CryptoAsset)
		if err != nil {
			return domain.Summary{}, err
		}
		summary = domain.CryptoSummary(good, quote.PriceUSD)
	} else {
		summary = domain.FiatSummary(good)
	}
	if err := summary.Validate(); err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}

// LoadInstruments fetches the holder's cards and banks concurrently. The
// session waits in loading-sources until a summary is also available.
func (s *Session) LoadInstruments(ctx context.Context, holderID string) error {
	s.mu.Lock()
	if err := s.moveLocked(domain.StatusLoadingSources); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.gen
	s.mu.Unlock()

	var (
		cards []instrument.Card
		banks []instrument.BankAccount
		g     errgroup.Group
	)
	g.Go(func() error {
		var err error
		cards, err = s.deps.Registry.ListCards(ctx, holderID)
		return err
	})
	g.Go(func() error {
		var err error
		banks, err = s.deps.Registry.ListBanks(ctx, holderID)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrStale
	}
	if err != nil {
		s.status = domain.StatusFailed
		s.failed = failSources
		s.lastErr = err
		s.deps.Logger.WarnContext(ctx, "loading payment sources failed", "holder_id", holderID, "err", err)
		return err
	}
	s.cards, s.banks, s.sourced = cards, banks, true
	if s.summary != nil {
		s.status = domain.StatusAwaitingConfirmation
	}
	return nil
}

func (s *Session) SelectInstrument(ref InstrumentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusLoadingSources && s.status != domain.StatusAwaitingConfirmation {
		return fmt.Errorf("%w: cannot select a source in %s", domain.ErrInvalidTransition, s.status)
	}
	found := false
	switch ref.Kind {
	case KindCard:
		for _, c := range s.cards {
			found = found || c.ID == ref.ID
		}
	case KindBank:
		for _, b := range s.banks {
			found = found || b.ID == ref.ID
		}
	}
	if !found {
		return apperr.NotFound("payment source not found")
	}
	s.selected = &ref
	return nil
}

// Confirm settles the summary: the purchase and reward writes run
// concurrently and both must succeed. A side that succeeded is not rolled
// back when the other fails. A second Confirm while processing is ignored
// with ErrBusy.
func (s *Session) Confirm(ctx context.Context) (domain.SettlementRecord, error) {
	s.mu.Lock()
	if s.status == domain.StatusProcessing {
		s.mu.Unlock()
		return domain.SettlementRecord{}, ErrBusy
	}
	if s.status != domain.StatusAwaitingConfirmation || s.summary == nil {
		st := s.status
		s.mu.Unlock()
		return domain.SettlementRecord{}, fmt.Errorf("%w: confirm requires %s, session is %s", domain.ErrInvalidTransition, domain.StatusAwaitingConfirmation, st)
	}
	s.status = domain.StatusProcessing
	summary := s.summary.Clone()
	gen, requestID := s.gen, s.requestID
	s.mu.Unlock()

	tokens := summary.RewardTokens()
	purchaseReq := settlement.NewPurchase{
		UserEmail:     s.user.Email,
		Item:          summary.ItemName,
		AmountPaid:    ptr(summary.ChargedAmount()),
		PaymentMethod: string(summary.Method),
		Points:        tokens,
		Status:        purchaseStatus,
		MerchantName:  summary.MerchantName,
	}
	rewardReq := settlement.NewReward{
		UserEmail: s.user.Email,
		Tokens:    &tokens,
		Source:    rewardSource,
		Note:      ptr("5% reward on " + summary.ItemName),
	}

	var (
		purchase settlement.Purchase
		reward   settlement.Reward
		g        errgroup.Group
	)
	g.Go(func() error {
		var err error
		purchase, err = s.deps.Recorder.RecordPurchase(ctx, requestID+":purchase", purchaseReq)
		if err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reward, err = s.deps.Recorder.RecordReward(ctx, requestID+":reward", rewardReq)
		if err != nil {
			return fmt.Errorf("record reward: %w", err)
		}
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return domain.SettlementRecord{}, ErrStale
	}
	if err != nil {
		s.status = domain.StatusFailed
		s.failed = failConfirm
		s.lastErr = err
		s.deps.Logger.ErrorContext(ctx, "settlement failed", "request_id", requestID, "err", err)
		return domain.SettlementRecord{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	rec := domain.SettlementRecord{
		PurchaseID:    purchase.ID,
		RewardID:      reward.ID,
		UserEmail:     s.user.Email,
		Item:          summary.ItemName,
		AmountPaid:    summary.ChargedAmount(),
		PaymentMethod: summary.Method,
		RewardTokens:  reward.Tokens,
		MerchantName:  summary.MerchantName,
		Timestamp:     purchase.CreatedAt,
	}
	s.status = domain.StatusSucceeded
	s.record = &rec
	s.lastErr = nil
	s.deps.Logger.InfoContext(ctx, "checkout settled", "purchase_id", rec.PurchaseID, "reward_id", rec.RewardID, "tokens", rec.RewardTokens)
	return rec, nil
}

// Retry re-runs a confirmation that failed. Writes reuse the session's
// idempotency keys, so a side that already succeeded is replayed rather than
// duplicated.
func (s *Session) Retry(ctx context.Context) (domain.SettlementRecord, error) {
	s.mu.Lock()
	if s.status != domain.StatusFailed || s.failed != failConfirm {
		st := s.status
		s.mu.Unlock()
		if st == domain.StatusProcessing {
			return domain.SettlementRecord{}, ErrBusy
		}
		return domain.SettlementRecord{}, fmt.Errorf("%w: only a failed confirmation can be retried", domain.ErrInvalidTransition)
	}
	if err := s.moveLocked(domain.StatusAwaitingConfirmation); err != nil {
		s.mu.Unlock()
		return domain.SettlementRecord{}, err
	}
	s.failed = failNone
	s.mu.Unlock()

	return s.Confirm(ctx)
}

// Reset discards the summary and source selection and returns to idle. The
// persisted method is kept unless clearMethod is set.
func (s *Session) Reset(ctx context.Context, clearMethod bool) error {
	s.mu.Lock()
	s.resetLocked()
	if clearMethod {
		s.method = ""
	}
	s.mu.Unlock()

	if clearMethod {
		if err := s.deps.Methods.Clear(ctx, s.sessionKey); err != nil {
			return apperr.Persistence("could not clear payment method", err)
		}
	}
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:    s.status,
		Method:    s.method,
		Cards:     append([]instrument.Card(nil), s.cards...),
		Banks:     append([]instrument.BankAccount(nil), s.banks...),
		LastError: s.lastErr,
		RequestID: s.requestID,
	}
	if s.summary != nil {
		c := s.summary.Clone()
		snap.Summary = &c
	}
	if s.selected != nil {
		ref := *s.selected
		snap.Selected = &ref
	}
	if s.record != nil {
		rec := *s.record
		snap.Record = &rec
	}
	return snap
}

func (s *Session) moveLocked(to domain.Status) error {
	if s.status == domain.StatusProcessing && to != domain.StatusIdle {
		return ErrBusy
	}
	if !domain.CanTransition(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.status, to)
	}
	s.status = to
	return nil
}

// resetLocked starts a new attempt. In-flight calls from the previous one
// see a different generation and discard their results.
func (s *Session) resetLocked() {
	s.gen++
	s.status = domain.StatusIdle
	s.summary = nil
	s.cards, s.banks, s.sourced = nil, nil, false
	s.selected = nil
	s.record = nil
	s.lastErr = nil
	s.failed = failNone
	s.requestID = uuid.NewString()
}

func ptr[T any](v T) *T { return &v }
