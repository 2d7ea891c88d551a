package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	pricing "github.com/dmehra2102/UniPay/internal/pricing/domain"
	"github.com/dmehra2102/UniPay/internal/settlement/application"
	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/httpx"
)

// Quoter supplies the market quotes shown on the dashboard.
type Quoter interface {
	List(ctx context.Context) []pricing.Quote
}

type Handler struct {
	log      *slog.Logger
	service  *application.Service
	quotes   Quoter
	replayMW func(http.Handler) http.Handler
	tracer   trace.Tracer
}

// NewHandler wires the settlement routes. replay guards the POST routes and
// may be nil.
func NewHandler(log *slog.Logger, service *application.Service, quotes Quoter, replay func(http.Handler) http.Handler) *Handler {
	if replay == nil {
		replay = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		log:      log,
		service:  service,
		quotes:   quotes,
		replayMW: replay,
		tracer:   otel.Tracer("settlement-http"),
	}
}

type dashboardResp struct {
	Cryptos         []pricing.Quote   `json:"cryptos"`
	PurchaseHistory []domain.Purchase `json:"purchaseHistory"`
	RewardHistory   []domain.Reward   `json:"rewardHistory"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.With(h.replayMW).Post("/purchases", h.createPurchase)
	r.With(h.replayMW).Post("/rewards", h.createReward)
	r.Get("/dashboard/{userEmail}", h.dashboard)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePurchase")
	defer span.End()

	var req domain.NewPurchase
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(ctx, w, h.log, apperr.Validation("invalid body"))
		return
	}
	p, err := h.service.RecordPurchase(ctx, req)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) createReward(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateReward")
	defer span.End()

	var req domain.NewReward
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(ctx, w, h.log, apperr.Validation("invalid body"))
		return
	}
	rw, err := h.service.RecordReward(ctx, req)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rw)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Dashboard")
	defer span.End()

	history, err := h.service.History(ctx, chi.URLParam(r, "userEmail"))
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dashboardResp{
		Cryptos:         h.quotes.List(ctx),
		PurchaseHistory: history.Purchases,
		RewardHistory:   history.Rewards,
	})
}
