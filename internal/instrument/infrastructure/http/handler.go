package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/UniPay/internal/instrument/application"
	"github.com/dmehra2102/UniPay/internal/instrument/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("instrument-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cards/{userId}", h.listCards)
	r.Get("/banks/{userId}", h.listBanks)
	r.Post("/cards", h.createCard)
	r.Post("/banks", h.createBank)
}

func (h *Handler) listCards(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCards")
	defer span.End()

	holderID := chi.URLParam(r, "userId")
	span.SetAttributes(attribute.String("holder_id", holderID))

	cards, err := h.service.ListCards(ctx, holderID)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cards)
}

func (h *Handler) listBanks(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListBanks")
	defer span.End()

	holderID := chi.URLParam(r, "userId")
	span.SetAttributes(attribute.String("holder_id", holderID))

	banks, err := h.service.ListBanks(ctx, holderID)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, banks)
}

func (h *Handler) createCard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateCard")
	defer span.End()

	var req domain.NewCard
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(ctx, w, h.log, apperr.Validation("invalid body"))
		return
	}

	card, err := h.service.AddCard(ctx, req)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, card)
}

func (h *Handler) createBank(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateBank")
	defer span.End()

	var req domain.NewBank
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(ctx, w, h.log, apperr.Validation("invalid body"))
		return
	}

	bank, err := h.service.AddBank(ctx, req)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, bank)
}
