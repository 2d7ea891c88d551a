package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/UniPay/internal/pricing/application"
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
		tracer:  otel.Tracer("pricing-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/cryptos", h.listCryptos)
	r.Get("/cryptos/{type}", h.getCrypto)
}

func (h *Handler) listCryptos(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCryptos")
	defer span.End()

	httpx.WriteJSON(w, http.StatusOK, h.service.List(ctx))
}

func (h *Handler) getCrypto(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCrypto")
	defer span.End()

	symbol := chi.URLParam(r, "type")
	span.SetAttributes(attribute.String("crypto_type", symbol))

	q, err := h.service.GetPrice(ctx, symbol)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, q)
}
