package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/UniPay/internal/catalog/application"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register adds the routes to an existing router so several handlers can
// share one API prefix.
func (h *Handler) Register(r chi.Router) {
	r.Get("/goods/{method}", h.getGood)
}

func (h *Handler) getGood(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetGood")
	defer span.End()

	method := chi.URLParam(r, "method")
	span.SetAttributes(attribute.String("payment_method", method))

	good, err := h.service.GetItem(ctx, method)
	if err != nil {
		httpx.WriteAppError(ctx, w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, good)
}
