package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmehra2102/UniPay/pkg/apperr"
)

// Error represents the canonical JSON error envelope returned by the API.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
}

// Envelope is the wire form of Error.
type Envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	requestID := err.RequestID
	if requestID == "" {
		requestID = sanitize(middleware.GetReqID(ctx), 80)
	}
	WriteJSON(w, status, Envelope{
		Error:     err.Code,
		Message:   err.Message,
		Status:    status,
		RequestID: requestID,
	})
}

// WriteAppError maps an apperr kind onto a status code. Unclassified and
// persistence errors are logged with their cause and answered with a generic message.
func WriteAppError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		WriteError(ctx, w, NewError("invalid_request", apperr.Message(err, "invalid request"), http.StatusBadRequest))
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(ctx, w, NewError("not_found", apperr.Message(err, "not found"), http.StatusNotFound))
	case errors.Is(err, apperr.ErrConflict):
		WriteError(ctx, w, NewError("conflict", apperr.Message(err, "conflict"), http.StatusConflict))
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		log.ErrorContext(ctx, "upstream unavailable", "err", err)
		WriteError(ctx, w, NewError("upstream_unavailable", apperr.Message(err, "service temporarily unavailable"), http.StatusServiceUnavailable))
	case errors.Is(err, apperr.ErrPersistence):
		log.ErrorContext(ctx, "persistence failure", "err", err)
		WriteError(ctx, w, NewError("persistence_error", apperr.Message(err, "database error occurred"), http.StatusInternalServerError))
	default:
		log.ErrorContext(ctx, "unhandled error", "err", err)
		WriteError(ctx, w, NewError("internal_error", "an internal error occurred", http.StatusInternalServerError))
	}
}

// KindForStatus is the inverse of WriteAppError, used by API clients.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperr.ErrValidation
	case status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status == http.StatusConflict:
		return apperr.ErrConflict
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return apperr.ErrUpstreamUnavailable
	default:
		return apperr.ErrPersistence
	}
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}
