package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmehra2102/UniPay/pkg/httpx"
)

type status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handler answers liveness probes once ping reaches the backing store.
func Handler(log *slog.Logger, ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", Message: "Store is unreachable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, status{Status: "ok", Message: "Server is running"})
	}
}
