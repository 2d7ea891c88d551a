package idempotency

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmehra2102/UniPay/pkg/httpx"
)

const (
	HeaderKey    = "Idempotency-Key"
	HeaderReplay = "X-Idempotent-Replay"
)

// Middleware makes POST requests carrying an Idempotency-Key header safe to
// retry. Requests without the header pass straight through. Server errors
// release the key so the client may try again.
func Middleware(store Store, ttl time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := replayBody(r)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
				return
			}
			fingerprint := sha256Hex([]byte(r.Method + "|" + r.URL.Path + "|" + sha256Hex(body)))

			res, err := store.Reserve(ctx, key, fingerprint, ttl)
			switch {
			case errors.Is(err, ErrFingerprintMismatch):
				httpx.WriteError(ctx, w, httpx.NewError("conflict", "idempotency key already used for a different request", http.StatusConflict))
				return
			case err != nil:
				log.ErrorContext(ctx, "idempotency reserve failed", "key", key, "err", err)
				httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unable to process idempotency key", http.StatusInternalServerError))
				return
			}

			switch res.State {
			case ReservationCompleted:
				writeStored(w, res.Record)
				return
			case ReservationPending:
				httpx.WriteError(ctx, w, httpx.NewError("conflict", "a request with this idempotency key is in progress", http.StatusConflict))
				return
			}

			rec := newRecorder()
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				if err := store.Release(ctx, key); err != nil {
					log.WarnContext(ctx, "idempotency release failed", "key", key, "err", err)
				}
			} else {
				resp := Response{Status: rec.status, Header: rec.header, Body: rec.body.Bytes()}
				if err := store.SaveResponse(ctx, key, fingerprint, resp, ttl); err != nil {
					log.WarnContext(ctx, "idempotency save failed", "key", key, "err", err)
					_ = store.Release(ctx, key)
				}
			}
			rec.flush(w)
		})
	}
}

func replayBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func writeStored(w http.ResponseWriter, record Record) {
	for k, vs := range record.ResponseHeader {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(HeaderReplay, "true")
	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) flush(w http.ResponseWriter) {
	for k, vs := range r.header {
		w.Header()[k] = vs
	}
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(r.body.Bytes())
}
