package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/pkg/logging"
)

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_ReplaysCompletedResponse(t *testing.T) {
	calls := 0
	h := Middleware(NewMemoryStore(), time.Hour, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"purchase_1"}`))
	}))

	first := post(h, "req-1:purchase", `{"item":"Coffee"}`)
	second := post(h, "req-1:purchase", `{"item":"Coffee"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderReplay))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestMiddleware_WithoutKeyPassesThrough(t *testing.T) {
	calls := 0
	h := Middleware(NewMemoryStore(), time.Hour, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	post(h, "", `{}`)
	post(h, "", `{}`)
	assert.Equal(t, 2, calls)
}

func TestMiddleware_RejectsReusedKeyWithDifferentBody(t *testing.T) {
	h := Middleware(NewMemoryStore(), time.Hour, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	require.Equal(t, http.StatusCreated, post(h, "k", `{"tokens":5}`).Code)
	assert.Equal(t, http.StatusConflict, post(h, "k", `{"tokens":6}`).Code)
}

func TestMiddleware_ReleasesKeyOnServerError(t *testing.T) {
	fail := true
	calls := 0
	h := Middleware(NewMemoryStore(), time.Hour, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	assert.Equal(t, http.StatusInternalServerError, post(h, "k", `{}`).Code)
	fail = false
	assert.Equal(t, http.StatusCreated, post(h, "k", `{}`).Code)
	assert.Equal(t, 2, calls)
}

func TestMemoryStore_PendingReservation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res, err := store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReservationNew, res.State)

	res, err = store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReservationPending, res.State)

	_, err = store.Reserve(ctx, "k", "other", time.Minute)
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
}

func TestMemoryStore_ExpiredReservationIsReusable(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	res, err := store.Reserve(ctx, "k", "different", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReservationNew, res.State)
}

func TestMemoryStore_Seen(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := OffsetKey("settlement.events", 0, 42)

	seen, err := store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)
}
