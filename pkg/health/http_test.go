package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/pkg/logging"
)

func TestHandler(t *testing.T) {
	ok := Handler(logging.Discard(), func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rec.Body.String())

	down := Handler(logging.Discard(), func(context.Context) error { return errors.New("database is locked") })
	rec = httptest.NewRecorder()
	down(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "locked")
}
