package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricingapp "github.com/dmehra2102/UniPay/internal/pricing/application"
	"github.com/dmehra2102/UniPay/pkg/logging"
)

func TestFeedQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Contains(t, r.URL.Query().Get("ids"), "ethereum")
		_, _ = w.Write([]byte(`[
			{"symbol":"btc","name":"Bitcoin","image":"btc.png","current_price":61000.5,"price_change_percentage_24h":-1.234},
			{"symbol":"eth","name":"Ethereum","image":"eth.png","current_price":3000,"price_change_percentage_24h":null}
		]`))
	}))
	defer srv.Close()

	feed := NewFeed(logging.Discard(), srv.URL, time.Second, WithHTTPClient(srv.Client()))
	quotes, err := feed.Quotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC", quotes[0].Symbol)
	assert.Equal(t, 1, quotes[0].ID)
	assert.Equal(t, 61000.5, quotes[0].PriceUSD)
	assert.Equal(t, -1.234, quotes[0].Change24h)
	assert.Equal(t, 2, quotes[1].ID)
	assert.Zero(t, quotes[1].Change24h)
}

func TestFeedQuotes_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"nope"}`))
		},
		"missing price": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"symbol":"btc","name":"Bitcoin"}]`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewFeed(logging.Discard(), srv.URL, time.Second).Quotes(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFeedTimeoutDegradesToFallback(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	feed := NewFeed(logging.Discard(), srv.URL, 50*time.Millisecond)
	_, err := feed.Quotes(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	svc := pricingapp.NewService(logging.Discard(), feed)
	q, err := svc.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 45000.00, q.PriceUSD)
}

func TestFeedRateLimitRefusesWithoutCalling(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[{"symbol":"eth","name":"Ethereum","current_price":2600}]`))
	}))
	defer srv.Close()

	feed := NewFeed(logging.Discard(), srv.URL, time.Second, WithRateLimit(0.001))
	_, err := feed.Quotes(context.Background())
	require.NoError(t, err)
	_, err = feed.Quotes(context.Background())
	assert.ErrorIs(t, err, pricingapp.ErrRateLimited)
	assert.Equal(t, 1, calls)
}
