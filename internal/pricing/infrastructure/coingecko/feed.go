package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmehra2102/UniPay/internal/pricing/application"
	"github.com/dmehra2102/UniPay/internal/pricing/domain"
)

const DefaultURL = "https://api.coingecko.com/api/v3/coins/markets"

var defaultCoins = []string{"bitcoin", "ethereum", "binancecoin", "tether", "usd-coin", "solana"}

type Feed struct {
	log     *slog.Logger
	client  *http.Client
	url     string
	timeout time.Duration
	limiter *rate.Limiter
}

type Option func(*Feed)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Feed) { f.client = c }
}

// WithRateLimit caps outbound calls per second. Calls over the limit fail
// immediately instead of waiting.
func WithRateLimit(rps float64) Option {
	return func(f *Feed) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
	}
}

func NewFeed(log *slog.Logger, baseURL string, timeout time.Duration, opts ...Option) *Feed {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	f := &Feed{
		log:     log,
		client:  http.DefaultClient,
		url:     baseURL,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type market struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	CurrentPrice *float64 `json:"current_price"`
	Change24h    *float64 `json:"price_change_percentage_24h"`
}

func (f *Feed) Quotes(ctx context.Context) ([]domain.Quote, error) {
	if f.limiter != nil && !f.limiter.Allow() {
		return nil, application.ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(defaultCoins, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", "10")
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("coingecko: status %d", resp.StatusCode)
	}

	var markets []market
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&markets); err != nil {
		return nil, fmt.Errorf("coingecko: decode: %w", err)
	}

	quotes := make([]domain.Quote, 0, len(markets))
	for i, m := range markets {
		if m.Symbol == "" || m.CurrentPrice == nil {
			return nil, fmt.Errorf("coingecko: malformed market entry %d", i)
		}
		change := 0.0
		if m.Change24h != nil {
			change = *m.Change24h
		}
		quotes = append(quotes, domain.Quote{
			ID:        i + 1,
			Symbol:    strings.ToUpper(m.Symbol),
			Name:      m.Name,
			PriceUSD:  *m.CurrentPrice,
			Change24h: change,
			IconURL:   m.Image,
		})
	}
	f.log.DebugContext(ctx, "fetched market quotes", "count", len(quotes))
	return quotes, nil
}
