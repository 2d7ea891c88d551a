package http

import (
	"bytes"
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	instrument "github.com/dmehra2102/UniPay/internal/instrument/domain"
	pricing "github.com/dmehra2102/UniPay/internal/pricing/domain"
	settlement "github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
	"github.com/dmehra2102/UniPay/pkg/httpx"
	"github.com/dmehra2102/UniPay/pkg/idempotency"
	"github.com/dmehra2102/UniPay/pkg/tracing"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the UniPay REST API on behalf of a checkout session. It
// satisfies the catalog, pricing, registry and recorder ports.
type Client struct {
	log     *slog.Logger
	baseURL string
	hc      *http.Client
	tracer  trace.Tracer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// NewClient expects baseURL to include the API prefix, e.g.
// "http://localhost:3001/api".
func NewClient(log *slog.Logger, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: DefaultTimeout},
		tracer:  otel.Tracer("checkout-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetItem(ctx context.Context, method catalog.Method) (catalog.Good, error) {
	var good catalog.Good
	err := c.do(ctx, "GetItem", http.MethodGet, "/goods/"+url.PathEscape(string(method)), "", nil, &good)
	return good, err
}

// GetPrice asks the API for a quote. When the API itself cannot be reached
// the static fallback table is used, matching what the server does when its
// own feed is down.
func (c *Client) GetPrice(ctx context.Context, symbol string) (pricing.Quote, error) {
	var q pricing.Quote
	err := c.do(ctx, "GetPrice", http.MethodGet, "/cryptos/"+url.PathEscape(symbol), "", nil, &q)
	if errors.Is(err, apperr.ErrUpstreamUnavailable) {
		if fb, ok := pricing.Find(pricing.FallbackQuotes(), symbol); ok {
			c.log.WarnContext(ctx, "price api unavailable, using fallback", "symbol", symbol, "err", err)
			return fb, nil
		}
	}
	return q, err
}

func (c *Client) ListCards(ctx context.Context, holderID string) ([]instrument.Card, error) {
	var cards []instrument.Card
	err := c.do(ctx, "ListCards", http.MethodGet, "/cards/"+url.PathEscape(holderID), "", nil, &cards)
	return cards, err
}

func (c *Client) ListBanks(ctx context.Context, holderID string) ([]instrument.BankAccount, error) {
	var banks []instrument.BankAccount
	err := c.do(ctx, "ListBanks", http.MethodGet, "/banks/"+url.PathEscape(holderID), "", nil, &banks)
	return banks, err
}

func (c *Client) RecordPurchase(ctx context.Context, key string, req settlement.NewPurchase) (settlement.Purchase, error) {
	var p settlement.Purchase
	err := c.do(ctx, "RecordPurchase", http.MethodPost, "/purchases", key, req, &p)
	return p, err
}

func (c *Client) RecordReward(ctx context.Context, key string, req settlement.NewReward) (settlement.Reward, error) {
	var r settlement.Reward
	err := c.do(ctx, "RecordReward", http.MethodPost, "/rewards", key, req, &r)
	return r, err
}

func (c *Client) do(ctx context.Context, op, method, path, idemKey string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.route", path))

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set(idempotency.HeaderKey, idemKey)
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return apperr.Upstream("service unavailable", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Upstream("service unavailable", err)
	}
	if resp.StatusCode >= 300 {
		err := decodeError(resp.StatusCode, raw)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Upstream("unexpected response", fmt.Errorf("decode %s: %w", op, err))
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var env httpx.Envelope
	msg := http.StatusText(status)
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		msg = env.Message
	}
	return &apperr.Error{Kind: httpx.KindForStatus(status), Message: msg}
}
