package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricing "github.com/dmehra2102/UniPay/internal/pricing/domain"
	"github.com/dmehra2102/UniPay/internal/settlement/application"
	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/idempotency"
	"github.com/dmehra2102/UniPay/pkg/logging"
	"github.com/dmehra2102/UniPay/pkg/outbox"
)

type memRepo struct {
	mu        sync.Mutex
	purchases []domain.Purchase
	rewards   []domain.Reward
	events    []outbox.Event
}

func (m *memRepo) SavePurchase(_ context.Context, p domain.Purchase, ev outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases = append([]domain.Purchase{p}, m.purchases...)
	m.events = append(m.events, ev)
	return nil
}

func (m *memRepo) SaveReward(_ context.Context, r domain.Reward, ev outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards = append([]domain.Reward{r}, m.rewards...)
	m.events = append(m.events, ev)
	return nil
}

func (m *memRepo) PurchasesByEmail(_ context.Context, email string) ([]domain.Purchase, error) {
	var out []domain.Purchase
	for _, p := range m.purchases {
		if p.UserEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) RewardsByEmail(_ context.Context, email string) ([]domain.Reward, error) {
	var out []domain.Reward
	for _, r := range m.rewards {
		if r.UserEmail == email {
			out = append(out, r)
		}
	}
	return out, nil
}

type fallbackQuotes struct{}

func (fallbackQuotes) List(context.Context) []pricing.Quote { return pricing.FallbackQuotes() }

func newRouter(repo *memRepo) http.Handler {
	svc := application.NewService(logging.Discard(), repo, "checkout-api")
	mw := idempotency.Middleware(idempotency.NewMemoryStore(), time.Hour, logging.Discard())
	return NewHandler(logging.Discard(), svc, fallbackQuotes{}, mw).Routes()
}

func send(h http.Handler, method, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotency.HeaderKey, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreatePurchase_Defaults(t *testing.T) {
	repo := &memRepo{}
	rr := send(newRouter(repo), http.MethodPost, "/purchases",
		`{"user_email":"ada@example.com","item":"1-month membership","amount_paid":0,"payment_method":"crypto","merchant_name":"Demo Merchant"}`, "")

	require.Equal(t, http.StatusCreated, rr.Code)
	var p domain.Purchase
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.True(t, strings.HasPrefix(p.ID, "purchase_"))
	assert.Equal(t, "Completed", p.Status)
	assert.Zero(t, p.AmountPaid)
	require.Len(t, repo.events, 1)
	assert.Equal(t, "checkout-api", repo.events[0].Headers["source"])
}

func TestCreateReward_MissingTokensIs400(t *testing.T) {
	repo := &memRepo{}
	rr := send(newRouter(repo), http.MethodPost, "/rewards", `{"user_email":"ada@example.com","source":"Purchase Reward"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, repo.rewards)
}

func TestCreateReward_IdempotencyKeyReplaysWithoutDuplicate(t *testing.T) {
	repo := &memRepo{}
	h := newRouter(repo)
	body := `{"user_email":"ada@example.com","tokens":5,"source":"Purchase Reward"}`

	first := send(h, http.MethodPost, "/rewards", body, "session-1:reward")
	second := send(h, http.MethodPost, "/rewards", body, "session-1:reward")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(idempotency.HeaderReplay))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, repo.rewards, 1)
}

func TestDashboard(t *testing.T) {
	repo := &memRepo{}
	h := newRouter(repo)
	send(h, http.MethodPost, "/purchases", `{"user_email":"ada@example.com","item":"x","amount_paid":100,"payment_method":"fiat","merchant_name":"m"}`, "")
	send(h, http.MethodPost, "/rewards", `{"user_email":"ada@example.com","tokens":5,"source":"Purchase Reward"}`, "")

	rr := send(h, http.MethodGet, "/dashboard/ada@example.com", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Cryptos         []pricing.Quote   `json:"cryptos"`
		PurchaseHistory []domain.Purchase `json:"purchaseHistory"`
		RewardHistory   []domain.Reward   `json:"rewardHistory"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Cryptos, 2)
	assert.Len(t, body.PurchaseHistory, 1)
	assert.Len(t, body.RewardHistory, 1)

	rr = send(h, http.MethodGet, "/dashboard/nobody@example.com", "", "")
	assert.JSONEq(t, `{"cryptos":`+mustJSON(t, pricing.FallbackQuotes())+`,"purchaseHistory":[],"rewardHistory":[]}`, rr.Body.String())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
