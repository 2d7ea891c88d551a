package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMatcher_PairedPurchaseIsNotReported(t *testing.T) {
	m := NewMatcher(time.Minute)
	m.ObservePurchase(domain.PurchaseRecorded{PurchaseID: "p1", UserEmail: "ada@example.com", RecordedAt: t0})
	m.ObserveReward(domain.RewardGranted{RewardID: "r1", UserEmail: "ada@example.com", GrantedAt: t0.Add(time.Second)})

	assert.Empty(t, m.Sweep(t0.Add(time.Hour)))
}

func TestMatcher_RewardBeforePurchase(t *testing.T) {
	m := NewMatcher(time.Minute)
	m.ObserveReward(domain.RewardGranted{RewardID: "r1", UserEmail: "ada@example.com", GrantedAt: t0})
	m.ObservePurchase(domain.PurchaseRecorded{PurchaseID: "p1", UserEmail: "ada@example.com", RecordedAt: t0.Add(10 * time.Millisecond)})

	assert.Empty(t, m.Sweep(t0.Add(time.Hour)))
}

func TestMatcher_ReportsPurchaseWithoutReward(t *testing.T) {
	m := NewMatcher(time.Minute)
	m.ObservePurchase(domain.PurchaseRecorded{PurchaseID: "p1", UserEmail: "ada@example.com", RecordedAt: t0})
	m.ObserveReward(domain.RewardGranted{RewardID: "r1", UserEmail: "bob@example.com", GrantedAt: t0})

	assert.Empty(t, m.Sweep(t0.Add(30*time.Second)), "window still open")

	unmatched := m.Sweep(t0.Add(2 * time.Minute))
	require.Len(t, unmatched, 1)
	assert.Equal(t, "p1", unmatched[0].PurchaseID)

	assert.Empty(t, m.Sweep(t0.Add(3*time.Minute)), "reported once")
}

func TestMatcher_RewardOutsideWindowDoesNotMatch(t *testing.T) {
	m := NewMatcher(time.Minute)
	m.ObservePurchase(domain.PurchaseRecorded{PurchaseID: "p1", UserEmail: "ada@example.com", RecordedAt: t0})
	m.ObserveReward(domain.RewardGranted{RewardID: "r1", UserEmail: "ada@example.com", GrantedAt: t0.Add(5 * time.Minute)})

	unmatched := m.Sweep(t0.Add(5 * time.Minute))
	require.Len(t, unmatched, 1)
}
