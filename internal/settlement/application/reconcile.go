package application

import (
	"sync"
	"time"

	"github.com/dmehra2102/UniPay/internal/settlement/domain"
)

// Matcher pairs PurchaseRecorded with RewardGranted events for the same user
// inside a time window. Purchase and reward are written independently, so a
// purchase left without a reward is the inconsistency Sweep reports.
type Matcher struct {
	mu        sync.Mutex
	window    time.Duration
	purchases map[string][]domain.PurchaseRecorded
	rewards   map[string][]domain.RewardGranted
}

func NewMatcher(window time.Duration) *Matcher {
	return &Matcher{
		window:    window,
		purchases: make(map[string][]domain.PurchaseRecorded),
		rewards:   make(map[string][]domain.RewardGranted),
	}
}

func (m *Matcher) ObservePurchase(p domain.PurchaseRecorded) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.rewardFor(p); i >= 0 {
		m.rewards[p.UserEmail] = remove(m.rewards[p.UserEmail], i)
		return
	}
	m.purchases[p.UserEmail] = append(m.purchases[p.UserEmail], p)
}

func (m *Matcher) ObserveReward(r domain.RewardGranted) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.purchases[r.UserEmail] {
		if within(p.RecordedAt, r.GrantedAt, m.window) {
			m.purchases[r.UserEmail] = remove(m.purchases[r.UserEmail], i)
			return
		}
	}
	m.rewards[r.UserEmail] = append(m.rewards[r.UserEmail], r)
}

// Sweep returns purchases whose window closed before now without a reward and
// forgets rewards that can no longer match.
func (m *Matcher) Sweep(now time.Time) []domain.PurchaseRecorded {
	m.mu.Lock()
	defer m.mu.Unlock()

	var unmatched []domain.PurchaseRecorded
	for email, ps := range m.purchases {
		kept := ps[:0]
		for _, p := range ps {
			if now.Sub(p.RecordedAt) > m.window {
				unmatched = append(unmatched, p)
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(m.purchases, email)
		} else {
			m.purchases[email] = kept
		}
	}
	for email, rs := range m.rewards {
		kept := rs[:0]
		for _, r := range rs {
			if now.Sub(r.GrantedAt) <= m.window {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(m.rewards, email)
		} else {
			m.rewards[email] = kept
		}
	}
	return unmatched
}

func (m *Matcher) rewardFor(p domain.PurchaseRecorded) int {
	for i, r := range m.rewards[p.UserEmail] {
		if within(p.RecordedAt, r.GrantedAt, m.window) {
			return i
		}
	}
	return -1
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

func remove[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
