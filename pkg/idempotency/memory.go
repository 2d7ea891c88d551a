package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is used when no Redis is configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	seen    map[string]time.Time
	clock   func() time.Time
}

type memoryEntry struct {
	record  Record
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		seen:    make(map[string]time.Time),
		clock:   time.Now,
	}
}

func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, ttl time.Duration) (Reservation, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[key]
	if !ok || !now.Before(entry.expires) {
		s.records[key] = memoryEntry{
			record:  Record{Fingerprint: fingerprint, Status: StatusPending},
			expires: now.Add(ttl),
		}
		return Reservation{State: ReservationNew}, nil
	}
	return resolve(entry.record, fingerprint)
}

func (s *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.records[key]; ok && entry.record.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	s.records[key] = memoryEntry{record: completed(fingerprint, resp), expires: s.clock().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return true, nil
	}
	s.seen[key] = s.clock()
	return false, nil
}
