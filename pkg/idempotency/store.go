package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"
)

const DefaultTTL = 24 * time.Hour

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

type ReservationState int

const (
	// ReservationNew means the caller owns the key and should run the request.
	ReservationNew ReservationState = iota
	// ReservationCompleted means a stored response should be replayed.
	ReservationCompleted
	// ReservationPending means another request holds the key.
	ReservationPending
)

type Reservation struct {
	State  ReservationState
	Record Record
}

type Record struct {
	Fingerprint    string              `json:"fingerprint"`
	Status         Status              `json:"status"`
	ResponseStatus int                 `json:"response_status,omitempty"`
	ResponseHeader map[string][]string `json:"response_header,omitempty"`
	ResponseBody   []byte              `json:"response_body,omitempty"`
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Store persists reservations and completed responses for request keys.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Deduper answers whether a key was already observed, marking it as seen.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

var ErrFingerprintMismatch = errors.New("idempotency: key reused for a different request")

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func resolve(record Record, fingerprint string) (Reservation, error) {
	if record.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if record.Status == StatusCompleted {
		return Reservation{State: ReservationCompleted, Record: record}, nil
	}
	return Reservation{State: ReservationPending, Record: record}, nil
}

func completed(fingerprint string, resp Response) Record {
	rec := Record{
		Fingerprint:    fingerprint,
		Status:         StatusCompleted,
		ResponseStatus: resp.Status,
		ResponseBody:   append([]byte(nil), resp.Body...),
	}
	if len(resp.Header) > 0 {
		rec.ResponseHeader = make(map[string][]string, len(resp.Header))
		for k, v := range resp.Header {
			switch http.CanonicalHeaderKey(k) {
			case "Content-Length", "Date", "Connection", "Transfer-Encoding":
				continue
			}
			rec.ResponseHeader[k] = append([]string(nil), v...)
		}
	}
	return rec
}
