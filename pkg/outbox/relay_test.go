package outbox

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/pkg/database"
	"github.com/dmehra2102/UniPay/pkg/logging"
)

type fakeProducer struct {
	writeFn func(msgs ...kafka.Message) error
	sent    []kafka.Message
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.writeFn != nil {
		if err := f.writeFn(msgs...); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(context.Background(), logging.Discard(), db))
	return db
}

func appendEvent(t *testing.T, db *sql.DB, ev Event) {
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, AppendSQL(context.Background(), tx, ev, time.Now()))
	require.NoError(t, tx.Commit())
}

func outboxStatus(t *testing.T, db *sql.DB, id int64) (string, int) {
	var status string
	var retries int
	require.NoError(t, db.QueryRow(`SELECT status, retry_count FROM outbox WHERE id = ?`, id).Scan(&status, &retries))
	return status, retries
}

func TestRelayTick_DispatchesPendingAndMarksSent(t *testing.T) {
	db := setupTestDB(t)
	appendEvent(t, db, Event{
		AggregateType: "purchase",
		AggregateID:   "purchase_1",
		Type:          "PurchaseRecorded",
		Payload:       []byte(`{"id":"purchase_1"}`),
		Headers:       map[string]string{"source": "checkout-api"},
		Traceparent:   "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
	})

	producer := &fakeProducer{}
	relay := NewRelay(logging.Discard(), NewSQLiteStore(logging.Discard(), db), NewDispatcher(logging.Discard(), producer, "settlement.events"), "test-relay")

	sent, err := relay.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	require.Equal(t, "settlement.events", msg.Topic)
	require.Equal(t, "purchase_1", string(msg.Key))
	require.Contains(t, msg.Headers, kafka.Header{Key: EventTypeHeader, Value: []byte("PurchaseRecorded")})
	require.Contains(t, msg.Headers, kafka.Header{Key: "source", Value: []byte("checkout-api")})

	status, _ := outboxStatus(t, db, 1)
	require.Equal(t, string(StatusSent), status)

	sent, err = relay.Tick(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestRelayTick_FailedDispatchReturnsEventToPending(t *testing.T) {
	db := setupTestDB(t)
	appendEvent(t, db, Event{AggregateType: "reward", AggregateID: "reward_1", Type: "RewardGranted", Payload: []byte(`{}`)})

	producer := &fakeProducer{writeFn: func(...kafka.Message) error { return errors.New("broker down") }}
	relay := NewRelay(logging.Discard(), NewSQLiteStore(logging.Discard(), db), NewDispatcher(logging.Discard(), producer, "settlement.events"), "test-relay")

	sent, err := relay.Tick(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)

	status, retries := outboxStatus(t, db, 1)
	require.Equal(t, string(StatusPending), status)
	require.Equal(t, 1, retries)
}

func TestRelayTick_GivesUpAfterMaxRetries(t *testing.T) {
	db := setupTestDB(t)
	appendEvent(t, db, Event{AggregateType: "reward", AggregateID: "reward_2", Type: "RewardGranted", Payload: []byte(`{}`)})

	producer := &fakeProducer{writeFn: func(...kafka.Message) error { return errors.New("broker down") }}
	relay := NewRelay(logging.Discard(), NewSQLiteStore(logging.Discard(), db), NewDispatcher(logging.Discard(), producer, "settlement.events"), "test-relay")

	for i := 0; i < MaxRetries; i++ {
		_, err := relay.Tick(context.Background())
		require.NoError(t, err)
	}

	status, retries := outboxStatus(t, db, 1)
	require.Equal(t, string(StatusFailed), status)
	require.Equal(t, MaxRetries, retries)
}
