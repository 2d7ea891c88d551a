//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	catalogpg "github.com/dmehra2102/UniPay/internal/catalog/infrastructure/postgres"
	instrumentapp "github.com/dmehra2102/UniPay/internal/instrument/application"
	instrument "github.com/dmehra2102/UniPay/internal/instrument/domain"
	instrumentpg "github.com/dmehra2102/UniPay/internal/instrument/infrastructure/postgres"
	settlementapp "github.com/dmehra2102/UniPay/internal/settlement/application"
	settlement "github.com/dmehra2102/UniPay/internal/settlement/domain"
	settlementpg "github.com/dmehra2102/UniPay/internal/settlement/infrastructure/postgres"
	"github.com/dmehra2102/UniPay/pkg/database"
	"github.com/dmehra2102/UniPay/pkg/logging"
	"github.com/dmehra2102/UniPay/pkg/outbox"
)

var env *Env

func TestMain(m *testing.M) {
	ctx := context.Background()
	var err error
	env, err = Setup(ctx)
	if err != nil {
		panic(err)
	}
	code := m.Run()
	env.Teardown(ctx)
	os.Exit(code)
}

func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := database.OpenPostgres(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.MigratePostgres(ctx, logging.Discard(), pool))
	return pool
}

func TestPostgres_CatalogSeededOnce(t *testing.T) {
	pool := openPool(t)
	require.NoError(t, database.MigratePostgres(context.Background(), logging.Discard(), pool))

	good, err := catalogpg.NewRepository(logging.Discard(), pool).FirstByMethod(context.Background(), catalog.MethodCrypto)
	require.NoError(t, err)
	assert.Equal(t, 0.04, good.Price)

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM goods`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestPostgres_InstrumentsStoreMaskedOnly(t *testing.T) {
	pool := openPool(t)
	svc := instrumentapp.NewService(logging.Discard(), instrumentpg.NewRepository(logging.Discard(), pool))
	ctx := context.Background()

	_, err := svc.AddCard(ctx, instrument.NewCard{HolderID: "pg_holder", CardNumber: "4111111111111111", Expiry: "12/29", CVV: "123", Name: "Visa"})
	require.NoError(t, err)

	cards, err := svc.ListCards(ctx, "pg_holder")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "**** **** **** 1111", cards[0].MaskedNumber)

	var stored string
	require.NoError(t, pool.QueryRow(ctx, `SELECT masked_number FROM cards WHERE holder_id = 'pg_holder'`).Scan(&stored))
	assert.NotContains(t, stored, "4111111111111111")
}

func TestPostgres_PurchaseIsRelayedToKafka(t *testing.T) {
	pool := openPool(t)
	log := logging.Discard()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	svc := settlementapp.NewService(log, settlementpg.NewRepository(log, pool), "integration")
	amount := 100.0
	p, err := svc.RecordPurchase(ctx, settlement.NewPurchase{
		UserEmail: "relay@example.com", Item: "1-month membership", AmountPaid: &amount,
		PaymentMethod: "fiat", Points: 5, MerchantName: "Demo Merchant",
	})
	require.NoError(t, err)

	topic := "settlement.events.it"
	writer := outbox.NewKafkaWriter(env.KAddr...)
	defer writer.Close()
	relay := outbox.NewRelay(log, outbox.NewPostgresStore(log, pool), outbox.NewDispatcher(log, writer, topic), "it-relay")

	require.Eventually(t, func() bool {
		sent, err := relay.Tick(ctx)
		return err == nil && sent > 0
	}, 30*time.Second, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: env.KAddr, Topic: topic, GroupID: "it-reader", StartOffset: kafka.FirstOffset})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		if string(msg.Key) != p.ID {
			continue
		}
		var ev settlement.PurchaseRecorded
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, "relay@example.com", ev.UserEmail)
		assert.Contains(t, msg.Headers, kafka.Header{Key: outbox.EventTypeHeader, Value: []byte(settlement.EventPurchaseRecorded)})
		return
	}
}
