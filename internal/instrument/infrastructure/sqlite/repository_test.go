package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/internal/instrument/application"
	"github.com/dmehra2102/UniPay/internal/instrument/domain"
	"github.com/dmehra2102/UniPay/pkg/database"
	"github.com/dmehra2102/UniPay/pkg/logging"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(context.Background(), logging.Discard(), db))
	return NewRepository(logging.Discard(), db)
}

func TestAddCardThenListIsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc := application.NewService(logging.Discard(), newRepo(t))

	_, err := svc.AddCard(ctx, domain.NewCard{HolderID: "user_1", CardNumber: "4000 0000 0000 0002", Expiry: "01/29", CVV: "111", Name: "Old card"})
	require.NoError(t, err)
	saved, err := svc.AddCard(ctx, domain.NewCard{HolderID: "user_1", CardNumber: "4242 4242 4242 9876", Expiry: "12/30", CVV: "123", Name: "Visa"})
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, domain.NewCard{HolderID: "user_2", CardNumber: "5555 5555 5555 4444", Expiry: "12/30", CVV: "123", Name: "Other"})
	require.NoError(t, err)

	cards, err := svc.ListCards(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, saved.ID, cards[0].ID)
	assert.Equal(t, "Visa", cards[0].DisplayName)
	assert.True(t, len(cards[0].MaskedNumber) >= 4)
	assert.Equal(t, "9876", cards[0].MaskedNumber[len(cards[0].MaskedNumber)-4:])
	assert.NotContains(t, cards[0].MaskedNumber, "4242 4242")
	assert.WithinDuration(t, saved.CreatedAt, cards[0].CreatedAt, time.Microsecond)
}

func TestListBanks(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveBank(ctx, domain.BankAccount{ID: "bank_a", HolderID: "u", BankName: "First", MaskedAccountNumber: "****1111", AccountHolderName: "Ada", CreatedAt: base}))
	require.NoError(t, repo.SaveBank(ctx, domain.BankAccount{ID: "bank_b", HolderID: "u", BankName: "Second", MaskedAccountNumber: "****2222", AccountHolderName: "Ada", CreatedAt: base.Add(time.Second)}))

	banks, err := repo.ListBanks(ctx, "u")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "bank_b", banks[0].ID)
	assert.Equal(t, base.Add(time.Second), banks[0].CreatedAt)

	none, err := repo.ListBanks(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
