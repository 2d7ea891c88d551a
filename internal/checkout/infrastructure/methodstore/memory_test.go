package methodstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, ok, err := store.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "tab-1", catalog.MethodCrypto))
	m, ok, err := store.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.MethodCrypto, m)

	_, ok, _ = store.Load(ctx, "tab-2")
	assert.False(t, ok, "scoped to the session")

	require.NoError(t, store.Clear(ctx, "tab-1"))
	_, ok, _ = store.Load(ctx, "tab-1")
	assert.False(t, ok)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "checkout:tab-1:method_1", Key("tab-1"))
}
