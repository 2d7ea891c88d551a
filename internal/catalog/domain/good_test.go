package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/UniPay/pkg/apperr"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("fiat")
	require.NoError(t, err)
	assert.Equal(t, MethodFiat, m)

	m, err = ParseMethod("crypto")
	require.NoError(t, err)
	assert.Equal(t, MethodCrypto, m)

	for _, bad := range []string{"", "paypal", "fiat1", "FIAT", "Fiat", " fiat", "crypto "} {
		_, err := ParseMethod(bad)
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}
}
