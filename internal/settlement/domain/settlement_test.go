package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPurchaseComplete(t *testing.T) {
	zero := 0.0
	p := NewPurchase{UserEmail: "a@b.c", Item: "1-month membership", AmountPaid: &zero, PaymentMethod: "fiat", MerchantName: "Demo Merchant"}
	assert.True(t, p.Complete(), "zero amount is present")

	p.AmountPaid = nil
	assert.False(t, p.Complete())
}

func TestNewRewardComplete(t *testing.T) {
	var zero int64
	r := NewReward{UserEmail: "a@b.c", Tokens: &zero, Source: "Purchase Reward"}
	assert.True(t, r.Complete())

	r.Source = ""
	assert.False(t, r.Complete())
}
