package domain

import (
	"strings"
	"time"
)

const DefaultPurchaseStatus = "Completed"

type Purchase struct {
	ID            string    `json:"id"`
	UserEmail     string    `json:"user_email"`
	Item          string    `json:"item"`
	AmountPaid    float64   `json:"amount_paid"`
	PaymentMethod string    `json:"payment_method"`
	Points        int64     `json:"points"`
	Status        string    `json:"status"`
	MerchantName  string    `json:"merchant_name"`
	CreatedAt     time.Time `json:"created_at"`
}

type Reward struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Tokens    int64     `json:"tokens"`
	Source    string    `json:"source"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPurchase is the create request. AmountPaid must be present but may be zero.
type NewPurchase struct {
	UserEmail     string   `json:"user_email"`
	Item          string   `json:"item"`
	AmountPaid    *float64 `json:"amount_paid"`
	PaymentMethod string   `json:"payment_method"`
	Points        int64    `json:"points"`
	Status        string   `json:"status"`
	MerchantName  string   `json:"merchant_name"`
}

func (p NewPurchase) Complete() bool {
	return p.AmountPaid != nil && present(p.UserEmail, p.Item, p.PaymentMethod, p.MerchantName)
}

type NewReward struct {
	UserEmail string  `json:"user_email"`
	Tokens    *int64  `json:"tokens"`
	Source    string  `json:"source"`
	Note      *string `json:"note,omitempty"`
}

func (r NewReward) Complete() bool {
	return r.Tokens != nil && present(r.UserEmail, r.Source)
}

// History is a user's settlement records, most recent first.
type History struct {
	Purchases []Purchase
	Rewards   []Reward
}

func present(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}
