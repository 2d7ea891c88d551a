package domain

import "time"

const (
	EventPurchaseRecorded = "PurchaseRecorded"
	EventRewardGranted    = "RewardGranted"
)

type PurchaseRecorded struct {
	PurchaseID    string    `json:"purchase_id"`
	UserEmail     string    `json:"user_email"`
	Item          string    `json:"item"`
	AmountPaid    float64   `json:"amount_paid"`
	PaymentMethod string    `json:"payment_method"`
	MerchantName  string    `json:"merchant_name"`
	RecordedAt    time.Time `json:"recorded_at"`
}

type RewardGranted struct {
	RewardID  string    `json:"reward_id"`
	UserEmail string    `json:"user_email"`
	Tokens    int64     `json:"tokens"`
	Source    string    `json:"source"`
	GrantedAt time.Time `json:"granted_at"`
}
