package domain

import (
	"strings"
	"time"
	"unicode"
)

// Card is a saved payment card. Only the masked number is ever stored.
type Card struct {
	ID           string    `json:"id"`
	HolderID     string    `json:"holder_id"`
	MaskedNumber string    `json:"masked_number"`
	Expiry       string    `json:"expiry"`
	DisplayName  string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

type BankAccount struct {
	ID                  string    `json:"id"`
	HolderID            string    `json:"holder_id"`
	BankName            string    `json:"bank_name"`
	MaskedAccountNumber string    `json:"masked_account_number"`
	AccountHolderName   string    `json:"account_holder_name"`
	CreatedAt           time.Time `json:"created_at"`
}

type NewCard struct {
	HolderID   string `json:"holder_id"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Name       string `json:"name"`
}

func (c NewCard) Complete() bool {
	return present(c.HolderID, c.CardNumber, c.Expiry, c.CVV, c.Name)
}

type NewBank struct {
	HolderID          string `json:"holder_id"`
	BankName          string `json:"bank_name"`
	AccountNumber     string `json:"account_number"`
	RoutingNumber     string `json:"routing_number"`
	AccountHolderName string `json:"account_holder_name"`
}

func (b NewBank) Complete() bool {
	return present(b.HolderID, b.BankName, b.AccountNumber, b.RoutingNumber, b.AccountHolderName)
}

func present(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Last4 returns the trailing four digits of a card or account number,
// ignoring spaces and separators.
func Last4(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}

func MaskCardNumber(number string) string {
	return "**** **** **** " + Last4(number)
}

func MaskAccountNumber(number string) string {
	return "****" + Last4(number)
}
