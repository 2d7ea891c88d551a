package domain

import "github.com/dmehra2102/UniPay/pkg/apperr"

type Method string

const (
	MethodFiat   Method = "fiat"
	MethodCrypto Method = "crypto"
)

// ParseMethod matches s exactly; other spellings are rejected.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodFiat, MethodCrypto:
		return m, nil
	}
	return "", apperr.Validation("payment method must be 'fiat' or 'crypto'")
}

// Good is the storefront item. Price is in USD for fiat goods and in
// units of the crypto asset for crypto goods.
type Good struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Discount      float64 `json:"discount"`
	Merchant      string  `json:"merchant"`
	PaymentMethod Method  `json:"payment_method"`
}
