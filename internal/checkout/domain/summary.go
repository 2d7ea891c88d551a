package domain

import (
	"fmt"
	"math"
	"time"

	catalog "github.com/dmehra2102/UniPay/internal/catalog/domain"
	"github.com/dmehra2102/UniPay/pkg/apperr"
)

// RewardRate is the share of the charged value granted back as tokens.
const RewardRate = 0.05

// CryptoAsset is the asset crypto goods are priced in.
const CryptoAsset = "ETH"

// Summary is the priced snapshot confirmed by the user. Exactly one of
// BasePrice (fiat) and CryptoQuantity (crypto) is set; ExchangeRate
// accompanies CryptoQuantity.
type Summary struct {
	Method          catalog.Method
	ItemName        string
	BasePrice       *float64
	CryptoQuantity  *float64
	ExchangeRate    *float64
	DiscountPercent float64
	MerchantName    string
}

func FiatSummary(g catalog.Good) Summary {
	price := g.Price
	return Summary{
		Method:          catalog.MethodFiat,
		ItemName:        g.Name,
		BasePrice:       &price,
		DiscountPercent: g.Discount,
		MerchantName:    g.Merchant,
	}
}

func CryptoSummary(g catalog.Good, rate float64) Summary {
	qty := g.Price
	return Summary{
		Method:          catalog.MethodCrypto,
		ItemName:        g.Name,
		CryptoQuantity:  &qty,
		ExchangeRate:    &rate,
		DiscountPercent: g.Discount,
		MerchantName:    g.Merchant,
	}
}

func (s Summary) Validate() error {
	if s.ItemName == "" {
		return apperr.Validation("summary has no item")
	}
	if s.DiscountPercent < 0 || s.DiscountPercent > 100 {
		return apperr.Validation("discount must be between 0 and 100")
	}
	switch s.Method {
	case catalog.MethodFiat:
		if s.BasePrice == nil || s.CryptoQuantity != nil {
			return apperr.Validation("fiat summary needs a base price only")
		}
		if *s.BasePrice < 0 {
			return apperr.Validation("price must not be negative")
		}
	case catalog.MethodCrypto:
		if s.CryptoQuantity == nil || s.ExchangeRate == nil || s.BasePrice != nil {
			return apperr.Validation("crypto summary needs a quantity and an exchange rate only")
		}
		if *s.CryptoQuantity < 0 || *s.ExchangeRate < 0 {
			return apperr.Validation("price must not be negative")
		}
	default:
		return apperr.Validation("unknown payment method")
	}
	return nil
}

// ChargedAmount is what the user pays: USD for fiat, asset units for crypto.
// The discount is not subtracted.
func (s Summary) ChargedAmount() float64 {
	if s.Method == catalog.MethodCrypto {
		return deref(s.CryptoQuantity)
	}
	return deref(s.BasePrice)
}

// ValueUSD is the charged amount expressed in USD.
func (s Summary) ValueUSD() float64 {
	if s.Method == catalog.MethodCrypto {
		return deref(s.CryptoQuantity) * deref(s.ExchangeRate)
	}
	return deref(s.BasePrice)
}

// DisplayTotal is the discounted total shown next to the charged amount.
func (s Summary) DisplayTotal() float64 {
	return s.ChargedAmount() * (1 - s.DiscountPercent/100)
}

func (s Summary) RewardTokens() int64 {
	return int64(math.Floor(s.ValueUSD() * RewardRate))
}

func (s Summary) Clone() Summary {
	c := s
	c.BasePrice = clonePtr(s.BasePrice)
	c.CryptoQuantity = clonePtr(s.CryptoQuantity)
	c.ExchangeRate = clonePtr(s.ExchangeRate)
	return c
}

func (s Summary) String() string {
	if s.Method == catalog.MethodCrypto {
		return fmt.Sprintf("%s: %.4f %s ($%.2f) from %s, %.0f%% off",
			s.ItemName, s.ChargedAmount(), CryptoAsset, s.ValueUSD(), s.MerchantName, s.DiscountPercent)
	}
	return fmt.Sprintf("%s: $%.2f from %s, %.0f%% off", s.ItemName, s.ChargedAmount(), s.MerchantName, s.DiscountPercent)
}

// SettlementRecord is the outcome of a successful confirmation.
type SettlementRecord struct {
	PurchaseID    string
	RewardID      string
	UserEmail     string
	Item          string
	AmountPaid    float64
	PaymentMethod catalog.Method
	RewardTokens  int64
	MerchantName  string
	Timestamp     time.Time
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
