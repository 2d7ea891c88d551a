package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quote is a spot price for one crypto asset in USD.
type Quote struct {
	ID        int
	Symbol    string
	Name      string
	PriceUSD  float64
	Change24h float64
	IconURL   string
}

type wireQuote struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Change string `json:"change"`
	Icon   string `json:"icon"`
}

// MarshalJSON renders prices with two decimals and a signed percentage,
// e.g. {"price":"2500.00","change":"+1.80%"}.
func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireQuote{
		ID:     q.ID,
		Type:   q.Symbol,
		Name:   q.Name,
		Price:  strconv.FormatFloat(q.PriceUSD, 'f', 2, 64),
		Change: FormatChange(q.Change24h),
		Icon:   q.IconURL,
	})
}

func (q *Quote) UnmarshalJSON(b []byte) error {
	var w wireQuote
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(w.Price), 64)
	if err != nil {
		return fmt.Errorf("quote %s: bad price %q", w.Type, w.Price)
	}
	change, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(w.Change), "%"), 64)
	if err != nil {
		change = 0
	}
	*q = Quote{ID: w.ID, Symbol: w.Type, Name: w.Name, PriceUSD: price, Change24h: change, IconURL: w.Icon}
	return nil
}

func FormatChange(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}

// Find looks a symbol up case-insensitively.
func Find(quotes []Quote, symbol string) (Quote, bool) {
	for _, q := range quotes {
		if strings.EqualFold(q.Symbol, symbol) {
			return q, true
		}
	}
	return Quote{}, false
}

// FallbackQuotes is served whenever the live feed cannot answer.
func FallbackQuotes() []Quote {
	return []Quote{
		{ID: 1, Symbol: "BTC", Name: "Bitcoin", PriceUSD: 45000.00, Change24h: 2.5, IconURL: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png"},
		{ID: 2, Symbol: "ETH", Name: "Ethereum", PriceUSD: 2500.00, Change24h: 1.8, IconURL: "https://assets.coingecko.com/coins/images/279/large/ethereum.png"},
	}
}
