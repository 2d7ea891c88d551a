package database

type seedGood struct {
	name     string
	price    float64
	discount float64
	merchant string
	method   string
}

var seedGoods = []seedGood{
	{name: "1-month membership", price: 100, discount: 10, merchant: "Demo Merchant", method: "fiat"},
	{name: "1-month membership", price: 0.04, discount: 10, merchant: "Demo Merchant", method: "crypto"},
}
