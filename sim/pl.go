package sim

import "github.com/shopspring/decimal"

// purchasable returns how many whole shares amount buys at price, never
// costing more than amount.
func purchasable(amount, price decimal.Decimal) int64 {
	if !price.IsPositive() || !amount.IsPositive() {
		return 0
	}
	n := amount.Div(price).Floor().IntPart()
	for n > 0 && price.Mul(decimal.NewFromInt(n)).GreaterThan(amount) {
		n--
	}
	return n
}

// markToMarket values cash plus shares at price.
func markToMarket(cash decimal.Decimal, shares int64, price decimal.Decimal) decimal.Decimal {
	return cash.Add(price.Mul(decimal.NewFromInt(shares)))
}
