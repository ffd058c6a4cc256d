package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the side of an executed trade.
type Kind string

const (
	Buy  Kind = "BUY"
	Sell Kind = "SELL"
)

// Trade is an executed buy or sell. Trades are appended to the history in
// execution order and never modified.
type Trade struct {
	Kind   Kind
	Time   time.Time
	Shares int64
	Price  decimal.Decimal
	Amount decimal.Decimal // Shares * Price

	// BuyPrice is the price of the buy that opened these shares. For a BUY it
	// equals Price; for a SELL it is the originating rung's buy price.
	BuyPrice decimal.Decimal
}

// Profit is (Price - BuyPrice) * Shares for a sell and zero for a buy.
func (t Trade) Profit() decimal.Decimal {
	if t.Kind != Sell {
		return decimal.Zero
	}
	return t.Price.Sub(t.BuyPrice).Mul(decimal.NewFromInt(t.Shares))
}

// SellOrder is a pending take-profit rung. It fills in full, exactly at
// TargetPrice, on the first bar whose high reaches it.
type SellOrder struct {
	Shares      int64
	TargetPrice decimal.Decimal
	BuyPrice    decimal.Decimal
	CreatedAt   time.Time
}
