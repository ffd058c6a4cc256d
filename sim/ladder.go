package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rungs is the number of take-profit orders placed after every buy.
const Rungs = 10

// MinShares is the smallest buy that still puts one share on every rung.
const MinShares = Rungs

// SplitShares divides total across n rungs as evenly as possible. The first
// n - total%n rungs get total/n shares and the remaining rungs one more.
func SplitShares(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	extra := int(total % int64(n))

	out := make([]int64, n)
	for i := range out {
		out[i] = base
		if i >= n-extra {
			out[i]++
		}
	}
	return out
}

// BuildLadder creates the Rungs sell orders for a buy of shares at buyPrice,
// targeted at buyPrice + i*increment for i = 1..Rungs.
func BuildLadder(shares int64, buyPrice, increment decimal.Decimal, at time.Time) []SellOrder {
	split := SplitShares(shares, Rungs)
	orders := make([]SellOrder, 0, Rungs)
	for i, n := range split {
		step := increment.Mul(decimal.NewFromInt(int64(i + 1)))
		orders = append(orders, SellOrder{
			Shares:      n,
			TargetPrice: buyPrice.Add(step),
			BuyPrice:    buyPrice,
			CreatedAt:   at,
		})
	}
	return orders
}
