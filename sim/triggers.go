package sim

import "github.com/shopspring/decimal"

// hitTarget reports whether a bar's high reaches the rung's target.
func hitTarget(o SellOrder, high decimal.Decimal) bool {
	return high.GreaterThanOrEqual(o.TargetPrice)
}
