package backtest

import (
	"bytes"
	"testing"

	"github.com/rustyeddy/ladder/sim"
	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	t.Parallel()

	r := Report{
		InitialCapital: 20_000,
		FinalValue:     21_234.5,
		TotalReturn:    1_234.5,
		ReturnPct:      6.1725,
		Buys:           3,
		Sells:          4,
		Skipped:        sim.Skips{Trend: 2},
		Monthly: []MonthlyReturn{
			{Month: "2025-01", StartValue: 20_000, EndValue: 21_234.5, Return: 1_234.5, ReturnPct: 6.1725},
		},
		SellStats: SellStats{Sells: 4, Wins: 3, Losses: 1, WinRate: 75},
		Pending:   PendingSummary{Orders: 2, Shares: 5, AverageTarget: 103.5},
	}

	var buf bytes.Buffer
	PrintReport(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "Initial Capital:        $20,000.00")
	assert.Contains(t, out, "Final Portfolio Value:  $21,234.50")
	assert.Contains(t, out, "(+6.17%)")
	assert.Contains(t, out, "Skipped (trend):        2")
	assert.Contains(t, out, "2025-01")
	assert.Contains(t, out, "Winning Trades:          3/4 (75.0%)")
	assert.Contains(t, out, "PENDING SELL ORDERS")
}

func TestPrintReportOmitsEmptySections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintReport(&buf, Report{InitialCapital: 1})
	assert.NotContains(t, buf.String(), "TRADE STATISTICS")
	assert.NotContains(t, buf.String(), "PENDING SELL ORDERS")
}
