package backtest

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rule = strings.Repeat("-", 80)

// PrintReport writes r as a text report.
func PrintReport(w io.Writer, r Report) {
	p := message.NewPrinter(language.English)

	p.Fprintln(w, "FINAL RESULTS")
	p.Fprintln(w, rule)
	p.Fprintf(w, "Initial Capital:        $%.2f\n", r.InitialCapital)
	p.Fprintf(w, "Final Portfolio Value:  $%.2f\n", r.FinalValue)
	p.Fprintf(w, "Total Return:           $%.2f (%+.2f%%)\n", r.TotalReturn, r.ReturnPct)
	p.Fprintf(w, "Cash:                   $%.2f\n", r.Cash)
	p.Fprintf(w, "Shares Held:            %d\n", r.Shares)
	p.Fprintf(w, "Shares Value:           $%.2f\n", r.SharesValue)
	p.Fprintf(w, "Pending Sell Orders:    %d\n", r.Pending.Orders)
	p.Fprintln(w)

	bh := r.BuyAndHold
	p.Fprintln(w, "BUY-AND-HOLD COMPARISON")
	p.Fprintln(w, rule)
	p.Fprintf(w, "First Day Price:        $%.2f\n", bh.FirstPrice)
	p.Fprintf(w, "Last Day Price:         $%.2f\n", bh.LastPrice)
	p.Fprintf(w, "Buy-and-Hold Shares:    %.2f\n", bh.Shares)
	p.Fprintf(w, "Buy-and-Hold Value:     $%.2f\n", bh.Value)
	p.Fprintf(w, "Buy-and-Hold Return:    $%.2f (%+.2f%%)\n", bh.Return, bh.ReturnPct)
	p.Fprintf(w, "Strategy vs Buy-Hold:   $%.2f (%+.2f%% difference)\n", r.ExcessReturn, r.ExcessReturnPct)
	p.Fprintln(w)

	p.Fprintf(w, "Total Buy Trades:       %d\n", r.Buys)
	p.Fprintf(w, "Skipped (no cash):      %d\n", r.Skipped.Cash)
	p.Fprintf(w, "Skipped (trend):        %d\n", r.Skipped.Trend)
	p.Fprintf(w, "Skipped (min shares):   %d\n", r.Skipped.Shares)
	p.Fprintf(w, "Total Sell Trades:      %d\n", r.Sells)
	p.Fprintln(w)

	p.Fprintln(w, "MONTHLY PERFORMANCE")
	p.Fprintln(w, rule)
	p.Fprintf(w, "%-15s %-15s %-15s %-15s %-10s\n", "Month", "Start Value", "End Value", "Return", "Return %")
	p.Fprintln(w, rule)
	for _, m := range r.Monthly {
		p.Fprintf(w, "%-15s $%12.2f $%12.2f $%12.2f %8.2f%%\n",
			m.Month, m.StartValue, m.EndValue, m.Return, m.ReturnPct)
	}
	p.Fprintln(w, rule)
	p.Fprintln(w)

	if s := r.SellStats; s.Sells > 0 {
		p.Fprintln(w, "TRADE STATISTICS")
		p.Fprintln(w, rule)
		p.Fprintf(w, "Average Profit per Sell: $%.2f\n", s.AverageProfit)
		p.Fprintf(w, "Total Realized Profit:   $%.2f\n", s.TotalProfit)
		p.Fprintf(w, "Ladder Profit:           $%.2f\n", s.RealizedProfit)
		p.Fprintf(w, "Winning Trades:          %d/%d (%.1f%%)\n", s.Wins, s.Sells, s.WinRate)
		p.Fprintln(w)
	}

	if ps := r.Pending; ps.Orders > 0 {
		p.Fprintln(w, "PENDING SELL ORDERS")
		p.Fprintln(w, rule)
		p.Fprintf(w, "Total Pending Orders:    %d\n", ps.Orders)
		p.Fprintf(w, "Total Pending Shares:    %d\n", ps.Shares)
		p.Fprintf(w, "Average Target Price:    $%.2f\n", ps.AverageTarget)
		p.Fprintf(w, "Current Price:           $%.2f\n", r.FinalPrice)
		p.Fprintln(w)
	}
}
