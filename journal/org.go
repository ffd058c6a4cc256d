package journal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"onOff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run summary as an Org-mode heading.
func FormatRunOrg(r RunRecord) (string, error) {
	var buf bytes.Buffer
	if err := runOrgTemplate.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteRunOrg writes the rendered run to path.
func WriteRunOrg(path string, r RunRecord) error {
	s, err := FormatRunOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

const RunOrgTemplate = `* BACKTEST: Ladder {{.Symbol}} {{if .Interval}}{{.Interval}}{{else}}(interval?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    ladder
:INTERVAL:    {{.Interval}}
:SYMBOL:      {{.Symbol}}
:START_DATE:  {{.Start}}
:END_DATE:    {{.End}}
:BUY_WINDOW:  {{.BuyWindow}}
:TREND:       {{onOff .TrendFilter}}
:START_BAL:   {{printf "%.2f" .InitialCapital}}
:END_BAL:     {{printf "%.2f" .FinalValue}}
:NET_PL:      {{printf "%.2f" .TotalReturn}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:BUY_HOLD:    {{printf "%.2f" .BuyHoldReturnPct}}
:BUYS:        {{.Buys}}
:SELLS:       {{.Sells}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter          | Value |
|--------------------+-------|
| Initial capital    | {{printf "%.2f" .InitialCapital}} |
| Investment per buy | {{printf "%.2f" .InvestmentPerBuy}} |
| Price increment    | {{printf "%.2f" .PriceIncrement}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .TotalReturn}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Buy and hold:     *{{printf "%.2f" .BuyHoldReturnPct}}%*

** Skipped Buys
| Reason        | Days |
|---------------+------|
| Cash          | {{.SkippedCash}} |
| Trend filter  | {{.SkippedTrend}} |
| Min shares    | {{.SkippedShares}} |

{{- if .PendingOrders }}

** Open Rungs
- {{.PendingOrders}} orders holding {{.PendingShares}} shares
{{- end }}
`

// FormatTradeOrg renders a TradeRecord as an Org-mode block.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("*** %s %s %d @ %.2f (%s)", t.Type, t.Symbol, t.Shares, t.Price, shortID(t.TradeID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", t.Time.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":SHARES: %d\n", t.Shares))
	b.WriteString(fmt.Sprintf(":PRICE: %.2f\n", t.Price))
	b.WriteString(fmt.Sprintf(":AMOUNT: %.2f\n", t.Amount))
	if t.Type == "SELL" {
		b.WriteString(fmt.Sprintf(":BUY_PRICE: %.2f\n", t.BuyPrice))
		b.WriteString(fmt.Sprintf(":PROFIT: %.2f\n", t.Profit))
	}
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// shortID keeps the tail of an ID, which carries the trade sequence.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
