package backtest

import (
	"fmt"

	"github.com/rustyeddy/ladder/internal/id"
	"github.com/rustyeddy/ladder/journal"
	"github.com/rustyeddy/ladder/sim"
)

// RunRecord summarizes res for the journal.
func RunRecord(res *Result) journal.RunRecord {
	rep := res.Report
	return journal.RunRecord{
		RunID:            res.RunID,
		Created:          res.Created,
		Symbol:           res.Symbol,
		Interval:         res.Interval.String(),
		Start:            res.Start.String(),
		End:              res.End.String(),
		BuyWindow:        res.Config.BuyWindow.String(),
		TrendFilter:      res.Config.TrendFilter,
		InitialCapital:   res.Config.InitialCapital,
		InvestmentPerBuy: res.Config.InvestmentPerBuy,
		PriceIncrement:   res.Config.PriceIncrement,
		FinalValue:       rep.FinalValue,
		TotalReturn:      rep.TotalReturn,
		ReturnPct:        rep.ReturnPct,
		BuyHoldReturnPct: rep.BuyAndHold.ReturnPct,
		Buys:             rep.Buys,
		Sells:            rep.Sells,
		Wins:             rep.SellStats.Wins,
		Losses:           rep.SellStats.Losses,
		SkippedCash:      rep.Skipped.Cash,
		SkippedTrend:     rep.Skipped.Trend,
		SkippedShares:    rep.Skipped.Shares,
		PendingOrders:    rep.Pending.Orders,
		PendingShares:    rep.Pending.Shares,
	}
}

// TradeRecords numbers the trade history of res in execution order.
func TradeRecords(res *Result) []journal.TradeRecord {
	out := make([]journal.TradeRecord, 0, len(res.Portfolio.History))
	for i, t := range res.Portfolio.History {
		seq := i + 1
		rec := journal.TradeRecord{
			TradeID:  id.Trade(res.RunID, seq),
			RunID:    res.RunID,
			Seq:      seq,
			Symbol:   res.Symbol,
			Type:     string(t.Kind),
			Time:     t.Time,
			Shares:   t.Shares,
			Price:    t.Price.InexactFloat64(),
			Amount:   t.Amount.InexactFloat64(),
			BuyPrice: t.BuyPrice.InexactFloat64(),
		}
		if t.Kind == sim.Sell {
			rec.Profit = t.Profit().InexactFloat64()
		}
		out = append(out, rec)
	}
	return out
}

// ValueRecords lists the daily values of res.
func ValueRecords(res *Result) []journal.ValueRecord {
	out := make([]journal.ValueRecord, 0, len(res.Portfolio.Values))
	for _, v := range res.Portfolio.Values {
		out = append(out, journal.ValueRecord{
			RunID: res.RunID,
			Date:  v.Date.String(),
			Value: v.Value.InexactFloat64(),
		})
	}
	return out
}

// Export writes res to j. Journals that store runs get the summary too, in
// one batch when they support it.
func Export(j journal.Journal, res *Result) error {
	if res == nil {
		return fmt.Errorf("backtest: nothing to export")
	}
	trades, values := TradeRecords(res), ValueRecords(res)

	if b, ok := j.(journal.Batcher); ok {
		return b.RecordBatch(RunRecord(res), trades, values)
	}
	if rj, ok := j.(journal.RunJournal); ok {
		if err := rj.RecordRun(RunRecord(res)); err != nil {
			return err
		}
	}
	for _, t := range trades {
		if err := j.RecordTrade(t); err != nil {
			return fmt.Errorf("trade %d: %w", t.Seq, err)
		}
	}
	for _, v := range values {
		if err := j.RecordValue(v); err != nil {
			return fmt.Errorf("value %s: %w", v.Date, err)
		}
	}
	return nil
}
