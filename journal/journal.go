// journal/journal.go
package journal

import "time"

// TradeRecord is one executed BUY or SELL of a run.
type TradeRecord struct {
	TradeID  string
	RunID    string
	Seq      int
	Symbol   string
	Type     string // BUY or SELL
	Time     time.Time
	Shares   int64
	Price    float64
	Amount   float64
	BuyPrice float64
	Profit   float64 // zero for buys
}

// ValueRecord is the end-of-day portfolio value for one date (YYYY-MM-DD).
type ValueRecord struct {
	RunID string
	Date  string
	Value float64
}

// RunRecord mirrors the runs table: the parameters and headline results of
// one backtest.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Symbol   string
	Interval string
	Start    string
	End      string

	BuyWindow        string
	TrendFilter      bool
	InitialCapital   float64
	InvestmentPerBuy float64
	PriceIncrement   float64

	FinalValue       float64
	TotalReturn      float64
	ReturnPct        float64
	BuyHoldReturnPct float64

	Buys          int
	Sells         int
	Wins          int
	Losses        int
	SkippedCash   int
	SkippedTrend  int
	SkippedShares int
	PendingOrders int
	PendingShares int64
}

// Journal receives the records of a finished run.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordValue(ValueRecord) error
	Close() error
}

// RunJournal also stores run summaries.
type RunJournal interface {
	Journal
	RecordRun(RunRecord) error
}

// Batcher writes a whole run at once.
type Batcher interface {
	RecordBatch(run RunRecord, trades []TradeRecord, values []ValueRecord) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordValue(ValueRecord) error { return nil }
func (Nop) Close() error                  { return nil }
