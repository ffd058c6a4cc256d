package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

const insertRun = `
	INSERT INTO runs
	(run_id, created, symbol, interval, start_date, end_date, buy_window, trend_filter,
	 initial_capital, investment_per_buy, price_increment,
	 final_value, total_return, return_pct, buy_hold_return_pct,
	 buys, sells, wins, losses, skipped_cash, skipped_trend, skipped_shares,
	 pending_orders, pending_shares)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertTrade = `
	INSERT INTO trades
	(trade_id, run_id, seq, symbol, type, time, shares, price, amount, buy_price, profit)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertValue = `
	INSERT INTO daily_values (run_id, date, value) VALUES (?, ?, ?)`

func recordRun(x execer, r RunRecord) error {
	_, err := x.Exec(insertRun,
		r.RunID, r.Created, r.Symbol, r.Interval, r.Start, r.End, r.BuyWindow, r.TrendFilter,
		r.InitialCapital, r.InvestmentPerBuy, r.PriceIncrement,
		r.FinalValue, r.TotalReturn, r.ReturnPct, r.BuyHoldReturnPct,
		r.Buys, r.Sells, r.Wins, r.Losses, r.SkippedCash, r.SkippedTrend, r.SkippedShares,
		r.PendingOrders, r.PendingShares,
	)
	return err
}

func recordTrade(x execer, t TradeRecord) error {
	_, err := x.Exec(insertTrade,
		t.TradeID, t.RunID, t.Seq, t.Symbol, t.Type, t.Time,
		t.Shares, t.Price, t.Amount, t.BuyPrice, t.Profit,
	)
	return err
}

func recordValue(x execer, v ValueRecord) error {
	_, err := x.Exec(insertValue, v.RunID, v.Date, v.Value)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error     { return recordRun(j.db, r) }
func (j *SQLite) RecordTrade(t TradeRecord) error { return recordTrade(j.db, t) }
func (j *SQLite) RecordValue(v ValueRecord) error { return recordValue(j.db, v) }

// RecordBatch stores a run with its trades and values in one transaction.
func (j *SQLite) RecordBatch(run RunRecord, trades []TradeRecord, values []ValueRecord) (err error) {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err := recordRun(tx, run); err != nil {
		return fmt.Errorf("run %s: %w", run.RunID, err)
	}
	for _, t := range trades {
		if err := recordTrade(tx, t); err != nil {
			return fmt.Errorf("trade %s: %w", t.TradeID, err)
		}
	}
	for _, v := range values {
		if err := recordValue(tx, v); err != nil {
			return fmt.Errorf("value %s: %w", v.Date, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

var (
	_ RunJournal = (*SQLite)(nil)
	_ Batcher    = (*SQLite)(nil)
	_ Journal    = (*CSVJournal)(nil)
)
