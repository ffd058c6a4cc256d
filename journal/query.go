package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a run or trade does not exist.
var ErrNotFound = errors.New("not found")

const runColumns = `run_id, created, symbol, interval, start_date, end_date, buy_window, trend_filter,
	initial_capital, investment_per_buy, price_increment,
	final_value, total_return, return_pct, buy_hold_return_pct,
	buys, sells, wins, losses, skipped_cash, skipped_trend, skipped_shares,
	pending_orders, pending_shares`

const tradeColumns = `trade_id, run_id, seq, symbol, type, time, shares, price, amount, buy_price, profit`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	err := s.Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Interval, &r.Start, &r.End, &r.BuyWindow, &r.TrendFilter,
		&r.InitialCapital, &r.InvestmentPerBuy, &r.PriceIncrement,
		&r.FinalValue, &r.TotalReturn, &r.ReturnPct, &r.BuyHoldReturnPct,
		&r.Buys, &r.Sells, &r.Wins, &r.Losses, &r.SkippedCash, &r.SkippedTrend, &r.SkippedShares,
		&r.PendingOrders, &r.PendingShares,
	)
	return r, err
}

func scanTrade(s scanner) (TradeRecord, error) {
	var t TradeRecord
	err := s.Scan(
		&t.TradeID, &t.RunID, &t.Seq, &t.Symbol, &t.Type, &t.Time,
		&t.Shares, &t.Price, &t.Amount, &t.BuyPrice, &t.Profit,
	)
	return t, err
}

// GetRun returns one run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return r, err
}

// ListRuns returns runs newest first, at most limit when limit > 0.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	}
	return t, err
}

// ListTrades returns the trades of a run in execution order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListValues returns the daily values of a run by date.
func (j *SQLite) ListValues(ctx context.Context, runID string) ([]ValueRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, date, value FROM daily_values WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValueRecord
	for rows.Next() {
		var v ValueRecord
		if err := rows.Scan(&v.RunID, &v.Date, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ExportRunOrg loads a run and its trades and renders them as Org.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string, withTrades bool) (string, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	out, err := FormatRunOrg(r)
	if err != nil || !withTrades {
		return out, err
	}
	trades, err := j.ListTrades(ctx, runID)
	if err != nil {
		return "", err
	}
	if len(trades) > 0 {
		out += "\n** Trades\n" + FormatTradesOrg(trades)
	}
	return out, nil
}
