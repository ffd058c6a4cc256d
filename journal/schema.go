// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	interval TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	buy_window TEXT NOT NULL,
	trend_filter INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	investment_per_buy REAL NOT NULL,
	price_increment REAL NOT NULL,
	final_value REAL NOT NULL,
	total_return REAL NOT NULL,
	return_pct REAL NOT NULL,
	buy_hold_return_pct REAL NOT NULL,
	buys INTEGER NOT NULL,
	sells INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	skipped_cash INTEGER NOT NULL,
	skipped_trend INTEGER NOT NULL,
	skipped_shares INTEGER NOT NULL,
	pending_orders INTEGER NOT NULL,
	pending_shares INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	type TEXT NOT NULL,
	time DATETIME NOT NULL,
	shares INTEGER NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	buy_price REAL NOT NULL,
	profit REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq);

CREATE TABLE IF NOT EXISTS daily_values (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
`
