// Package metrics exposes engine events as Prometheus metrics:
//
//	ladder_trades_total{run,side}          executed buys and sells
//	ladder_shares_total{run,side}          shares bought and sold
//	ladder_skipped_buys_total{run,reason}  rejected buy days by reason
//	ladder_realized_profit_usd_total{run}  ladder profit from sells
//	ladder_portfolio_value_usd{run}        latest end-of-day value
//	ladder_run_return_pct{run}             final return of a finished run
//	ladder_runs_total                      finished runs
//
// run is a caller-chosen label such as the buy time of a sweep leg.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
	"github.com/shopspring/decimal"
)

// Metrics holds the collectors. All methods are safe for concurrent use.
type Metrics struct {
	trades *prometheus.CounterVec
	shares *prometheus.CounterVec
	skips  *prometheus.CounterVec
	profit *prometheus.CounterVec
	value  *prometheus.GaugeVec
	ret    *prometheus.GaugeVec
	runs   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ladder_trades_total",
				Help: "Executed trades",
			},
			[]string{"run", "side"},
		),
		shares: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ladder_shares_total",
				Help: "Shares traded",
			},
			[]string{"run", "side"},
		),
		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ladder_skipped_buys_total",
				Help: "Buy days rejected, by reason",
			},
			[]string{"run", "reason"},
		),
		profit: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ladder_realized_profit_usd_total",
				Help: "Profit realized by filled sell rungs",
			},
			[]string{"run"},
		),
		value: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ladder_portfolio_value_usd",
				Help: "Most recent end-of-day portfolio value",
			},
			[]string{"run"},
		),
		ret: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ladder_run_return_pct",
				Help: "Return of a finished run in percent",
			},
			[]string{"run"},
		),
		runs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ladder_runs_total",
				Help: "Finished backtest runs",
			},
		),
	}
	reg.MustRegister(m.trades, m.shares, m.skips, m.profit, m.value, m.ret, m.runs)
	return m
}

// Observer returns a sim.Observer that records under the run label.
func (m *Metrics) Observer(run string) sim.Observer {
	return runObserver{m: m, run: run}
}

// RunCompleted records the final return of run.
func (m *Metrics) RunCompleted(run string, returnPct float64) {
	m.ret.WithLabelValues(run).Set(returnPct)
	m.runs.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type runObserver struct {
	m   *Metrics
	run string
}

func (o runObserver) OnTrade(t sim.Trade) {
	side := "buy"
	if t.Kind == sim.Sell {
		side = "sell"
		if p := t.Profit(); p.IsPositive() {
			o.m.profit.WithLabelValues(o.run).Add(p.InexactFloat64())
		}
	}
	o.m.trades.WithLabelValues(o.run, side).Inc()
	o.m.shares.WithLabelValues(o.run, side).Add(float64(t.Shares))
}

func (o runObserver) OnSkip(_ market.Date, reason sim.RejectReason) {
	o.m.skips.WithLabelValues(o.run, reason.String()).Inc()
}

func (o runObserver) OnValue(_ market.Date, v decimal.Decimal) {
	o.m.value.WithLabelValues(o.run).Set(v.InexactFloat64())
}
