package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/feed"
	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/metrics"
	"github.com/rustyeddy/ladder/sim"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare buy times across the trading session",
	Long: `Sweep fetches the data once and runs an independent backtest for each
buy time, from 09:30 to 15:30 every 30 minutes unless --times is given.
Results are ranked by return and written to CSV.

With --metrics-addr the per-run counters are served at /metrics until the
command is interrupted.

Examples:
  ladder sweep --symbol TQQQ --start 2024-01-01 --interval 1h
  ladder sweep --times 09:30,10:00,15:30 --out sweep.csv
  ladder sweep --metrics-addr :9102`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	swFlags       runFlags
	swTimes       []string
	swWorkers     int
	swOut         string
	swMetricsAddr string
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	swFlags.register(sweepCmd)
	sweepCmd.Flags().StringSliceVar(&swTimes, "times", nil, "buy times HH:MM (default every 30 minutes 09:30-15:30)")
	sweepCmd.Flags().IntVarP(&swWorkers, "workers", "w", 0, "concurrent runs (default GOMAXPROCS)")
	sweepCmd.Flags().StringVarP(&swOut, "out", "o", "buy_time_optimization.csv", "results CSV path, empty to skip")
	sweepCmd.Flags().StringVar(&swMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func parseTimes(ss []string) ([]market.Clock, error) {
	var out []market.Clock
	for _, s := range ss {
		c, err := market.ParseClock(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &swFlags)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	times, err := parseTimes(swTimes)
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("data source: %w", err)
	}

	logger := progressLog(cmd)
	runner := &backtest.Runner{Fetcher: feed.NewFetcher(src, logger), Logger: logger}
	ds, err := runner.Prepare(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if ds.Interval.Daily() {
		logger.Printf("Daily bars only buy at the open; every buy time gives the same result")
	}

	opts := backtest.SweepOptions{Workers: swWorkers, Logger: logger}
	var m *metrics.Metrics
	var srv *http.Server
	if swMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		opts.Observer = func(at market.Clock) sim.Observer { return m.Observer(at.String()) }
		srv = &http.Server{Addr: swMetricsAddr, Handler: metricsMux(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
		logger.Printf("Serving metrics on %s/metrics", swMetricsAddr)
	}

	if len(times) == 0 {
		times = backtest.DefaultSweepTimes()
	}
	logger.Printf("Testing %d buy times on %s %s bars", len(times), ds.Symbol, ds.Interval)
	results, err := backtest.Sweep(cmd.Context(), ds, backtest.EngineConfig(params, ds), times, opts)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if m != nil {
		for _, r := range results {
			if r.Err == nil {
				m.RunCompleted(r.BuyTime.String(), r.Report.ReturnPct)
			}
		}
	}

	out := cmd.OutOrStdout()
	printSweep(out, results)

	if swOut != "" {
		if err := writeSweepFile(swOut, results); err != nil {
			return err
		}
		logger.Printf("Results saved to %s", swOut)
	}

	if srv != nil {
		logger.Printf("Sweep done; metrics stay up on %s until interrupted", swMetricsAddr)
		<-cmd.Context().Done()
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}

func writeSweepFile(path string, rs []backtest.SweepResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := backtest.WriteSweepCSV(f, rs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printSweep(w io.Writer, rs []backtest.SweepResult) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BUY TIME OPTIMIZATION RESULTS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-6s %-16s %14s %10s %6s %6s %6s\n", "Rank", "Buy Window", "Final Value", "Return", "Buys", "Sells", "Skips")
	for i, r := range rs {
		if r.Err != nil {
			fmt.Fprintf(w, "%-6s %-16s error: %v\n", "-", r.Window, r.Err)
			continue
		}
		rep := r.Report
		fmt.Fprintf(w, "%-6d %-16s %14.2f %+9.2f%% %6d %6d %6d\n",
			i+1, r.Window, rep.FinalValue, rep.ReturnPct, rep.Buys, rep.Sells, rep.Skipped.Total())
	}

	s, ok := backtest.SummarizeSweep(rs)
	if !ok {
		fmt.Fprintln(w, "\nNo buy time produced a result.")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Best buy time:  %s (%+.2f%%)\n", s.Best.BuyTime, s.Best.Report.ReturnPct)
	fmt.Fprintf(w, "Worst buy time: %s (%+.2f%%)\n", s.Worst.BuyTime, s.Worst.Report.ReturnPct)
	fmt.Fprintf(w, "Difference:     %.2f%%\n", s.Best.Report.ReturnPct-s.Worst.Report.ReturnPct)
	if s.MorningRuns > 0 {
		fmt.Fprintf(w, "Morning average (before %s):  %+.2f%% over %d times\n", backtest.Noon, s.MorningAverage, s.MorningRuns)
	}
	if s.AfternoonRuns > 0 {
		fmt.Fprintf(w, "Afternoon average (from %s):  %+.2f%% over %d times\n", backtest.Noon, s.AfternoonAverage, s.AfternoonRuns)
	}
}
