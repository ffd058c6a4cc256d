package backtest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/ladder/market"
	"github.com/rustyeddy/ladder/sim"
)

// DefaultSweepTimes are the session half hours from the open to 15:30.
func DefaultSweepTimes() []market.Clock {
	var out []market.Clock
	for c := market.SessionOpen; !sim.ValuationClock.Before(c); c = c.Add(30 * time.Minute) {
		out = append(out, c)
	}
	return out
}

// SweepOptions tunes Sweep.
type SweepOptions struct {
	// Workers bounds concurrent runs. Zero uses GOMAXPROCS.
	Workers int
	// Observer, when set, returns the observer for one buy time. It is
	// called from worker goroutines.
	Observer func(buyTime market.Clock) sim.Observer
	Logger   *log.Logger
}

// SweepResult is one buy time's outcome.
type SweepResult struct {
	BuyTime market.Clock
	Window  sim.BuyWindow
	Report  Report
	Err     error
}

// Sweep runs base once per buy time over the same dataset, each run with its
// own engine, and returns the results best return first. Failed runs are
// kept with Err set and sort last.
func Sweep(ctx context.Context, ds *Dataset, base sim.Config, times []market.Clock, opts SweepOptions) ([]SweepResult, error) {
	if ds == nil || len(ds.Bars) == 0 {
		return nil, errors.New("backtest: sweep needs a dataset")
	}
	if len(times) == 0 {
		times = DefaultSweepTimes()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(times))

	type job struct {
		i  int
		at market.Clock
	}
	results := make([]SweepResult, len(times))
	jobCh := make(chan job)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				results[j.i] = sweepOne(ds, base, j.at, opts)
			}
		}()
	}

	var err error
send:
	for i, at := range times {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobCh <- job{i: i, at: at}:
		case <-ctx.Done():
			err = ctx.Err()
			break send
		}
	}
	close(jobCh)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	SortSweep(results)
	return results, nil
}

func sweepOne(ds *Dataset, base sim.Config, at market.Clock, opts SweepOptions) SweepResult {
	cfg := base
	cfg.Interval = ds.Interval
	cfg.BuyWindow = sim.ExactBuyWindow(at, ds.Interval)

	var obs sim.Observer
	if opts.Observer != nil {
		obs = opts.Observer(at)
	}
	sr := SweepResult{BuyTime: at, Window: cfg.BuyWindow}
	res, err := simulate(ds, cfg, nil, obs)
	if err != nil {
		sr.Err = err
		if opts.Logger != nil {
			opts.Logger.Printf("Error testing %s: %v", at, err)
		}
		return sr
	}
	sr.Report = res.Report
	if opts.Logger != nil {
		opts.Logger.Printf("%s: return $%.2f (%+.2f%%), %d buys, %d sells",
			at, res.Report.TotalReturn, res.Report.ReturnPct, res.Report.Buys, res.Report.Sells)
	}
	return sr
}

// SortSweep orders results by return % descending, errors last, ties by
// buy time.
func SortSweep(rs []SweepResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Report.ReturnPct != b.Report.ReturnPct {
			return a.Report.ReturnPct > b.Report.ReturnPct
		}
		return a.BuyTime.Before(b.BuyTime)
	})
}

// SweepSummary compares the best and worst buy times and the morning and
// afternoon averages.
type SweepSummary struct {
	Best, Worst      SweepResult
	Runs             int
	MorningRuns      int
	AfternoonRuns    int
	MorningAverage   float64
	AfternoonAverage float64
}

// Noon splits morning from afternoon buy times.
var Noon = market.Clock{Hour: 12}

// SummarizeSweep summarizes successful runs. ok is false when none succeeded.
func SummarizeSweep(rs []SweepResult) (s SweepSummary, ok bool) {
	var good []SweepResult
	for _, r := range rs {
		if r.Err == nil {
			good = append(good, r)
		}
	}
	if len(good) == 0 {
		return s, false
	}
	sorted := append([]SweepResult(nil), good...)
	SortSweep(sorted)
	s.Best, s.Worst = sorted[0], sorted[len(sorted)-1]
	s.Runs = len(sorted)

	var am, pm float64
	for _, r := range sorted {
		if r.BuyTime.Before(Noon) {
			am += r.Report.ReturnPct
			s.MorningRuns++
		} else {
			pm += r.Report.ReturnPct
			s.AfternoonRuns++
		}
	}
	if s.MorningRuns > 0 {
		s.MorningAverage = am / float64(s.MorningRuns)
	}
	if s.AfternoonRuns > 0 {
		s.AfternoonAverage = pm / float64(s.AfternoonRuns)
	}
	return s, true
}

// SweepHeader is the column layout of WriteSweepCSV.
var SweepHeader = []string{
	"buy_time", "buy_hour", "buy_minute", "final_value", "total_return", "return_pct",
	"buy_trades", "sell_trades", "skipped_cash", "skipped_market", "skipped_shares", "win_rate",
}

// WriteSweepCSV writes successful results in the given order.
func WriteSweepCSV(w io.Writer, rs []SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SweepHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range rs {
		if r.Err != nil {
			continue
		}
		rep := r.Report
		rec := []string{
			fmt.Sprintf("%02d:%02d", r.BuyTime.Hour, r.BuyTime.Minute),
			strconv.Itoa(r.BuyTime.Hour),
			strconv.Itoa(r.BuyTime.Minute),
			f(rep.FinalValue),
			f(rep.TotalReturn),
			f(rep.ReturnPct),
			strconv.Itoa(rep.Buys),
			strconv.Itoa(rep.Sells),
			strconv.Itoa(rep.Skipped.Cash),
			strconv.Itoa(rep.Skipped.Trend),
			strconv.Itoa(rep.Skipped.Shares),
			f(rep.SellStats.WinRate),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
