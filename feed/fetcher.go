package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/rustyeddy/ladder/market"
)

// Fetcher wraps a Source with the retrieval policy a backtest needs: pick an
// interval when none is given, clamp the start date to the interval limit,
// and fall back to daily bars when intraday retrieval fails.
type Fetcher struct {
	Source Source
	Limits Limits
	Logger *log.Logger

	// Now supplies today's date when a request has no End. Defaults to the
	// exchange clock.
	Now func() time.Time
}

// NewFetcher returns a Fetcher over src with DefaultLimits.
func NewFetcher(src Source, logger *log.Logger) *Fetcher {
	return &Fetcher{Source: src, Limits: DefaultLimits, Logger: logger}
}

func (f *Fetcher) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format, args...)
	}
}

func (f *Fetcher) today() market.Date {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return market.DateOf(now().In(market.Exchange()))
}

// Fetch serves req. An empty Interval is chosen with AutoInterval and a zero
// End means today. The returned bars are sorted by time.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if f.Source == nil {
		return Result{}, errors.New("feed: Source is required")
	}
	if req.End.IsZero() {
		req.End = f.today()
	}
	if req.Interval == "" && !req.Start.IsZero() {
		req.Interval = AutoInterval(market.DaysBetween(req.Start, req.End))
		f.logf("Interval: %s (auto)", req.Interval)
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	limits := f.Limits
	if limits == nil {
		limits = DefaultLimits
	}
	res := Result{Interval: req.Interval, End: req.End}

	if start, clamped := limits.Clamp(req.Interval, req.Start, req.End); clamped {
		limit, _ := limits.Days(req.Interval)
		f.logf("WARNING: Requested %d days, but %s data limited to %d days",
			market.DaysBetween(req.Start, req.End), req.Interval, limit)
		f.logf("   New start date: %s", start)
		req.Start = start
		res.Clamped = true
	}
	res.Start = req.Start

	f.logf("Downloading %s", req)
	bars, err := f.Source.Bars(ctx, req)
	if err != nil && req.Interval.Intraday() && ctx.Err() == nil {
		f.logf("Error downloading data: %v", err)
		f.logf("   Falling back to daily data...")
		req.Interval = market.Day1
		res.Interval = market.Day1
		res.FellBack = true
		bars, err = f.Source.Bars(ctx, req)
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", req, err)
	}
	if len(bars) == 0 {
		return Result{}, fmt.Errorf("fetch %s: %w", req, ErrDataUnavailable)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	res.Bars = bars

	first, last := bars[0], bars[len(bars)-1]
	f.logf("Downloaded %d data points", len(bars))
	f.logf("   Date range: %s to %s", first.Time.Format(time.DateTime), last.Time.Format(time.DateTime))
	return res, nil
}
