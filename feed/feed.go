// Package feed retrieves OHLCV bars for a symbol from a pluggable source and
// applies the per-interval history limits that intraday data carries.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/ladder/market"
)

// ErrDataUnavailable is returned when no bars exist for a request.
var ErrDataUnavailable = errors.New("no data available")

// Request selects bars for Symbol over the dates [Start, End).
type Request struct {
	Symbol   string
	Start    market.Date
	End      market.Date
	Interval market.Interval
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %s..%s", r.Symbol, r.Interval, r.Start, r.End)
}

// Validate checks that the request can be served.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return errors.New("feed: symbol is required")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("feed: start and end dates are required")
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("feed: start %s must be before end %s", r.Start, r.End)
	}
	if !r.Interval.Valid() {
		return fmt.Errorf("feed: unknown interval %q", r.Interval)
	}
	return nil
}

// Range returns the request window as instants in loc.
func (r Request) Range(loc *time.Location) (from, to time.Time) {
	return r.Start.In(loc), r.End.In(loc)
}

// Source returns the bars for one request. Bars need not be sorted.
type Source interface {
	Bars(ctx context.Context, req Request) ([]market.Bar, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) ([]market.Bar, error)

func (f SourceFunc) Bars(ctx context.Context, req Request) ([]market.Bar, error) {
	return f(ctx, req)
}

// Result is what a Fetcher served: the bars plus what it had to change about
// the request to serve them.
type Result struct {
	Bars     []market.Bar
	Interval market.Interval
	Start    market.Date
	End      market.Date

	// Clamped is set when Start was moved forward to fit the interval limit.
	Clamped bool
	// FellBack is set when intraday data failed and daily bars were served.
	FellBack bool
}
