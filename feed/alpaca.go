package feed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rustyeddy/ladder/market"
)

// Environment variables read by NewAlpacaSourceFromEnv.
const (
	EnvAlpacaKey     = "APCA_API_KEY_ID"
	EnvAlpacaSecret  = "APCA_API_SECRET_KEY"
	EnvAlpacaDataURL = "APCA_API_DATA_URL"
)

// BarsClient is the part of the Alpaca market data client AlpacaSource uses.
type BarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaSource serves split-adjusted bars from the Alpaca market data API.
type AlpacaSource struct {
	Client BarsClient
	// Feed selects the data feed, e.g. marketdata.IEX. Empty uses the
	// account default.
	Feed marketdata.Feed
}

// NewAlpacaSourceFromEnv builds a source from the APCA_* environment
// variables.
func NewAlpacaSourceFromEnv() (*AlpacaSource, error) {
	key, secret := os.Getenv(EnvAlpacaKey), os.Getenv(EnvAlpacaSecret)
	if key == "" || secret == "" {
		return nil, fmt.Errorf("alpaca: %s and %s must be set", EnvAlpacaKey, EnvAlpacaSecret)
	}
	c := marketdata.NewClient(marketdata.ClientOpts{
		BaseURL:   os.Getenv(EnvAlpacaDataURL),
		APIKey:    key,
		APISecret: secret,
	})
	return &AlpacaSource{Client: c, Feed: marketdata.IEX}, nil
}

// TimeFrame maps an interval to the Alpaca bar timeframe.
func TimeFrame(iv market.Interval) (marketdata.TimeFrame, error) {
	switch iv {
	case market.Minute1:
		return marketdata.OneMin, nil
	case market.Minute2:
		return marketdata.NewTimeFrame(2, marketdata.Min), nil
	case market.Minute5:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case market.Minute15:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case market.Minute30:
		return marketdata.NewTimeFrame(30, marketdata.Min), nil
	case market.Hour1:
		return marketdata.OneHour, nil
	case market.Day1:
		return marketdata.OneDay, nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("alpaca: unsupported interval %q", iv)
}

// Bars fetches req from Alpaca. Alpaca has no context-aware call, so ctx is
// only checked before the request goes out.
func (s *AlpacaSource) Bars(ctx context.Context, req Request) ([]market.Bar, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("alpaca: client is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tf, err := TimeFrame(req.Interval)
	if err != nil {
		return nil, err
	}

	loc := market.Exchange()
	from, to := req.Range(loc)
	raw, err := s.Client.GetBars(req.Symbol, marketdata.GetBarsRequest{
		TimeFrame:  tf,
		Adjustment: marketdata.Split,
		Start:      from,
		End:        to,
		Feed:       s.Feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca %s: %w", req, err)
	}

	bars := make([]market.Bar, 0, len(raw))
	for _, b := range raw {
		t := b.Timestamp.In(loc)
		if !inRange(t, from, to) {
			continue
		}
		bars = append(bars, market.Bar{
			Time:   t,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return bars, nil
}

var _ Source = (*AlpacaSource)(nil)
var _ Source = CSVSource{}
