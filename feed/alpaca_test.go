package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rustyeddy/ladder/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBarsClient struct {
	symbol string
	req    marketdata.GetBarsRequest
	bars   []marketdata.Bar
	err    error
}

func (c *fakeBarsClient) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	c.symbol, c.req = symbol, req
	return c.bars, c.err
}

func TestAlpacaSourceBars(t *testing.T) {
	t.Parallel()

	ny := market.Exchange()
	client := &fakeBarsClient{bars: []marketdata.Bar{
		{Timestamp: time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC), Open: 80, High: 81, Low: 79.5, Close: 80.5, Volume: 12345},
		{Timestamp: time.Date(2025, 1, 9, 5, 0, 0, 0, time.UTC), Open: 82, High: 83, Low: 81, Close: 82.5, Volume: 1},
	}}
	src := &AlpacaSource{Client: client, Feed: marketdata.IEX}

	got, err := src.Bars(context.Background(), Request{
		Symbol:   "TQQQ",
		Start:    date(2025, 1, 6),
		End:      date(2025, 1, 9),
		Interval: market.Minute5,
	})
	require.NoError(t, err)

	assert.Equal(t, "TQQQ", client.symbol)
	assert.Equal(t, marketdata.NewTimeFrame(5, marketdata.Min), client.req.TimeFrame)
	assert.Equal(t, marketdata.Split, client.req.Adjustment)
	assert.Equal(t, marketdata.IEX, client.req.Feed)
	assert.True(t, client.req.Start.Equal(time.Date(2025, 1, 6, 0, 0, 0, 0, ny)))

	require.Len(t, got, 1, "bar at the end date is excluded")
	assert.Equal(t, 10, got[0].Time.Hour())
	assert.Equal(t, ny, got[0].Time.Location())
	assert.Equal(t, 12345.0, got[0].Volume)
}

func TestAlpacaSourceErrors(t *testing.T) {
	t.Parallel()

	req := Request{Symbol: "TQQQ", Start: date(2025, 1, 6), End: date(2025, 1, 9), Interval: market.Day1}

	boom := errors.New("forbidden")
	_, err := (&AlpacaSource{Client: &fakeBarsClient{err: boom}}).Bars(context.Background(), req)
	assert.ErrorIs(t, err, boom)

	_, err = (&AlpacaSource{}).Bars(context.Background(), req)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&AlpacaSource{Client: &fakeBarsClient{}}).Bars(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeFrame(t *testing.T) {
	t.Parallel()

	for _, iv := range market.Intervals() {
		_, err := TimeFrame(iv)
		assert.NoError(t, err, iv)
	}
	tf, err := TimeFrame(market.Day1)
	require.NoError(t, err)
	assert.Equal(t, marketdata.OneDay, tf)

	_, err = TimeFrame("7m")
	assert.Error(t, err)
}

func TestNewAlpacaSourceFromEnv(t *testing.T) {
	t.Setenv(EnvAlpacaKey, "")
	t.Setenv(EnvAlpacaSecret, "")
	_, err := NewAlpacaSourceFromEnv()
	assert.Error(t, err)

	t.Setenv(EnvAlpacaKey, "key")
	t.Setenv(EnvAlpacaSecret, "secret")
	src, err := NewAlpacaSourceFromEnv()
	require.NoError(t, err)
	assert.NotNil(t, src.Client)
}
