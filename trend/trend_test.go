package trend

import (
	"testing"
	"time"

	"github.com/rustyeddy/ladder/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyBars(start time.Time, closes ...float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestSMAFilter(t *testing.T) {
	t.Parallel()

	ny := market.Exchange()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, ny)
	// SMA(3): day2 = 11 (close 12 above), day3 = 11 (close 10 below), day4 = 12 (close 14 above)
	f, err := NewSMAFilter(dailyBars(start, 10, 11, 12, 10, 14), 3, ny)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Len())
	assert.Equal(t, 3, f.Period())

	day := func(i int) market.Date { return market.DateOf(start.AddDate(0, 0, i)) }

	tests := []struct {
		name string
		date market.Date
		want bool
	}{
		{"no prior day", day(0), true},
		{"prior day warming up", day(2), true},
		{"prior day above", day(3), true},
		{"prior day below", day(4), false},
		{"after series uses last day", day(10), true},
		{"long before series", day(-30), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, f.IsBullish(tt.date))
		})
	}

	above, ok := f.Above(day(3))
	assert.True(t, ok)
	assert.False(t, above)

	_, ok = f.Above(day(1))
	assert.False(t, ok, "not warmed up")
}

func TestSMAFilterCollapsesDuplicateDates(t *testing.T) {
	t.Parallel()

	ny := market.Exchange()
	d0 := time.Date(2025, 2, 3, 0, 0, 0, 0, ny)
	bars := []market.Bar{
		{Time: d0.AddDate(0, 0, 1).Add(10 * time.Hour), Close: 5},
		{Time: d0, Close: 20},
		{Time: d0.AddDate(0, 0, 1).Add(15 * time.Hour), Close: 30},
	}
	f, err := NewSMAFilter(bars, 1, ny)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())

	// SMA(1) equals the close, so close > sma is never true.
	assert.False(t, f.IsBullish(market.DateOf(d0.AddDate(0, 0, 2))))
}

func TestSMAFilterValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSMAFilter(nil, 0, nil)
	assert.Error(t, err)

	f, err := NewSMAFilter(nil, DefaultPeriod, nil)
	require.NoError(t, err)
	assert.True(t, f.IsBullish(market.Date{Year: 2025, Month: 1, Day: 2}))
}

func TestDisabledAndFunc(t *testing.T) {
	t.Parallel()

	d := market.Date{Year: 2025, Month: 1, Day: 2}
	assert.True(t, Disabled{}.IsBullish(d))
	assert.False(t, Func(func(market.Date) bool { return false }).IsBullish(d))
}

func TestSMAFilterUTCMidnightBars(t *testing.T) {
	t.Parallel()

	ny := market.Exchange()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	f, err := NewSMAFilter(dailyBars(start, 10, 11, 12, 10), 3, ny)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	// wednesday 12 > SMA 11, so thursday is bullish; thursday 10 < 11
	wed := market.Date{Year: 2025, Month: 1, Day: 8}
	above, ok := f.Above(wed)
	require.True(t, ok)
	assert.True(t, above)
	assert.False(t, f.IsBullish(market.Date{Year: 2025, Month: 1, Day: 10}))
	assert.True(t, f.IsBullish(market.Date{Year: 2025, Month: 1, Day: 9}))
}
