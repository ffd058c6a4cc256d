package market

import "time"

// Bar is one OHLCV record for a fixed interval, stamped with the bar's open time.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Bars is a chronologically ordered bar sequence for a single symbol.
type Bars []Bar

// First returns the first bar, or false on an empty sequence.
func (bs Bars) First() (Bar, bool) {
	if len(bs) == 0 {
		return Bar{}, false
	}
	return bs[0], true
}

// Last returns the last bar, or false on an empty sequence.
func (bs Bars) Last() (Bar, bool) {
	if len(bs) == 0 {
		return Bar{}, false
	}
	return bs[len(bs)-1], true
}

// Ordered reports whether timestamps never decrease. When they do, the index
// of the first offending bar is returned.
func (bs Bars) Ordered() (int, bool) {
	for i := 1; i < len(bs); i++ {
		if bs[i].Time.Before(bs[i-1].Time) {
			return i, false
		}
	}
	return -1, true
}
