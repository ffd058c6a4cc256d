package indicators

import (
	"fmt"

	"github.com/rustyeddy/ladder/market"
)

// SimpleMA is a streaming Simple Moving Average over bar closes.
// It keeps a ring of the last period closes so each update is O(1).
type SimpleMA struct {
	period int
	ring   []float64
	next   int
	count  int
	sum    float64
}

var _ Indicator = (*SimpleMA)(nil)

// NewMA creates a new Simple Moving Average indicator with the given period.
// A non-positive period is treated as 1.
func NewMA(period int) *SimpleMA {
	if period <= 0 {
		period = 1
	}
	return &SimpleMA{
		period: period,
		ring:   make([]float64, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	for i := range m.ring {
		m.ring[i] = 0
	}
	m.next = 0
	m.count = 0
	m.sum = 0
}

func (m *SimpleMA) Update(b market.Bar) {
	m.Add(b.Close)
}

// Add feeds a raw value.
func (m *SimpleMA) Add(v float64) {
	if m.count == m.period {
		m.sum -= m.ring[m.next]
	} else {
		m.count++
	}
	m.ring[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % m.period
}

func (m *SimpleMA) Ready() bool {
	return m.count >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}
