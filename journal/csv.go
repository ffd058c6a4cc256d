// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// TradesHeader and ValuesHeader are the CSV journal columns.
var (
	TradesHeader = []string{"time", "type", "shares", "price", "amount"}
	ValuesHeader = []string{"date", "value"}
)

// CSVJournal writes trades and, optionally, daily values to CSV files.
type CSVJournal struct {
	trades *csv.Writer
	values *csv.Writer
	tf, vf *os.File
}

// NewCSV creates tradesPath and, when valuesPath is not empty, valuesPath.
func NewCSV(tradesPath, valuesPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	j := &CSVJournal{trades: csv.NewWriter(tf), tf: tf}
	if err := j.trades.Write(TradesHeader); err != nil {
		tf.Close()
		return nil, err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		tf.Close()
		return nil, err
	}

	if valuesPath == "" {
		return j, nil
	}
	vf, err := os.Create(valuesPath)
	if err != nil {
		tf.Close()
		return nil, err
	}
	j.vf, j.values = vf, csv.NewWriter(vf)
	if err := j.values.Write(ValuesHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.Time.Format(time.DateTime),
		t.Type,
		strconv.FormatInt(t.Shares, 10),
		f(t.Price),
		f(t.Amount),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordValue(v ValueRecord) error {
	if j.values == nil {
		return nil
	}
	if err := j.values.Write([]string{v.Date, f(v.Value)}); err != nil {
		return err
	}
	j.values.Flush()
	return j.values.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	if j.values == nil {
		return nil
	}
	j.values.Flush()
	if err := j.values.Error(); err != nil {
		return err
	}
	return j.vf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
