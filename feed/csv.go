package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/ladder/market"
)

// CSVHeader is the column layout CSVSource reads and WriteCSV writes.
var CSVHeader = []string{"time", "open", "high", "low", "close", "volume"}

// CSVSource serves bars from files under Dir named <SYMBOL>_<interval>.csv,
// or <SYMBOL>.csv when no interval-specific file exists. Timestamps without
// a zone are read in Location (the exchange zone by default).
type CSVSource struct {
	Dir      string
	Location *time.Location
}

func (s CSVSource) location() *time.Location {
	if s.Location == nil {
		return market.Exchange()
	}
	return s.Location
}

// Path returns the file that serves symbol at iv.
func (s CSVSource) Path(symbol string, iv market.Interval) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(symbol), iv))
}

func (s CSVSource) open(req Request) (*os.File, error) {
	f, err := os.Open(s.Path(req.Symbol, req.Interval))
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return f, err
	}
	f, err = os.Open(filepath.Join(s.Dir, strings.ToUpper(req.Symbol)+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", req, ErrDataUnavailable)
	}
	return f, err
}

// Bars reads the file for req and returns rows in [Start, End).
func (s CSVSource) Bars(ctx context.Context, req Request) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.open(req)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	loc := s.location()
	from, to := req.Range(loc)
	all, err := ReadCSV(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	out := all[:0]
	for _, b := range all {
		if inRange(b.Time, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ReadCSV parses bar rows. A header row is allowed and blank rows are
// skipped. Times may be RFC3339, "2006-01-02 15:04:05" or a bare date. An
// RFC3339 stamp at midnight in its own zone is read as that calendar day.
func ReadCSV(r io.Reader, loc *time.Location) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []market.Bar
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		b, err := parseBarRow(row, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string, loc *time.Location) (market.Bar, error) {
	if len(row) < 5 {
		return market.Bar{}, fmt.Errorf("want at least 5 columns, got %d", len(row))
	}
	t, err := parseTime(strings.TrimSpace(row[0]), loc)
	if err != nil {
		return market.Bar{}, err
	}

	var vals [5]float64
	for i := range vals {
		if i == 4 && len(row) < 6 {
			break
		}
		field := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", CSVHeader[i+1], field, err)
		}
		vals[i] = v
	}
	return market.Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return market.DailyTime(t, loc), nil
	}
	for _, layout := range []string{time.DateTime, "2006-01-02 15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// inRange reports whether t is in [from, to). Zero bounds are open.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// WriteCSV writes bars with CSVHeader, timestamps in RFC3339.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes bars to the interval-specific file for symbol under Dir.
func (s CSVSource) SaveCSV(symbol string, iv market.Interval, bars []market.Bar) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := s.Path(symbol, iv)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, bars); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
