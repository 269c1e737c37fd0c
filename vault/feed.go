package vault

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// Observation is one historical rate.
type Observation struct {
	Time time.Time
	Rate decimal.Decimal
}

// CSVRatesFeed reads rate CSV rows:
//
//	date,rate
//
// where date is 2006-01-02, RFC3339 or RFC3339Nano.
//
// A header row ("date,...") is allowed.
// Empty/short rows are skipped.
type CSVRatesFeed struct {
	f *os.File
	r *csv.Reader

	sawFirst bool
}

func NewCSVRatesFeed(path string) (*CSVRatesFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVRatesFeed{f: f, r: r}, nil
}

func (f *CSVRatesFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVRatesFeed) Next() (Observation, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Observation{}, false, nil
		}
		if err != nil {
			return Observation{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		o, ok, err := parseRateRow(row)
		if err != nil {
			return Observation{}, false, err
		}
		if !ok {
			continue
		}
		return o, true, nil
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

func parseRateRow(row []string) (Observation, bool, error) {
	if len(row) < 2 {
		return Observation{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Observation{}, false, nil
	}
	var (
		t   time.Time
		err error
	)
	for _, layout := range dateLayouts {
		if t, err = time.Parse(layout, ts); err == nil {
			break
		}
	}
	if err != nil {
		return Observation{}, false, fmt.Errorf("bad date %q: %w", ts, err)
	}

	raw := strings.TrimSpace(row[1])
	if raw == "" {
		return Observation{}, false, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return Observation{}, false, fmt.Errorf("bad rate %q: %w", row[1], err)
	}

	return Observation{Time: t.UTC(), Rate: rate}, true, nil
}

// LoadRatesCSV reads a rate history and resamples it to one rate per
// trading day starting at start. Each day takes the latest observation on
// or before it; days before the first observation take the first one.
// percent divides every rate by 100.
func LoadRatesCSV(path string, start time.Time, days int, percent bool) ([]decimal.Decimal, error) {
	feed, err := NewCSVRatesFeed(path)
	if err != nil {
		return nil, errors.Wrapf(market.ErrConfiguration, "open rates: %v", err)
	}
	defer feed.Close()

	var obs []Observation
	for {
		o, ok, err := feed.Next()
		if err != nil {
			return nil, errors.Wrapf(market.ErrConfiguration, "read rates %s: %v", path, err)
		}
		if !ok {
			break
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, errors.Wrapf(market.ErrConfiguration, "rates %s has no observations", path)
	}
	return Resample(obs, start, days, percent), nil
}

// Resample forward-fills obs onto days consecutive days from start.
func Resample(obs []Observation, start time.Time, days int, percent bool) []decimal.Decimal {
	sorted := append([]Observation(nil), obs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	hundred := decimal.NewFromInt(100)
	day0 := start.UTC().Truncate(24 * time.Hour)

	out := make([]decimal.Decimal, 0, days)
	next := 0
	current := sorted[0].Rate
	for i := 0; i < days; i++ {
		end := day0.AddDate(0, 0, i+1)
		for next < len(sorted) && sorted[next].Time.Before(end) {
			current = sorted[next].Rate
			next++
		}
		rate := current
		if percent {
			rate = fixedpoint.Div(rate, hundred)
		}
		out = append(out, rate)
	}
	return out
}
