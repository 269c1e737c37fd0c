// Package vault generates the daily yield rate of the vault backing the
// pool's shares.
package vault

import (
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// Process yields the vault APR for each trading day. Days are requested in
// order, once each.
type Process interface {
	Next(day int) (decimal.Decimal, error)
}

type Constant struct {
	APR decimal.Decimal
}

func (c Constant) Next(int) (decimal.Decimal, error) { return c.APR, nil }

// Uniform draws each day's rate from [Min, Max).
type Uniform struct {
	Min, Max decimal.Decimal
	rng      *rand.Rand
}

func NewUniform(min, max decimal.Decimal, rng *rand.Rand) *Uniform {
	return &Uniform{Min: min, Max: max, rng: rng}
}

func (u *Uniform) Next(int) (decimal.Decimal, error) {
	f := fixedpoint.FromFloat(u.rng.Float64())
	return u.Min.Add(fixedpoint.Mul(u.Max.Sub(u.Min), f)), nil
}

// Jump is a bounded random walk. From day 1 on, with probability
// Probability the rate moves by Size, up with probability UpProbability,
// and is clamped to [Min, Max].
type Jump struct {
	Probability   float64
	UpProbability float64
	Size          decimal.Decimal
	Min, Max      decimal.Decimal

	current decimal.Decimal
	rng     *rand.Rand
}

func NewJump(start decimal.Decimal, probability, upProbability float64, size, min, max decimal.Decimal, rng *rand.Rand) *Jump {
	return &Jump{
		Probability:   probability,
		UpProbability: upProbability,
		Size:          size,
		Min:           min,
		Max:           max,
		current:       start,
		rng:           rng,
	}
}

func (j *Jump) Next(day int) (decimal.Decimal, error) {
	if day > 0 && j.rng.Float64() < j.Probability {
		step := j.Size
		if j.rng.Float64() >= j.UpProbability {
			step = step.Neg()
		}
		j.current = j.current.Add(step)
	}
	if j.current.LessThan(j.Min) {
		j.current = j.Min
	}
	if j.current.GreaterThan(j.Max) {
		j.current = j.Max
	}
	return j.current, nil
}

// Series replays a fixed list of rates. Days past the end repeat the last
// rate.
type Series struct {
	Rates []decimal.Decimal
}

func (s Series) Next(day int) (decimal.Decimal, error) {
	if len(s.Rates) == 0 {
		return decimal.Zero, errors.Wrap(market.ErrConfiguration, "vault rate series is empty")
	}
	if day < 0 {
		return decimal.Zero, errors.Errorf("vault rate for day %d", day)
	}
	if day >= len(s.Rates) {
		return s.Rates[len(s.Rates)-1], nil
	}
	return s.Rates[day], nil
}

// FromConfig builds the configured process. Random processes draw from
// rng; csv rates are resampled over days trading days from start.
func FromConfig(cfg config.VaultAPRConfig, days int, start time.Time, rng *rand.Rand) (Process, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "constant", "":
		return Constant{APR: fixedpoint.FromFloat(cfg.Value)}, nil
	case "uniform":
		return NewUniform(fixedpoint.FromFloat(cfg.Min), fixedpoint.FromFloat(cfg.Max), rng), nil
	case "jump":
		return NewJump(
			fixedpoint.FromFloat(cfg.Value),
			cfg.JumpProbability,
			cfg.UpProbability,
			fixedpoint.FromFloat(cfg.JumpSize),
			fixedpoint.FromFloat(cfg.Min),
			fixedpoint.FromFloat(cfg.Max),
			rng,
		), nil
	case "series":
		rates := make([]decimal.Decimal, len(cfg.Series))
		for i, r := range cfg.Series {
			rates[i] = fixedpoint.FromFloat(r)
		}
		return Series{Rates: rates}, nil
	case "csv":
		rates, err := LoadRatesCSV(cfg.CSVPath, start, days, cfg.Percent)
		if err != nil {
			return nil, err
		}
		return Series{Rates: rates}, nil
	}
	return nil, errors.Wrapf(market.ErrConfiguration, "unknown vault apr type %q", cfg.Type)
}
