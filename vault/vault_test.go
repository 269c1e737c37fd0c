package vault

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func drain(t *testing.T, p Process, days int) []decimal.Decimal {
	t.Helper()
	out := make([]decimal.Decimal, days)
	for i := range out {
		r, err := p.Next(i)
		require.NoError(t, err)
		out[i] = r
	}
	return out
}

func TestConstant(t *testing.T) {
	rates := drain(t, Constant{APR: d("0.05")}, 3)
	for _, r := range rates {
		assert.True(t, r.Equal(d("0.05")))
	}
}

func TestUniformStaysInRange(t *testing.T) {
	u := NewUniform(d("0.01"), d("0.03"), rand.New(rand.NewSource(1)))
	for _, r := range drain(t, u, 200) {
		assert.True(t, r.GreaterThanOrEqual(d("0.01")), r.String())
		assert.True(t, r.LessThan(d("0.03")), r.String())
	}
}

func TestJump(t *testing.T) {
	t.Run("day zero is the start value", func(t *testing.T) {
		j := NewJump(d("0.05"), 1, 1, d("0.01"), d("0"), d("0.1"), rand.New(rand.NewSource(1)))
		r, err := j.Next(0)
		require.NoError(t, err)
		assert.True(t, r.Equal(d("0.05")))
	})

	t.Run("always up is clamped at max", func(t *testing.T) {
		j := NewJump(d("0.05"), 1, 1, d("0.01"), d("0"), d("0.08"), rand.New(rand.NewSource(1)))
		rates := drain(t, j, 6)
		assert.Equal(t, "0.05", rates[0].String())
		assert.Equal(t, "0.06", rates[1].String())
		assert.Equal(t, "0.08", rates[3].String())
		assert.Equal(t, "0.08", rates[5].String())
	})

	t.Run("always down is clamped at min", func(t *testing.T) {
		j := NewJump(d("0.02"), 1, 0, d("0.01"), d("0"), d("0.1"), rand.New(rand.NewSource(1)))
		rates := drain(t, j, 5)
		assert.True(t, rates[4].IsZero())
	})

	t.Run("never jumps", func(t *testing.T) {
		j := NewJump(d("0.05"), 0, 0.5, d("0.01"), d("0"), d("0.1"), rand.New(rand.NewSource(1)))
		for _, r := range drain(t, j, 10) {
			assert.True(t, r.Equal(d("0.05")))
		}
	})

	t.Run("same seed same path", func(t *testing.T) {
		a := drain(t, NewJump(d("0.05"), 0.5, 0.5, d("0.01"), d("0"), d("0.1"), rand.New(rand.NewSource(9))), 50)
		b := drain(t, NewJump(d("0.05"), 0.5, 0.5, d("0.01"), d("0"), d("0.1"), rand.New(rand.NewSource(9))), 50)
		assert.Equal(t, a, b)
	})
}

func TestSeries(t *testing.T) {
	s := Series{Rates: []decimal.Decimal{d("0.01"), d("0.02")}}
	rates := drain(t, s, 4)
	assert.Equal(t, []string{"0.01", "0.02", "0.02", "0.02"},
		[]string{rates[0].String(), rates[1].String(), rates[2].String(), rates[3].String()})

	_, err := Series{}.Next(0)
	assert.ErrorIs(t, err, market.ErrConfiguration)
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadRatesCSV(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("forward and back fill", func(t *testing.T) {
		path := writeCSV(t, "date,rate\n2023-01-04,4.0\n2023-01-02,2.5\n\n2023-01-05T12:00:00Z,5\n")
		rates, err := LoadRatesCSV(path, start, 7, true)
		require.NoError(t, err)
		want := []string{"0.025", "0.025", "0.025", "0.04", "0.05", "0.05", "0.05"}
		require.Len(t, rates, len(want))
		for i, w := range want {
			assert.True(t, rates[i].Equal(d(w)), "day %d: got %s want %s", i, rates[i], w)
		}
	})

	t.Run("fractions as given", func(t *testing.T) {
		path := writeCSV(t, "2023-01-01,0.03\n")
		rates, err := LoadRatesCSV(path, start, 2, false)
		require.NoError(t, err)
		assert.True(t, rates[1].Equal(d("0.03")))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := LoadRatesCSV(filepath.Join(t.TempDir(), "missing.csv"), start, 2, false)
		assert.ErrorIs(t, err, market.ErrConfiguration)

		_, err = LoadRatesCSV(writeCSV(t, "date,rate\n"), start, 2, false)
		assert.ErrorIs(t, err, market.ErrConfiguration)

		_, err = LoadRatesCSV(writeCSV(t, "date,rate\nsoon,0.01\n"), start, 2, false)
		assert.ErrorIs(t, err, market.ErrConfiguration)

		_, err = LoadRatesCSV(writeCSV(t, "2023-01-01,lots\n"), start, 2, false)
		assert.ErrorIs(t, err, market.ErrConfiguration)
	})
}

func TestFromConfig(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		cfg  config.VaultAPRConfig
		want any
	}{
		{"constant", config.VaultAPRConfig{Type: "constant", Value: 0.05}, Constant{}},
		{"uniform", config.VaultAPRConfig{Type: "Uniform", Min: 0.01, Max: 0.02}, &Uniform{}},
		{"jump", config.VaultAPRConfig{Type: "jump", Value: 0.05, Max: 0.1}, &Jump{}},
		{"series", config.VaultAPRConfig{Type: "series", Series: []float64{0.01}}, Series{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromConfig(tt.cfg, 10, start, rng)
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}

	path := writeCSV(t, "2023-01-01,1\n")
	p, err := FromConfig(config.VaultAPRConfig{Type: "csv", CSVPath: path, Percent: true}, 3, start, rng)
	require.NoError(t, err)
	r, err := p.Next(2)
	require.NoError(t, err)
	assert.True(t, r.Equal(d("0.01")))

	_, err = FromConfig(config.VaultAPRConfig{Type: "walk"}, 3, start, rng)
	assert.ErrorIs(t, err, market.ErrConfiguration)
}
