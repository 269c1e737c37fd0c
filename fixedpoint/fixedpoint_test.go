package fixedpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var tol = d("0.000000000000001")

func TestLn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x    string
		want string
	}{
		{"one", "1", "0"},
		{"two", "2", "0.693147180559945309"},
		{"e", "2.718281828459045235", "1"},
		{"ten", "10", "2.302585092994045684"},
		{"half", "0.5", "-0.693147180559945309"},
		{"large", "500000000", "20.030118656386465847"},
		{"small", "0.000001", "-13.815510557964274104"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Ln(d(tt.x))
			require.NoError(t, err)
			assert.True(t, ApproxEqual(got, d(tt.want), tol), "ln(%s) = %s, want %s", tt.x, got, tt.want)
		})
	}
}

func TestLnDomain(t *testing.T) {
	_, err := Ln(Zero)
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Ln(d("-3"))
	assert.ErrorIs(t, err, ErrDomain)
}

func TestExp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x    string
		want string
	}{
		{"0", "1"},
		{"1", "2.718281828459045235"},
		{"-1", "0.367879441171442322"},
		{"0.5", "1.648721270700128147"},
		{"10", "22026.465794806716516958"},
		{"-50", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.x, func(t *testing.T) {
			t.Parallel()
			got, err := Exp(d(tt.x))
			require.NoError(t, err)
			want := d(tt.want)
			assert.True(t, ApproxEqual(got, want, tol), "exp(%s) = %s, want %s", tt.x, got, want)
		})
	}
}

func TestExpOverflow(t *testing.T) {
	_, err := Exp(d("1000"))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestPow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x, y string
		want string
		tol  decimal.Decimal
	}{
		{"sqrt two", "2", "0.5", "1.414213562373095049", tol},
		{"square", "3", "2", "9", tol},
		{"zero exponent", "123.45", "0", "1", tol},
		{"zero base", "0", "0.9", "0", tol},
		{"unit base", "1", "450", "1", tol},
		{"fractional", "9", "1.5", "27", tol},
		{"quarter root", "1000000000000", "0.25", "1000", d("0.000000001")},
		{"fraction base", "0.25", "0.5", "0.5", tol},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Pow(d(tt.x), d(tt.y))
			require.NoError(t, err)
			assert.True(t, ApproxEqual(got, d(tt.want), tt.tol), "pow(%s, %s) = %s, want %s", tt.x, tt.y, got, tt.want)
		})
	}
}

func TestPowInverse(t *testing.T) {
	x := d("123456789.123456789")
	y := d("0.997")

	p, err := Pow(x, y)
	require.NoError(t, err)
	back, err := Pow(p, One.DivRound(y, 40))
	require.NoError(t, err)

	assert.True(t, ApproxEqual(back, x, d("0.000001")), "round trip %s != %s", back, x)
}

func TestPowDomain(t *testing.T) {
	_, err := Pow(d("-1"), d("0.5"))
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Pow(Zero, d("-1"))
	assert.ErrorIs(t, err, ErrDomain)
}

func TestDivMulRound(t *testing.T) {
	assert.Equal(t, "0.333333333333333333", Div(One, d("3")).String())
	assert.Equal(t, "0.666666666666666667", Div(Two, d("3")).String())
	assert.Equal(t, "0.000000000000000001", Mul(d("0.000000001"), d("0.000000001")).String())
}

func TestPowOverflow(t *testing.T) {
	_, err := Pow(d("1000000000"), d("10"))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAgreesWithDecimal(t *testing.T) {
	x := d("1.05")

	got, err := Ln(x)
	require.NoError(t, err)
	want, err := x.Ln(workPrecision)
	require.NoError(t, err)
	assert.Equal(t, want.Round(Precision).String(), got.String())

	got, err = Exp(x)
	require.NoError(t, err)
	want, err = x.ExpTaylor(workPrecision)
	require.NoError(t, err)
	assert.Equal(t, want.Round(Precision).String(), got.String())

	got, err = Pow(d("500000000"), d("0.954930614433405485"))
	require.NoError(t, err)
	want, err = d("500000000").PowWithPrecision(d("0.954930614433405485"), workPrecision)
	require.NoError(t, err)
	assert.Equal(t, want.Round(Precision).String(), got.String())
}
