// Package fixedpoint provides the decimal arithmetic used by the pricing
// models. Every value is a shopspring decimal rounded to Precision
// fractional digits, so long simulations do not drift.
package fixedpoint

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits kept after a multiply or a
// divide (18, the same scale as an 18-decimal token).
const Precision int32 = 18

// workPrecision is handed to decimal's Ln, ExpTaylor and PowWithPrecision
// before the final rounding.
const workPrecision int32 = 40

var (
	ErrDomain   = errors.New("fixedpoint: argument out of domain")
	ErrOverflow = errors.New("fixedpoint: result overflows")
)

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
	Two  = decimal.NewFromInt(2)

	// e^135 is ~4e58, far above any reserve this package is asked about.
	maxExp = decimal.NewFromInt(135)
	// e^-42 is below 1e-18 and rounds to zero.
	minExp = decimal.NewFromInt(-42)
)

// FromFloat converts a configuration value to a decimal at Precision.
func FromFloat(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(Precision)
}

// ToFloat is for logs and reports only.
func ToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Precision)
}

// Div returns a/b rounded half-up at Precision. b must be non-zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision)
}

// Recip returns 1/x at the internal working precision. Use it for
// exponents, where rounding to Precision loses too much.
func Recip(x decimal.Decimal) decimal.Decimal {
	return One.DivRound(x, workPrecision)
}

// Ln returns the natural logarithm of x.
func Ln(x decimal.Decimal) (decimal.Decimal, error) {
	if x.Sign() <= 0 {
		return Zero, errors.Wrapf(ErrDomain, "ln(%s)", x)
	}
	v, err := x.Ln(workPrecision)
	if err != nil {
		return Zero, errors.Wrapf(err, "ln(%s)", x)
	}
	return v.Round(Precision), nil
}

// Exp returns e^x.
func Exp(x decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case x.IsZero():
		return One, nil
	case x.GreaterThan(maxExp):
		return Zero, errors.Wrapf(ErrOverflow, "exp(%s)", x)
	case x.LessThan(minExp):
		return Zero, nil
	}
	v, err := x.ExpTaylor(workPrecision)
	if err != nil {
		return Zero, errors.Wrapf(err, "exp(%s)", x)
	}
	return v.Round(Precision), nil
}

// Pow returns x^y for x >= 0. 0^y is 0 for y > 0 and x^0 is 1.
func Pow(x, y decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case y.IsZero():
		return One, nil
	case x.IsNegative():
		return Zero, errors.Wrapf(ErrDomain, "pow(%s, %s)", x, y)
	case x.IsZero():
		if y.IsNegative() {
			return Zero, errors.Wrapf(ErrDomain, "pow(%s, %s)", x, y)
		}
		return Zero, nil
	case x.Equal(One) || y.Equal(One):
		return x, nil
	}

	l, err := Ln(x)
	if err != nil {
		return Zero, err
	}
	if l.Mul(y).GreaterThan(maxExp) {
		return Zero, errors.Wrapf(ErrOverflow, "pow(%s, %s)", x, y)
	}
	v, err := x.PowWithPrecision(y, workPrecision)
	if err != nil {
		return Zero, errors.Wrapf(err, "pow(%s, %s)", x, y)
	}
	return v.Round(Precision), nil
}

// ApproxEqual reports whether |a-b| <= tol.
func ApproxEqual(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
