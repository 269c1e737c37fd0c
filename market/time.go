package market

import (
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/shopspring/decimal"
)

// DaysPerYear normalizes calendar days to fractions of a year.
var DaysPerYear = decimal.NewFromInt(365)

// StretchedTime is a position duration in days together with the pool's
// time stretch. It is fixed when the market is created.
type StretchedTime struct {
	Days                decimal.Decimal
	TimeStretch         decimal.Decimal
	NormalizingConstant decimal.Decimal
}

// NewStretchedTime builds a StretchedTime normalized by a 365-day year.
func NewStretchedTime(days, timeStretch decimal.Decimal) StretchedTime {
	return StretchedTime{
		Days:                days,
		TimeStretch:         timeStretch,
		NormalizingConstant: DaysPerYear,
	}
}

// NormalizedTime is Days / NormalizingConstant.
func (s StretchedTime) NormalizedTime() decimal.Decimal {
	return NormDays(s.Days, s.NormalizingConstant)
}

// StretchedTime is NormalizedTime / TimeStretch, the exponent used by the
// bonding curve.
func (s StretchedTime) StretchedTime() decimal.Decimal {
	return DaysToTimeRemaining(s.Days, s.TimeStretch, s.NormalizingConstant)
}

// WithDays returns a copy with a different duration and the same stretch.
func (s StretchedTime) WithDays(days decimal.Decimal) StretchedTime {
	s.Days = days
	return s
}

// NormDays converts days to a fraction of normalizingConstant days.
func NormDays(days, normalizingConstant decimal.Decimal) decimal.Decimal {
	return fixedpoint.Div(days, normalizingConstant)
}

// UnnormDays is the inverse of NormDays.
func UnnormDays(normedDays, normalizingConstant decimal.Decimal) decimal.Decimal {
	return fixedpoint.Mul(normedDays, normalizingConstant)
}

// DaysToTimeRemaining converts days left to normalized, stretched time.
func DaysToTimeRemaining(daysRemaining, timeStretch, normalizingConstant decimal.Decimal) decimal.Decimal {
	return fixedpoint.Div(NormDays(daysRemaining, normalizingConstant), timeStretch)
}

// TimeToDaysRemaining converts normalized, stretched time back to days.
func TimeToDaysRemaining(timeRemaining, timeStretch, normalizingConstant decimal.Decimal) decimal.Decimal {
	return UnnormDays(fixedpoint.Mul(timeRemaining, timeStretch), normalizingConstant)
}

// YearsRemaining returns the time left until maturity for a position
// minted at mintTime, floored at zero once the term has passed.
func YearsRemaining(marketTime, mintTime, termYears decimal.Decimal) (decimal.Decimal, error) {
	if mintTime.GreaterThan(marketTime) {
		return decimal.Zero, errors.Wrapf(ErrInvalidPosition,
			"mint time %s is after market time %s", mintTime, marketTime)
	}
	remaining := termYears.Sub(marketTime.Sub(mintTime))
	if remaining.IsNegative() {
		return decimal.Zero, nil
	}
	return remaining, nil
}
