package pricing

import (
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

var (
	stretchNumerator   = decimal.RequireFromString("3.09396")
	stretchDenominator = decimal.RequireFromString("0.02789")
	hundred            = decimal.NewFromInt(100)
)

func calcTimeStretch(apr decimal.Decimal) (decimal.Decimal, error) {
	if apr.Sign() <= 0 {
		return decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "time stretch needs apr > 0, got %s", apr)
	}
	return fixedpoint.Div(stretchNumerator, fixedpoint.Mul(stretchDenominator, apr.Mul(hundred))), nil
}

// spotPrice is (mu*z/y)^t, the price of one bond in base. An empty pool
// has no price.
func spotPrice(s market.State, t decimal.Decimal) (decimal.Decimal, error) {
	if s.ShareReserves.Sign() <= 0 || s.BondReserves.Sign() <= 0 {
		return decimal.Zero, nil
	}
	ratio := fixedpoint.Div(fixedpoint.Mul(s.InitSharePrice, s.ShareReserves), s.BondReserves)
	p, err := fixedpoint.Pow(ratio, t)
	if err != nil {
		return decimal.Zero, errors.Wrap(market.ErrInvariantViolation, err.Error())
	}
	return p, nil
}

// aprFromPrice annualizes a bond price over a term of tn years.
func aprFromPrice(p, tn decimal.Decimal) decimal.Decimal {
	if p.Sign() <= 0 || tn.Sign() <= 0 {
		return decimal.Zero
	}
	return fixedpoint.Div(fixedpoint.One.Sub(p), fixedpoint.Mul(p, tn))
}

// curve is the YieldSpace invariant
//
//	k = (c/mu) * (mu*z)^(1-t) + y^(1-t)
//
// evaluated at one pool state and one stretched time t.
type curve struct {
	z, y, c, mu decimal.Decimal

	oneMinusT decimal.Decimal
	invExp    decimal.Decimal
	scale     decimal.Decimal
	k         decimal.Decimal
}

func newCurve(s market.State, t decimal.Decimal) (curve, error) {
	cv := curve{
		z:         s.ShareReserves,
		y:         s.BondReserves,
		c:         s.SharePrice,
		mu:        s.InitSharePrice,
		oneMinusT: fixedpoint.One.Sub(t),
	}
	if cv.oneMinusT.Sign() <= 0 {
		return curve{}, errors.Wrapf(market.ErrInvariantViolation, "stretched time %s must be below 1", t)
	}
	if cv.mu.Sign() <= 0 {
		return curve{}, errors.Wrapf(market.ErrInvariantViolation, "init share price %s must be positive", cv.mu)
	}
	cv.invExp = fixedpoint.Recip(cv.oneMinusT)
	cv.scale = fixedpoint.Div(cv.c, cv.mu)

	zt, err := cv.shareTerm(cv.z)
	if err != nil {
		return curve{}, err
	}
	yt, err := cv.bondTerm(cv.y)
	if err != nil {
		return curve{}, err
	}
	cv.k = zt.Add(yt)
	return cv, nil
}

// shareTerm is (c/mu) * (mu*z)^(1-t).
func (cv curve) shareTerm(z decimal.Decimal) (decimal.Decimal, error) {
	v, err := fixedpoint.Pow(fixedpoint.Mul(cv.mu, z), cv.oneMinusT)
	if err != nil {
		return decimal.Zero, errors.Wrapf(market.ErrInsufficientLiquidity, "share term: %v", err)
	}
	return fixedpoint.Mul(cv.scale, v), nil
}

// bondTerm is y^(1-t).
func (cv curve) bondTerm(y decimal.Decimal) (decimal.Decimal, error) {
	v, err := fixedpoint.Pow(y, cv.oneMinusT)
	if err != nil {
		return decimal.Zero, errors.Wrapf(market.ErrInsufficientLiquidity, "bond term: %v", err)
	}
	return v, nil
}

// bondsFor solves the invariant for y given the share-side term.
func (cv curve) bondsFor(inner decimal.Decimal) (decimal.Decimal, error) {
	if inner.IsNegative() {
		return decimal.Zero, errors.Wrapf(market.ErrInsufficientLiquidity, "bond reserves would be negative (%s)", inner)
	}
	return fixedpoint.Pow(inner, cv.invExp)
}

// sharesFor solves the invariant for z given the bond-side term.
func (cv curve) sharesFor(inner decimal.Decimal) (decimal.Decimal, error) {
	if inner.IsNegative() {
		return decimal.Zero, errors.Wrapf(market.ErrInsufficientLiquidity, "share reserves would be negative (%s)", inner)
	}
	v, err := fixedpoint.Pow(fixedpoint.Div(inner, cv.scale), cv.invExp)
	if err != nil {
		return decimal.Zero, err
	}
	return fixedpoint.Div(v, cv.mu), nil
}

func (cv curve) bondsOutGivenSharesIn(dz decimal.Decimal) (decimal.Decimal, error) {
	zt, err := cv.shareTerm(cv.z.Add(dz))
	if err != nil {
		return decimal.Zero, err
	}
	y, err := cv.bondsFor(cv.k.Sub(zt))
	if err != nil {
		return decimal.Zero, err
	}
	return cv.y.Sub(y), nil
}

func (cv curve) sharesOutGivenBondsIn(dy decimal.Decimal) (decimal.Decimal, error) {
	yt, err := cv.bondTerm(cv.y.Add(dy))
	if err != nil {
		return decimal.Zero, err
	}
	z, err := cv.sharesFor(cv.k.Sub(yt))
	if err != nil {
		return decimal.Zero, err
	}
	return cv.z.Sub(z), nil
}

func (cv curve) sharesInGivenBondsOut(dy decimal.Decimal) (decimal.Decimal, error) {
	if dy.GreaterThan(cv.y) {
		return decimal.Zero, errors.Wrapf(market.ErrInsufficientLiquidity, "bonds out %s exceed reserves %s", dy, cv.y)
	}
	yt, err := cv.bondTerm(cv.y.Sub(dy))
	if err != nil {
		return decimal.Zero, err
	}
	z, err := cv.sharesFor(cv.k.Sub(yt))
	if err != nil {
		return decimal.Zero, err
	}
	return z.Sub(cv.z), nil
}
