package pricing

import (
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// Hyperdrive prices the unmatured fraction of a close on the curve at the
// pool's full stretched term and redeems the matured fraction 1:1.
type Hyperdrive struct {
	amm
}

func NewHyperdrive() *Hyperdrive {
	return &Hyperdrive{amm{name: "hyperdrive", split: hyperdriveSplit}}
}

func hyperdriveSplit(bonds decimal.Decimal, term, remaining market.StretchedTime) (flat, onCurve, t decimal.Decimal) {
	onCurve = fixedpoint.Mul(bonds, fractionRemaining(term, remaining))
	return bonds.Sub(onCurve), onCurve, term.StretchedTime()
}

// fractionRemaining is days left over the term length, clamped to [0, 1].
func fractionRemaining(term, remaining market.StretchedTime) decimal.Decimal {
	if term.Days.Sign() <= 0 || remaining.Days.Sign() <= 0 {
		return decimal.Zero
	}
	tau := fixedpoint.Div(remaining.Days, term.Days)
	if tau.GreaterThan(fixedpoint.One) {
		return fixedpoint.One
	}
	return tau
}
