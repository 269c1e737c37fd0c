package pricing

import (
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// YieldSpace prices every close entirely on the curve, at the stretched
// time left on the position.
type YieldSpace struct {
	amm
}

func NewYieldSpace() *YieldSpace {
	return &YieldSpace{amm{name: "yieldspace", split: yieldSpaceSplit}}
}

func yieldSpaceSplit(bonds decimal.Decimal, _, remaining market.StretchedTime) (flat, onCurve, t decimal.Decimal) {
	if remaining.Days.IsNegative() {
		remaining = remaining.WithDays(decimal.Zero)
	}
	return decimal.Zero, bonds, remaining.StretchedTime()
}
