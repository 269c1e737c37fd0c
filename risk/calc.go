package risk

import (
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// MaxLong approximates the most base a long can spend before the spot
// price reaches 1 (μz = y). Each unit of base adds 1/c shares and removes
// about 1/p bonds:
//
//	base ≤ (y − μz) / (μ/c + 1/p)
func MaxLong(s market.State, spot decimal.Decimal) decimal.Decimal {
	if !spot.IsPositive() || !s.SharePrice.IsPositive() {
		return decimal.Zero
	}
	room := s.BondReserves.Sub(fixedpoint.Mul(s.InitSharePrice, s.ShareReserves))
	if !room.IsPositive() {
		return decimal.Zero
	}
	perBase := fixedpoint.Div(s.InitSharePrice, s.SharePrice).Add(fixedpoint.Div(fixedpoint.One, spot))
	return fixedpoint.Div(room, perBase)
}

// MaxShort is the first-order bond amount whose sale proceeds use up the
// unreserved shares: z·c/p.
func MaxShort(s market.State, spot decimal.Decimal) decimal.Decimal {
	if !spot.IsPositive() {
		return decimal.Zero
	}
	free := s.ShareReserves.Sub(fixedpoint.Div(s.BaseBuffer, s.SharePrice))
	if !free.IsPositive() {
		return decimal.Zero
	}
	return fixedpoint.Div(fixedpoint.Mul(free, s.SharePrice), spot)
}

// Clamp limits x to [lo, hi]. A non-positive hi means no upper bound.
func Clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if hi.IsPositive() && x.GreaterThan(hi) {
		return hi
	}
	return x
}

// NewBounds fills the pool limits from a state and its spot price.
func NewBounds(s market.State, spot decimal.Decimal) Bounds {
	return Bounds{
		SpotPrice:      spot,
		TotalLiquidity: fixedpoint.Mul(s.ShareReserves, s.SharePrice),
		MaxLong:        MaxLong(s, spot),
		MaxShort:       MaxShort(s, spot),
	}
}
