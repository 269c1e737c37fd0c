package risk

import (
	"fmt"

	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether the decision carries a violation with code.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Evaluate checks an opening trade against the policy, the trader's wallet
// and what the pool can absorb. Closes and removals are only checked for
// a positive amount; the market rejects oversized ones.
func Evaluate(p Policy, intent TradeIntent, w WalletSnapshot, b Bounds) Decision {
	d := Decision{Allowed: true}

	if !intent.Amount.IsPositive() {
		d.add("NO_AMOUNT", "amount must be positive")
		return d
	}
	if intent.Type.IsClose() || intent.Type == market.RemoveLiquidity {
		return d
	}

	if intent.Amount.LessThan(p.MinTradeAmount) {
		d.add("AMOUNT_TOO_SMALL",
			fmt.Sprintf("amount %s below minimum %s", intent.Amount, p.MinTradeAmount))
	}

	// Base needed up front
	need := intent.Amount
	if intent.Type == market.OpenShort {
		need = fixedpoint.Mul(intent.Amount, fixedpoint.One.Sub(b.SpotPrice))
	}
	if need.GreaterThan(w.Base) {
		d.add("INSUFFICIENT_BASE",
			fmt.Sprintf("needs %s base, wallet has %s", need, w.Base))
	}

	if intent.Type == market.AddLiquidity {
		return d
	}

	if p.MaxOpenPositions > 0 && w.OpenLongs+w.OpenShorts >= p.MaxOpenPositions {
		d.add("TOO_MANY_POSITIONS",
			fmt.Sprintf("open positions %d >= max %d", w.OpenLongs+w.OpenShorts, p.MaxOpenPositions))
	}

	switch intent.Type {
	case market.OpenLong:
		if intent.Amount.GreaterThan(b.MaxLong) {
			d.add("LONG_TOO_LARGE", fmt.Sprintf("long %s exceeds pool max %s", intent.Amount, b.MaxLong))
		}
	case market.OpenShort:
		if intent.Amount.GreaterThan(b.MaxShort) {
			d.add("SHORT_TOO_LARGE", fmt.Sprintf("short %s exceeds pool max %s", intent.Amount, b.MaxShort))
		}
	}

	// Trade size vs pool
	if p.MaxTradeFraction.IsPositive() {
		limit := fixedpoint.Mul(p.MaxTradeFraction, b.TotalLiquidity)
		if intent.Amount.GreaterThan(limit) {
			d.add("TRADE_TOO_LARGE",
				fmt.Sprintf("amount %s exceeds %s of liquidity (%s)", intent.Amount, p.MaxTradeFraction, limit))
		}
	}

	return d
}
