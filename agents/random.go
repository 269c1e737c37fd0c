package agents

import (
	"math/rand"

	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/rustyeddy/elfsim/risk"
	"github.com/shopspring/decimal"
)

// Random trades with probability TradeChance each block. It picks one of
// the actions open to it (open long, open short, close a long, close a
// short), sizes opens from Amount and closes whole positions.
type Random struct {
	*Base

	TradeChance float64
	Amount      config.Distribution
	Risk        risk.Policy

	rng *rand.Rand

	// Last risk decision that blocked a trade, for inspection.
	LastDenied *risk.Decision
}

func NewRandom(address int, budget decimal.Decimal, chance float64, amount config.Distribution, rng *rand.Rand) *Random {
	return &Random{
		Base:        NewBase(address, "random", budget),
		TradeChance: chance,
		Amount:      amount,
		Risk:        risk.DefaultPolicy(),
		rng:         rng,
	}
}

func (a *Random) Action(v View) []market.Action {
	if a.rng.Float64() >= a.TradeChance {
		return nil
	}

	var choices []market.ActionType
	if a.wallet.Base.GreaterThanOrEqual(a.Risk.MinTradeAmount) {
		choices = append(choices, market.OpenLong, market.OpenShort)
	}
	longs, shorts := a.wallet.Longs(), a.wallet.Shorts()
	if len(longs) > 0 {
		choices = append(choices, market.CloseLong)
	}
	if len(shorts) > 0 {
		choices = append(choices, market.CloseShort)
	}
	if len(choices) == 0 {
		return nil
	}

	switch t := choices[a.rng.Intn(len(choices))]; t {
	case market.CloseLong:
		p := longs[a.rng.Intn(len(longs))]
		return []market.Action{market.NewCloseAction(t, a.address, p.Balance, p.MintTime)}
	case market.CloseShort:
		p := shorts[a.rng.Intn(len(shorts))]
		return []market.Action{market.NewCloseAction(t, a.address, p.Balance, p.MintTime)}
	default:
		return a.open(t, v)
	}
}

func (a *Random) open(t market.ActionType, v View) []market.Action {
	spot, err := v.SpotPrice()
	if err != nil || !spot.IsPositive() {
		return nil
	}
	bounds := risk.NewBounds(v.State(), spot)

	upper := a.wallet.Base
	switch t {
	case market.OpenLong:
		upper = decimal.Min(upper, bounds.MaxLong)
	case market.OpenShort:
		// deposit is about bonds·(1−p)
		if discount := fixedpoint.One.Sub(spot); discount.IsPositive() {
			upper = decimal.Min(fixedpoint.Div(upper, discount), bounds.MaxShort)
		} else {
			upper = bounds.MaxShort
		}
	}
	if a.Risk.MaxTradeFraction.IsPositive() {
		upper = decimal.Min(upper, fixedpoint.Mul(a.Risk.MaxTradeFraction, bounds.TotalLiquidity))
	}
	if !upper.IsPositive() {
		return nil
	}
	amount := risk.Clamp(Sample(a.Amount, a.rng), a.Risk.MinTradeAmount, upper)

	d := risk.Evaluate(a.Risk, risk.TradeIntent{Type: t, Amount: amount}, risk.SnapshotWallet(a.wallet), bounds)
	if !d.Allowed {
		a.LastDenied = &d
		return nil
	}
	return []market.Action{market.NewAction(t, a.address, amount)}
}
