package agents

import (
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// LP adds its whole budget as liquidity the first time it is asked, then
// holds until liquidation.
type LP struct {
	*Base
	added bool
}

func NewLP(address int, budget decimal.Decimal) *LP {
	return &LP{Base: NewBase(address, "lp", budget)}
}

func (a *LP) Action(View) []market.Action {
	if a.added || !a.wallet.Base.IsPositive() {
		return nil
	}
	a.added = true
	return []market.Action{market.NewAction(market.AddLiquidity, a.address, a.wallet.Base)}
}
