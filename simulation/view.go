package simulation

import (
	"github.com/rustyeddy/elfsim/agents"
	"github.com/rustyeddy/elfsim/market"
	"github.com/rustyeddy/elfsim/sim"
	"github.com/shopspring/decimal"
)

// marketView is the read side of the market handed to agents. It does not
// expose ApplyAction or the clock.
type marketView struct {
	m *sim.Market
}

var _ agents.View = marketView{}

func (v marketView) State() market.State                 { return v.m.State() }
func (v marketView) Term() market.StretchedTime          { return v.m.Term() }
func (v marketView) Time() decimal.Decimal               { return v.m.Time() }
func (v marketView) SpotPrice() (decimal.Decimal, error) { return v.m.SpotPrice() }
func (v marketView) PoolAPR() (decimal.Decimal, error)   { return v.m.PoolAPR() }
func (v marketView) TotalLiquidity() decimal.Decimal     { return v.m.TotalLiquidity() }
func (v marketView) PresentValue() decimal.Decimal       { return v.m.PresentValue() }

func (v marketView) DaysRemaining(mintTime decimal.Decimal) (decimal.Decimal, error) {
	return v.m.DaysRemaining(mintTime)
}

func (s *Simulator) view() agents.View {
	return marketView{m: s.market}
}
